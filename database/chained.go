package database

// ChainedTable is a separate chaining hash table with a prime number of buckets.
// Chains are index linked through a slab; a full table is rehashed
// into the next prime size.
type ChainedTable[K comparable, V any] struct {
	buckets []int
	entries *slab[K, V]
	count   int
	hasher  Hasher[K]
}

func NewChainedTable[K comparable, V any](capacity int, hasher Hasher[K]) (*ChainedTable[K, V], error) {
	if err := checkArgs(capacity, hasher); err != nil {
		return nil, err
	}
	size := NextPrime(capacity)
	ct := &ChainedTable[K, V]{
		buckets: newHeads(size),
		entries: newSlab[K, V](size),
		hasher:  hasher,
	}
	return ct, nil
} // end func NewChainedTable

func newHeads(size int) []int {
	heads := make([]int, size)
	for i := range heads {
		heads[i] = nilIdx
	}
	return heads
}

func (ct *ChainedTable[K, V]) bucket(hash uint64) int {
	return int(hash % uint64(len(ct.buckets)))
}

func (ct *ChainedTable[K, V]) Get(key K) (value V, err error) {
	if nilKey(key) {
		return value, ErrInvalidArgument
	}
	hash := ct.hasher(key)
	idx, _ := ct.entries.find(ct.buckets[ct.bucket(hash)], hash, key)
	if idx == nilIdx {
		return value, ErrKeyNotFound
	}
	return ct.entries.slots[idx].value, nil
}

func (ct *ChainedTable[K, V]) Set(key K, value V) error {
	return ct.Add(key, value)
}

func (ct *ChainedTable[K, V]) Add(key K, value V) error {
	if nilKey(key) {
		return ErrInvalidArgument
	}
	hash := ct.hasher(key)
	b := ct.bucket(hash)
	if idx, _ := ct.entries.find(ct.buckets[b], hash, key); idx != nilIdx {
		ct.entries.slots[idx].value = value
		return nil
	}
	if ct.count == len(ct.buckets) {
		ct.resize(NextPrime(len(ct.buckets)))
		b = ct.bucket(hash)
	}
	ct.buckets[b] = ct.entries.alloc(hash, key, value, ct.buckets[b])
	ct.count++
	return nil
} // end func Add

func (ct *ChainedTable[K, V]) Remove(key K) error {
	if nilKey(key) {
		return ErrInvalidArgument
	}
	hash := ct.hasher(key)
	b := ct.bucket(hash)
	idx, prev := ct.entries.find(ct.buckets[b], hash, key)
	if idx == nilIdx {
		return ErrKeyNotFound
	}
	ct.entries.unlink(&ct.buckets[b], idx, prev)
	ct.entries.release(idx)
	ct.count--
	return nil
} // end func Remove

func (ct *ChainedTable[K, V]) Count() int {
	return ct.count
}

// resize relinks every live entry into size new buckets using its stored hash.
func (ct *ChainedTable[K, V]) resize(size int) {
	heads := newHeads(size)
	for _, head := range ct.buckets {
		for idx := head; idx != nilIdx; {
			next := ct.entries.slots[idx].next
			b := int(ct.entries.slots[idx].hash % uint64(size))
			ct.entries.slots[idx].next = heads[b]
			heads[b] = idx
			idx = next
		}
	}
	ct.buckets = heads
} // end func resize

func (ct *ChainedTable[K, V]) Stats() Stats {
	return Stats{
		Backend: BACKEND_CHAINED,
		Count:   ct.count,
		Buckets: len(ct.buckets),
	}
}
