package database

const (
	DEFAULT_BUCKET_CAPACITY = 4

	// directory size is capped at 1<<maxGlobalDepth slots;
	// buckets that can not split any further overflow their capacity
	maxGlobalDepth = 28
)

type ehEntry[K comparable, V any] struct {
	hash  uint64
	key   K
	value V
}

type ehBucket[K comparable, V any] struct {
	localDepth uint
	entries    []ehEntry[K, V]
}

func (b *ehBucket[K, V]) find(hash uint64, key K) int {
	for i := range b.entries {
		if b.entries[i].hash == hash && b.entries[i].key == key {
			return i
		}
	}
	return -1
}

// ExtendibleMap is an extendible hashing table.
// directory holds indexes into buckets; a bucket with local depth d
// is referenced by every slot whose low d bits match its address.
type ExtendibleMap[K comparable, V any] struct {
	globalDepth uint
	directory   []int
	buckets     []*ehBucket[K, V]
	capacity    int
	count       int
	hasher      Hasher[K]
}

func NewExtendibleMap[K comparable, V any](capacity int, hasher Hasher[K]) (*ExtendibleMap[K, V], error) {
	if err := checkArgs(capacity, hasher); err != nil {
		return nil, err
	}
	if capacity == 0 {
		capacity = DEFAULT_BUCKET_CAPACITY
	}
	em := &ExtendibleMap[K, V]{
		globalDepth: 1,
		directory:   []int{0, 1},
		capacity:    capacity,
		hasher:      hasher,
	}
	em.buckets = []*ehBucket[K, V]{em.newBucket(1), em.newBucket(1)}
	return em, nil
} // end func NewExtendibleMap

func (em *ExtendibleMap[K, V]) newBucket(localDepth uint) *ehBucket[K, V] {
	return &ehBucket[K, V]{
		localDepth: localDepth,
		entries:    make([]ehEntry[K, V], 0, em.capacity),
	}
}

func (em *ExtendibleMap[K, V]) address(hash uint64) int {
	return int(hash & (uint64(1)<<em.globalDepth - 1))
}

func (em *ExtendibleMap[K, V]) Get(key K) (value V, err error) {
	if nilKey(key) {
		return value, ErrInvalidArgument
	}
	hash := em.hasher(key)
	b := em.buckets[em.directory[em.address(hash)]]
	i := b.find(hash, key)
	if i < 0 {
		return value, ErrKeyNotFound
	}
	return b.entries[i].value, nil
}

func (em *ExtendibleMap[K, V]) Set(key K, value V) error {
	return em.Add(key, value)
}

func (em *ExtendibleMap[K, V]) Add(key K, value V) error {
	if nilKey(key) {
		return ErrInvalidArgument
	}
	hash := em.hasher(key)
	for {
		bi := em.directory[em.address(hash)]
		b := em.buckets[bi]
		if i := b.find(hash, key); i >= 0 {
			b.entries[i].value = value
			return nil
		}
		if len(b.entries) < em.capacity || !em.splittable(b, hash) {
			b.entries = append(b.entries, ehEntry[K, V]{hash: hash, key: key, value: value})
			em.count++
			return nil
		}
		if b.localDepth == em.globalDepth {
			em.grow()
		}
		em.split(bi)
	}
} // end func Add

// splittable reports whether splitting b can make room for hash.
// Only hash bits below maxGlobalDepth can separate entries.
func (em *ExtendibleMap[K, V]) splittable(b *ehBucket[K, V], hash uint64) bool {
	if b.localDepth >= maxGlobalDepth {
		return false
	}
	const mask = uint64(1)<<maxGlobalDepth - 1
	for i := range b.entries {
		if (b.entries[i].hash^hash)&mask != 0 {
			return true
		}
	}
	return false
}

// grow doubles the directory. No entry moves.
func (em *ExtendibleMap[K, V]) grow() {
	em.directory = append(em.directory, em.directory...)
	em.globalDepth++
}

// split replaces bucket bi by two buckets one level deeper.
// The half with bit localDepth clear keeps index bi.
func (em *ExtendibleMap[K, V]) split(bi int) {
	old := em.buckets[bi]
	if old.localDepth >= em.globalDepth {
		panic("ExtendibleMap.split: localDepth >= globalDepth")
	}
	bit := uint64(1) << old.localDepth
	b0 := em.newBucket(old.localDepth + 1)
	b1 := em.newBucket(old.localDepth + 1)
	for _, e := range old.entries {
		if e.hash&bit != 0 {
			b1.entries = append(b1.entries, e)
		} else {
			b0.entries = append(b0.entries, e)
		}
	}
	em.buckets[bi] = b0
	em.buckets = append(em.buckets, b1)
	b1i := len(em.buckets) - 1

	// slots referencing old share its low localDepth bits
	var start int
	for i, target := range em.directory {
		if target == bi {
			start = i & int(bit-1)
			break
		}
	}
	for i := start; i < len(em.directory); i += int(bit) {
		if em.directory[i] != bi {
			panic("ExtendibleMap.split: directory slot does not reference the splitting bucket")
		}
		if uint64(i)&bit != 0 {
			em.directory[i] = b1i
		}
	}
} // end func split

func (em *ExtendibleMap[K, V]) Remove(key K) error {
	if nilKey(key) {
		return ErrInvalidArgument
	}
	hash := em.hasher(key)
	b := em.buckets[em.directory[em.address(hash)]]
	i := b.find(hash, key)
	if i < 0 {
		return ErrKeyNotFound
	}
	last := len(b.entries) - 1
	b.entries[i] = b.entries[last]
	b.entries[last] = ehEntry[K, V]{}
	b.entries = b.entries[:last]
	em.count--
	return nil
} // end func Remove

func (em *ExtendibleMap[K, V]) Count() int {
	return em.count
}

func (em *ExtendibleMap[K, V]) GlobalDepth() int {
	return int(em.globalDepth)
}

func (em *ExtendibleMap[K, V]) Stats() Stats {
	return Stats{
		Backend:       BACKEND_EXTENDIBLE,
		Count:         em.count,
		Buckets:       len(em.buckets),
		DirectorySize: len(em.directory),
		GlobalDepth:   int(em.globalDepth),
	}
}
