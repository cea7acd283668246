package database

import (
	"fmt"
	"math"
)

const (
	DEFAULT_LINEAR_CAPACITY  = 2
	DEFAULT_LINEAR_THRESHOLD = 0.75
	linearInitialBase        = 2
)

// LinearMap is a linear hashing table. Buckets are unbounded chains
// and grow by one split per insert that pushes the load factor over threshold.
type LinearMap[K comparable, V any] struct {
	buckets      []int
	entries      *slab[K, V]
	splitPointer int
	base         int
	capacity     int
	threshold    float64
	count        int
	hasher       Hasher[K]
}

func NewLinearMap[K comparable, V any](capacity int, hasher Hasher[K]) (*LinearMap[K, V], error) {
	return NewLinearMapThreshold[K, V](capacity, DEFAULT_LINEAR_THRESHOLD, hasher)
}

func NewLinearMapThreshold[K comparable, V any](capacity int, threshold float64, hasher Hasher[K]) (*LinearMap[K, V], error) {
	if err := checkArgs(capacity, hasher); err != nil {
		return nil, err
	}
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, fmt.Errorf("%w: threshold %v", ErrInvalidArgument, threshold)
	}
	if capacity == 0 {
		capacity = DEFAULT_LINEAR_CAPACITY
	}
	lm := &LinearMap[K, V]{
		buckets:   newHeads(linearInitialBase),
		entries:   newSlab[K, V](capacity * linearInitialBase),
		base:      linearInitialBase,
		capacity:  capacity,
		threshold: threshold,
		hasher:    hasher,
	}
	return lm, nil
} // end func NewLinearMapThreshold

// address is used identically by lookup, insert and remove.
func (lm *LinearMap[K, V]) address(hash uint64) int {
	h0 := int(hash % uint64(lm.base))
	if h0 < lm.splitPointer {
		return int(hash % uint64(2*lm.base))
	}
	return h0
}

func (lm *LinearMap[K, V]) Get(key K) (value V, err error) {
	if nilKey(key) {
		return value, ErrInvalidArgument
	}
	hash := lm.hasher(key)
	idx, _ := lm.entries.find(lm.buckets[lm.address(hash)], hash, key)
	if idx == nilIdx {
		return value, ErrKeyNotFound
	}
	return lm.entries.slots[idx].value, nil
}

func (lm *LinearMap[K, V]) Set(key K, value V) error {
	return lm.Add(key, value)
}

func (lm *LinearMap[K, V]) Add(key K, value V) error {
	if nilKey(key) {
		return ErrInvalidArgument
	}
	hash := lm.hasher(key)
	b := lm.address(hash)
	idx, _ := lm.entries.find(lm.buckets[b], hash, key)
	if idx != nilIdx {
		lm.entries.slots[idx].value = value
		return nil
	}
	tail := nilIdx
	for i := lm.buckets[b]; i != nilIdx; i = lm.entries.slots[i].next {
		tail = i
	}
	idx = lm.entries.alloc(hash, key, value, nilIdx)
	if tail == nilIdx {
		lm.buckets[b] = idx
	} else {
		lm.entries.slots[tail].next = idx
	}
	lm.count++
	if lm.LoadFactor() > lm.threshold {
		lm.split()
	}
	return nil
} // end func Add

func (lm *LinearMap[K, V]) LoadFactor() float64 {
	return float64(lm.count) / float64(lm.capacity*len(lm.buckets))
}

// split moves the entries of bucket splitPointer whose address under 2*base
// changed into a new bucket, then advances splitPointer.
func (lm *LinearMap[K, V]) split() {
	s := lm.splitPointer
	lm.buckets = append(lm.buckets, nilIdx)
	nb := len(lm.buckets) - 1
	if nb != lm.base+s {
		panic(fmt.Sprintf("LinearMap.split: new bucket %d != base %d + splitPointer %d", nb, lm.base, s))
	}
	mod := uint64(2 * lm.base)
	newTail := nilIdx
	prev := nilIdx
	for idx := lm.buckets[s]; idx != nilIdx; {
		next := lm.entries.slots[idx].next
		if int(lm.entries.slots[idx].hash%mod) != s {
			lm.entries.unlink(&lm.buckets[s], idx, prev)
			lm.entries.slots[idx].next = nilIdx
			if newTail == nilIdx {
				lm.buckets[nb] = idx
			} else {
				lm.entries.slots[newTail].next = idx
			}
			newTail = idx
		} else {
			prev = idx
		}
		idx = next
	}
	if lm.splitPointer == lm.base-1 {
		lm.splitPointer = 0
		lm.base *= 2
	} else {
		lm.splitPointer++
	}
} // end func split

func (lm *LinearMap[K, V]) Remove(key K) error {
	if nilKey(key) {
		return ErrInvalidArgument
	}
	hash := lm.hasher(key)
	b := lm.address(hash)
	idx, prev := lm.entries.find(lm.buckets[b], hash, key)
	if idx == nilIdx {
		return ErrKeyNotFound
	}
	lm.entries.unlink(&lm.buckets[b], idx, prev)
	lm.entries.release(idx)
	lm.count--
	return nil
} // end func Remove

func (lm *LinearMap[K, V]) Count() int {
	return lm.count
}

func (lm *LinearMap[K, V]) Stats() Stats {
	return Stats{
		Backend:      BACKEND_LINEAR,
		Count:        lm.count,
		Buckets:      len(lm.buckets),
		SplitPointer: lm.splitPointer,
		Base:         lm.base,
	}
}
