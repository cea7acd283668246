package database

const nilIdx = -1

type slot[K comparable, V any] struct {
	hash  uint64
	next  int
	key   K
	value V
}

// slab is an arena of chain nodes. Chains link by index;
// released slots are kept on a free list threaded through next.
type slab[K comparable, V any] struct {
	slots    []slot[K, V]
	freeList int
	freeLen  int
}

func newSlab[K comparable, V any](size int) *slab[K, V] {
	return &slab[K, V]{
		slots:    make([]slot[K, V], 0, size),
		freeList: nilIdx,
	}
}

func (s *slab[K, V]) alloc(hash uint64, key K, value V, next int) (idx int) {
	if s.freeLen > 0 {
		idx = s.freeList
		s.freeList = s.slots[idx].next
		s.freeLen--
		s.slots[idx] = slot[K, V]{hash: hash, next: next, key: key, value: value}
		return
	}
	idx = len(s.slots)
	s.slots = append(s.slots, slot[K, V]{hash: hash, next: next, key: key, value: value})
	return
}

func (s *slab[K, V]) release(idx int) {
	s.slots[idx] = slot[K, V]{next: s.freeList}
	s.freeList = idx
	s.freeLen++
}

// find walks the chain starting at head.
// It returns the index of key and of its predecessor, nilIdx if absent.
func (s *slab[K, V]) find(head int, hash uint64, key K) (idx int, prev int) {
	prev = nilIdx
	for idx = head; idx != nilIdx; idx = s.slots[idx].next {
		if s.slots[idx].hash == hash && s.slots[idx].key == key {
			return idx, prev
		}
		prev = idx
	}
	return nilIdx, nilIdx
}

// unlink removes idx from the chain rooted at *head, given its predecessor.
func (s *slab[K, V]) unlink(head *int, idx int, prev int) {
	if prev == nilIdx {
		*head = s.slots[idx].next
	} else {
		s.slots[prev].next = s.slots[idx].next
	}
}

func (s *slab[K, V]) live() int {
	return len(s.slots) - s.freeLen
}
