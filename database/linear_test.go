package database

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func (lm *LinearMap[K, V]) verify(t *testing.T) {
	t.Helper()
	if len(lm.buckets) != lm.base+lm.splitPointer {
		t.Fatalf("buckets %d != base %d + splitPointer %d", len(lm.buckets), lm.base, lm.splitPointer)
	}
	if lm.splitPointer < 0 || lm.splitPointer >= lm.base {
		t.Fatalf("splitPointer %d out of [0, %d)", lm.splitPointer, lm.base)
	}
	total := 0
	for b, head := range lm.buckets {
		for idx := head; idx != nilIdx; idx = lm.entries.slots[idx].next {
			if got := lm.address(lm.entries.slots[idx].hash); got != b {
				t.Fatalf("bucket %d holds hash %d addressed to %d", b, lm.entries.slots[idx].hash, got)
			}
			total++
		}
	}
	if total != lm.count {
		t.Fatalf("chained entries %d != count %d", total, lm.count)
	}
}

// chains returns the sorted hashes of every bucket.
func (lm *LinearMap[K, V]) chains() [][]uint64 {
	out := make([][]uint64, len(lm.buckets))
	for b, head := range lm.buckets {
		out[b] = []uint64{}
		for idx := head; idx != nilIdx; idx = lm.entries.slots[idx].next {
			out[b] = append(out[b], lm.entries.slots[idx].hash)
		}
		sort.Slice(out[b], func(i, j int) bool { return out[b][i] < out[b][j] })
	}
	return out
}

func TestLinearMap_TwentyKeys(t *testing.T) {
	lm, err := NewLinearMapThreshold[int, string](2, 0.75, IntHasher[int]())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		lm.Add(i, fmt.Sprint(i))
		lm.verify(t)
		if lf := lm.LoadFactor(); lf > 0.75 {
			t.Errorf("after Add(%d) load factor %v > 0.75", i, lf)
		}
	}
	if lm.Count() != 20 {
		t.Errorf("Count() = %d, want 20", lm.Count())
	}
	for i := 0; i < 20; i++ {
		if v, err := lm.Get(i); err != nil || v != fmt.Sprint(i) {
			t.Errorf("Get(%d) = %q, %v", i, v, err)
		}
	}
}

func TestLinearMap_SplitTouchesOneBucket(t *testing.T) {
	hasher, _ := StringHasher(HASH_FNV32A)
	lm, _ := NewLinearMapThreshold[string, int](4, 100, hasher) // never splits on its own
	for i := 0; i < 200; i++ {
		lm.Add(fmt.Sprintf("k%d", i), i)
	}
	for round := 0; round < 40; round++ {
		before := lm.chains()
		s, base := lm.splitPointer, lm.base
		lm.split()
		lm.verify(t)
		after := lm.chains()
		if len(after) != len(before)+1 {
			t.Fatalf("round %d: buckets %d => %d", round, len(before), len(after))
		}
		for b := range before {
			if b == s {
				continue
			}
			if diff := cmp.Diff(before[b], after[b]); diff != "" {
				t.Fatalf("round %d: bucket %d changed while splitting %d:\n%s", round, b, s, diff)
			}
		}
		merged := append(append([]uint64{}, after[s]...), after[len(after)-1]...)
		sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
		if diff := cmp.Diff(before[s], merged); diff != "" {
			t.Fatalf("round %d: split of bucket %d lost or gained entries:\n%s", round, s, diff)
		}
		for _, h := range after[len(after)-1] {
			if int(h%uint64(2*base)) != base+s {
				t.Fatalf("round %d: moved hash %d does not belong to bucket %d", round, h, base+s)
			}
		}
	}
}

func TestLinearMap_SplitPointerWraps(t *testing.T) {
	lm, _ := NewLinearMap[int, int](2, IntHasher[int]())
	seen := map[int]bool{}
	for i := 0; i < 100; i++ {
		lm.Add(i, i)
		seen[lm.base] = true
		lm.verify(t)
	}
	for _, base := range []int{2, 4, 8, 16, 32} {
		if !seen[base] {
			t.Errorf("base never reached %d, seen=%v", base, seen)
		}
	}
}

func TestLinearMap_RemoveAfterSplits(t *testing.T) {
	hasher, _ := StringHasher(HASH_siphash)
	lm, _ := NewLinearMap[string, int](3, hasher)
	for i := 0; i < 1000; i++ {
		lm.Add(fmt.Sprint(i), i)
	}
	for i := 0; i < 1000; i += 2 {
		if err := lm.Remove(fmt.Sprint(i)); err != nil {
			t.Fatalf("Remove(%d) err='%v'", i, err)
		}
	}
	lm.verify(t)
	for i := 0; i < 1000; i++ {
		_, err := lm.Get(fmt.Sprint(i))
		if i%2 == 0 && !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("Get(%d) removed err='%v'", i, err)
		}
		if i%2 == 1 && err != nil {
			t.Errorf("Get(%d) err='%v'", i, err)
		}
	}
}

func TestLinearMap_Options(t *testing.T) {
	for _, th := range []float64{0, -1} {
		if _, err := NewLinearMapThreshold[int, int](2, th, IntHasher[int]()); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("threshold %v err='%v'", th, err)
		}
	}
	lm, _ := NewLinearMap[int, int](0, IntHasher[int]())
	if lm.capacity != DEFAULT_LINEAR_CAPACITY || lm.threshold != DEFAULT_LINEAR_THRESHOLD {
		t.Errorf("defaults capacity=%d threshold=%v", lm.capacity, lm.threshold)
	}
	want := Stats{Backend: BACKEND_LINEAR, Buckets: 2, Base: 2}
	if diff := cmp.Diff(want, lm.Stats()); diff != "" {
		t.Errorf("initial Stats (-want +got):\n%s", diff)
	}
}
