package joint

import "testing"

func TestPoolCreateAndGet(t *testing.T) {
	pool := NewPool[int](TypeDistance)

	id, slot := pool.Create(42)
	*slot = 42

	got, ok := pool.Get(id)
	if !ok {
		t.Fatalf("expected Get to find the just-created slot")
	}
	if *got != 42 {
		t.Fatalf("expected 42, got %v", *got)
	}
}

func TestPoolRemoveInvalidatesHandle(t *testing.T) {
	pool := NewPool[int](TypeHinge)

	id, _ := pool.Create(7)
	if !pool.Remove(id) {
		t.Fatalf("expected Remove to succeed on a live handle")
	}

	if _, ok := pool.Get(id); ok {
		t.Fatalf("expected Get to reject a removed handle")
	}
	if pool.Remove(id) {
		t.Fatalf("expected a second Remove of the same handle to fail")
	}
}

func TestPoolReusesFreedSlotWithBumpedSequence(t *testing.T) {
	pool := NewPool[int](TypeSwingTwist)

	id1, _ := pool.Create(1)
	pool.Remove(id1)

	id2, slot2 := pool.Create(2)
	*slot2 = 2

	if id1.Index != id2.Index {
		t.Fatalf("expected the freed slot to be reused, got indices %v and %v", id1.Index, id2.Index)
	}
	if id1.Sequence == id2.Sequence {
		t.Fatalf("expected the reused slot's sequence to change so the old handle is rejected")
	}
	if _, ok := pool.Get(id1); ok {
		t.Fatalf("expected the stale handle from before reuse to be rejected")
	}
	if got, ok := pool.Get(id2); !ok || *got != 2 {
		t.Fatalf("expected the new handle to resolve to the new value")
	}
}

func TestPoolGetRejectsWrongType(t *testing.T) {
	pool := NewPool[int](TypeDistance)
	id, _ := pool.Create(1)
	id.Type = TypeSixDOF

	if _, ok := pool.Get(id); ok {
		t.Fatalf("expected Get to reject a handle tagged with the wrong joint type")
	}
}

func TestPoolEachVisitsOnlyOccupiedSlots(t *testing.T) {
	pool := NewPool[int](TypeDistance)
	id1, s1 := pool.Create(10)
	*s1 = 10
	id2, s2 := pool.Create(20)
	*s2 = 20
	pool.Remove(id1)

	visited := make(map[uint32]int)
	pool.Each(func(index uint32, value *int) {
		visited[index] = *value
	})

	if _, ok := visited[id1.Index]; ok {
		t.Fatalf("expected Each to skip the removed slot")
	}
	if v, ok := visited[id2.Index]; !ok || v != 20 {
		t.Fatalf("expected Each to visit the remaining occupied slot with value 20, got %v", visited)
	}
}
