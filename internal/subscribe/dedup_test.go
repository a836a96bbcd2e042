package subscribe

import "testing"

func TestDedupCache_NovelThenDuplicate(t *testing.T) {
	d := NewDedupCache(10)
	if ok := d.TryInsert(1, "room1", []byte(`{"a":1}`)); !ok {
		t.Fatal("first insert should be novel")
	}
	if ok := d.TryInsert(1, "room1", []byte(`{"a":1}`)); ok {
		t.Fatal("identical payload under same identifier should be a duplicate")
	}
}

func TestDedupCache_SameIdentifierDifferentPayloadIsNovel(t *testing.T) {
	d := NewDedupCache(10)
	d.TryInsert(1, "room1", []byte(`{"a":1}`))
	if ok := d.TryInsert(1, "room1", []byte(`{"a":2}`)); !ok {
		t.Fatal("distinct payload under the same identifier should be novel")
	}
}

func TestDedupCache_CapacityZeroBypasses(t *testing.T) {
	d := NewDedupCache(0)
	d.TryInsert(1, "room1", []byte(`{"a":1}`))
	if ok := d.TryInsert(1, "room1", []byte(`{"a":1}`)); !ok {
		t.Fatal("capacity 0 should always report novel")
	}
	if d.Len() != 0 {
		t.Fatalf("capacity 0 should never track state, Len() = %d", d.Len())
	}
}

func TestDedupCache_EvictsOldestOnOverflow(t *testing.T) {
	d := NewDedupCache(2)
	d.TryInsert(1, "c1", []byte(`"a"`))
	d.TryInsert(2, "c1", []byte(`"b"`))
	d.TryInsert(3, "c1", []byte(`"c"`))

	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
	if ok := d.TryInsert(1, "c1", []byte(`"a"`)); !ok {
		t.Fatal("evicted identifier's payload should be novel again")
	}
}

func TestDedupCache_PurgeNewerThan(t *testing.T) {
	d := NewDedupCache(10)
	d.TryInsert(50, "c1", []byte(`"a"`))
	d.TryInsert(70, "c1", []byte(`"b"`))
	d.TryInsert(30, "c1", []byte(`"c"`))

	d.PurgeNewerThan(60)

	if ok := d.TryInsert(70, "c1", []byte(`"b"`)); !ok {
		t.Fatal("purged identifier should be novel again")
	}
	if ok := d.TryInsert(30, "c1", []byte(`"c"`)); ok {
		t.Fatal("identifier below the purge threshold should still be tracked")
	}
}

func TestDedupCache_Clear(t *testing.T) {
	d := NewDedupCache(10)
	d.TryInsert(1, "c1", []byte(`"a"`))
	d.Clear()
	if d.Len() != 0 {
		t.Fatalf("Len() = %d after Clear, want 0", d.Len())
	}
}
