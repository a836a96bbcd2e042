package subscribe

import "testing"

func TestSubscriptionSet_AddChannels_RoutesPresenceSuffix(t *testing.T) {
	s := NewSubscriptionSet()
	s.AddChannels([]string{"room1", "room2-pnpres"})

	if _, ok := s.data["room1"]; !ok {
		t.Fatal("room1 not in data set")
	}
	if _, ok := s.presence["room2"]; !ok {
		t.Fatal("room2 not in presence set (bare form)")
	}
	if _, ok := s.data["room2-pnpres"]; ok {
		t.Fatal("room2-pnpres should not land in data set verbatim")
	}
}

func TestSubscriptionSet_SameNameInBothSets(t *testing.T) {
	s := NewSubscriptionSet()
	s.AddChannels([]string{"room1"})
	s.AddPresence([]string{"room1"})

	if len(s.DataChannels()) != 1 || len(s.presence) != 1 {
		t.Fatal("expected room1 present in both data and presence sets")
	}
}

func TestSubscriptionSet_RemoveChannels_RemovesFromBothSets(t *testing.T) {
	s := NewSubscriptionSet()
	s.AddChannels([]string{"room1"})
	s.AddPresence([]string{"room1"})

	s.RemoveChannels([]string{"room1"})

	if !s.Empty() {
		t.Fatalf("expected empty set after removing room1 from both, got %+v", s)
	}
}

func TestSubscriptionSet_WireChannels_ReattachesSuffix(t *testing.T) {
	s := NewSubscriptionSet()
	s.AddChannels([]string{"room1"})
	s.AddPresence([]string{"room2"})

	wire := s.WireChannels()
	if wire != "room1,room2-pnpres" && wire != "room2-pnpres,room1" {
		t.Fatalf("unexpected wire channels: %q", wire)
	}
}

func TestSubscriptionSet_WireChannels_EmptyPlaceholder(t *testing.T) {
	s := NewSubscriptionSet()
	s.AddGroups([]string{"g1"})
	if got := s.WireChannels(); got != "," {
		t.Fatalf("WireChannels() = %q, want \",\"", got)
	}
}

func TestSubscriptionSet_Snapshot_EqualRegardlessOfInsertionOrder(t *testing.T) {
	a := NewSubscriptionSet()
	a.AddChannels([]string{"c1", "c2"})
	a.AddGroups([]string{"g1"})

	b := NewSubscriptionSet()
	b.AddGroups([]string{"g1"})
	b.AddChannels([]string{"c2", "c1"})

	if !a.Snapshot().Equal(b.Snapshot()) {
		t.Fatal("snapshots of identical membership should compare equal regardless of insertion order")
	}
}

func TestSubscriptionSet_Snapshot_DetectsChange(t *testing.T) {
	a := NewSubscriptionSet()
	a.AddChannels([]string{"c1"})
	before := a.Snapshot()

	a.AddChannels([]string{"c2"})
	after := a.Snapshot()

	if before.Equal(after) {
		t.Fatal("snapshots should differ after a membership change")
	}
}

func TestSubscriptionSet_Empty(t *testing.T) {
	s := NewSubscriptionSet()
	if !s.Empty() {
		t.Fatal("new set should be empty")
	}
	s.AddGroups([]string{"g"})
	if s.Empty() {
		t.Fatal("set with a group should not be empty")
	}
}
