package subscribe

import "testing"

func TestCursor_BeginInitial_MovesCurrentToLast(t *testing.T) {
	c := NewCursor()
	c.Current, c.CurrentRegion = 42, 2

	c.BeginInitial(0, false)

	if c.Current != 0 || c.CurrentRegion != RegionUnset {
		t.Fatalf("current = (%d, %d), want (0, %d)", c.Current, c.CurrentRegion, RegionUnset)
	}
	if c.Last != 42 || c.LastRegion != 2 {
		t.Fatalf("last = (%d, %d), want (42, 2)", c.Last, c.LastRegion)
	}
}

func TestCursor_BeginInitial_RemembersOverride(t *testing.T) {
	c := NewCursor()
	c.BeginInitial(60, true)

	if !c.HasOverride || c.Override != 60 {
		t.Fatalf("override = (%v, %d), want (true, 60)", c.HasOverride, c.Override)
	}
}

func TestCursor_Accept_PlainSuccess(t *testing.T) {
	c := NewCursor()
	if ok := c.Accept(100, 3, true, false, false, false); !ok {
		t.Fatal("Accept returned false for initial response")
	}
	if c.Current != 100 || c.CurrentRegion != 3 {
		t.Fatalf("current = (%d, %d), want (100, 3)", c.Current, c.CurrentRegion)
	}
}

func TestCursor_Accept_StaleNonInitialIgnored(t *testing.T) {
	c := NewCursor()
	if ok := c.Accept(100, 3, false, false, false, false); ok {
		t.Fatal("Accept should report false for a non-initial response while current is still zero")
	}
	if c.Current != 0 {
		t.Fatalf("current = %d, want unchanged 0", c.Current)
	}
}

func TestCursor_Accept_KeepOnListChangeReusesLast(t *testing.T) {
	c := NewCursor()
	c.Accept(50, 1, true, false, false, false)
	c.BeginInitial(0, false) // simulate a list-change re-registration

	ok := c.Accept(999, 9, true, true, false, false)
	if !ok {
		t.Fatal("Accept returned false")
	}
	if c.Current != 50 {
		t.Fatalf("current = %d, want reused last 50 (response token 999 ignored)", c.Current)
	}
	if c.Last != 0 {
		t.Fatalf("last = %d, want cleared", c.Last)
	}
}

func TestCursor_Accept_OverrideSupersedesReuse(t *testing.T) {
	c := NewCursor()
	c.Accept(50, 1, true, false, false, false)
	c.BeginInitial(60, true)

	c.Accept(999, 9, true, true, false, false)
	if c.Current != 60 {
		t.Fatalf("current = %d, want override 60", c.Current)
	}
}

func TestCursor_Reset(t *testing.T) {
	c := NewCursor()
	c.Accept(1, 1, true, false, false, false)
	c.Reset()
	if c.Current != 0 || c.Last != 0 || c.HasOverride {
		t.Fatalf("cursor not fully reset: %+v", c)
	}
}
