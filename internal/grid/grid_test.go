package grid

import "testing"

func TestClaimFirstWins(t *testing.T) {
	g := New(4)
	owner, claimed := g.Claim(Cell{1, 1}, 1)
	if owner != 1 || !claimed {
		t.Fatalf("first claim: owner=%d claimed=%v, want 1/true", owner, claimed)
	}
	owner, claimed = g.Claim(Cell{1, 1}, 2)
	if owner != 1 || claimed {
		t.Fatalf("second claim: owner=%d claimed=%v, want 1/false", owner, claimed)
	}
	if g.Owner(Cell{1, 1}) != 1 {
		t.Fatalf("stored owner = %d, want 1", g.Owner(Cell{1, 1}))
	}
}

func TestClaimOutOfBounds(t *testing.T) {
	g := New(4)
	owner, claimed := g.Claim(Cell{-1, 0}, 1)
	if claimed || owner != 0 {
		t.Errorf("out-of-bounds claim should be a no-op, got owner=%d claimed=%v", owner, claimed)
	}
}

func TestFullyClaimed(t *testing.T) {
	g := New(2)
	if g.FullyClaimed() {
		t.Fatal("empty grid reported fully claimed")
	}
	g.Claim(Cell{0, 0}, 1)
	g.Claim(Cell{0, 1}, 1)
	g.Claim(Cell{1, 0}, 1)
	if g.FullyClaimed() {
		t.Fatal("grid missing one cell reported fully claimed")
	}
	g.Claim(Cell{1, 1}, 2)
	if !g.FullyClaimed() {
		t.Fatal("fully claimed grid not detected")
	}
}

func TestOwnerCounts(t *testing.T) {
	g := New(2)
	g.Claim(Cell{0, 0}, 1)
	g.Claim(Cell{0, 1}, 1)
	g.Claim(Cell{1, 0}, 2)
	counts := g.OwnerCounts()
	if counts[1] != 2 || counts[2] != 1 {
		t.Errorf("counts = %+v, want {1:2, 2:1}", counts)
	}
}

func TestResetReplacesContents(t *testing.T) {
	g := New(2)
	g.Claim(Cell{0, 0}, 1)
	g.Reset(nil)
	if g.Owner(Cell{0, 0}) != 0 {
		t.Error("Reset(nil) should clear all cells")
	}
}
