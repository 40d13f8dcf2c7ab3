package leave

import "testing"

func TestReserveCommitRelease(t *testing.T) {
	b := Balance{Allocated: 12}

	Reserve(&b, 5)
	if b.Pending != 5 || b.Used != 0 {
		t.Fatalf("after reserve: pending=%d used=%d", b.Pending, b.Used)
	}
	if Available(b) != 7 {
		t.Fatalf("expected 7 available, got %d", Available(b))
	}

	Commit(&b, 5)
	if b.Pending != 0 || b.Used != 5 {
		t.Fatalf("after commit: pending=%d used=%d", b.Pending, b.Used)
	}
	if Available(b) != 7 {
		t.Fatalf("available must be unchanged by commit, got %d", Available(b))
	}

	Reserve(&b, 3)
	Release(&b, 3)
	if b.Pending != 0 || b.Used != 5 {
		t.Fatalf("release must undo reserve: pending=%d used=%d", b.Pending, b.Used)
	}
}

func TestAvailableMayGoNegative(t *testing.T) {
	b := Balance{Allocated: 2}
	Reserve(&b, 5)
	if Available(b) != -3 {
		t.Fatalf("expected -3 available, got %d", Available(b))
	}
}
