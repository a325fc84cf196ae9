package live

import "testing"

func TestSequencerDiscardsSuperseded(t *testing.T) {
	s := NewSequencer()
	old := s.Begin("600519/intraday")
	cur := s.Begin("600519/intraday")

	var applied []uint64
	if !s.Commit(cur, func() { applied = append(applied, cur.Seq) }) {
		t.Error("latest ticket should commit")
	}
	if s.Commit(old, func() { applied = append(applied, old.Seq) }) {
		t.Error("superseded ticket should not commit")
	}
	if len(applied) != 1 || applied[0] != cur.Seq {
		t.Errorf("applied = %v, want [%d]", applied, cur.Seq)
	}
	if got := s.Stale(); got != 1 {
		t.Errorf("Stale = %d, want 1", got)
	}
}

func TestSequencerKeysIndependent(t *testing.T) {
	s := NewSequencer()
	a := s.Begin("a")
	b := s.Begin("b")
	if !s.Current(a) || !s.Current(b) {
		t.Error("tickets of different keys should both be current")
	}
	if b.Seq <= a.Seq {
		t.Errorf("seq not monotonic: %d then %d", a.Seq, b.Seq)
	}
	if !s.Commit(a, nil) {
		t.Error("Commit(a) = false, want true")
	}
}
