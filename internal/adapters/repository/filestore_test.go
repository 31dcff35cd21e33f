package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...Option) *FileStore {
	t.Helper()
	opts = append([]Option{WithDataDir(t.TempDir())}, opts...)
	s, err := NewFileStore(opts...)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func mustConsider(t *testing.T, s *FileStore, score float64, at time.Time) bool {
	t.Helper()
	image := []byte{0xFF, 0xD8, byte(at.UnixNano()), byte(at.UnixNano() >> 8), 0xFF, 0xD9}
	ok, err := s.Consider(context.Background(), image, score, at)
	if err != nil {
		t.Fatalf("Consider(%v): %v", score, err)
	}
	return ok
}

func TestConsiderOrdering(t *testing.T) {
	s := newTestStore(t)
	base := time.Now()
	scores := []float64{0.3, 0.9, 0.1, 0.7, 0.5}
	for i, score := range scores {
		if !mustConsider(t, s, score, base.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("score %v rejected with boards below capacity", score)
		}
	}

	nice, threat := s.Snapshot(context.Background())
	for i := 1; i < len(threat); i++ {
		if threat[i-1].Score < threat[i].Score {
			t.Fatalf("threat board not descending: %v then %v", threat[i-1].Score, threat[i].Score)
		}
	}
	for i := 1; i < len(nice); i++ {
		if nice[i-1].Score > nice[i].Score {
			t.Fatalf("nice board not ascending: %v then %v", nice[i-1].Score, nice[i].Score)
		}
	}
	if threat[0].Score != 0.9 {
		t.Fatalf("threat leader = %v, want 0.9", threat[0].Score)
	}
	if nice[0].Score != 0.1 {
		t.Fatalf("nice leader = %v, want 0.1", nice[0].Score)
	}
}

func TestConsiderCapacityAndEviction(t *testing.T) {
	s := newTestStore(t, WithSize(5))
	base := time.Now()
	for i, score := range []float64{0.9, 0.8, 0.7, 0.6, 0.5} {
		mustConsider(t, s, score, base.Add(time.Duration(i)*time.Second))
	}

	// A middling score lands on neither full board.
	if mustConsider(t, s, 0.4, base.Add(10*time.Second)) {
		// 0.4 beats 0.5 on the nice side (lower is better there), so this
		// is only a rejection when both boards decline; with these seeds
		// nice accepts it.
		t.Log("accepted by nice board")
	}

	// A top score evicts the threat board's tail.
	if !mustConsider(t, s, 0.95, base.Add(11*time.Second)) {
		t.Fatal("top score rejected")
	}
	_, threat := s.Snapshot(context.Background())
	if len(threat) != 5 {
		t.Fatalf("threat board size = %d, want 5", len(threat))
	}
	if threat[0].Score != 0.95 {
		t.Fatalf("threat leader = %v, want 0.95", threat[0].Score)
	}
	for _, e := range threat {
		if e.Score == 0.5 {
			t.Fatal("evicted tail score still on threat board")
		}
	}
}

func TestConsiderRejectsWhenBothBoardsDecline(t *testing.T) {
	s := newTestStore(t, WithSize(2))
	base := time.Now()
	for i, score := range []float64{0.9, 0.8, 0.2, 0.1} {
		mustConsider(t, s, score, base.Add(time.Duration(i)*time.Second))
	}

	// 0.5 is worse than every threat entry and every nice entry.
	if mustConsider(t, s, 0.5, base.Add(10*time.Second)) {
		t.Fatal("mid score accepted with both boards full of better entries")
	}
}

func TestConsiderEmptyImage(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Consider(context.Background(), nil, 0.5, time.Now()); err == nil {
		t.Fatal("expected error for empty image")
	}
}

func TestRename(t *testing.T) {
	s := newTestStore(t)
	at := time.Now()
	mustConsider(t, s, 0.9, at)

	nice, _ := s.Snapshot(context.Background())
	id := nice[0].ID

	ok, err := s.Rename(context.Background(), id, "Mallory")
	if err != nil || !ok {
		t.Fatalf("Rename = (%v, %v), want (true, nil)", ok, err)
	}

	nice, threat := s.Snapshot(context.Background())
	if nice[0].Name != "Mallory" || threat[0].Name != "Mallory" {
		t.Fatalf("rename not applied to both boards: %q / %q", nice[0].Name, threat[0].Name)
	}
	if nice[0].Score != 0.9 || nice[0].ID != id {
		t.Fatal("rename changed fields other than the name")
	}

	ok, err = s.Rename(context.Background(), "no-such-id", "x")
	if err != nil {
		t.Fatalf("Rename unknown id: %v", err)
	}
	if ok {
		t.Fatal("rename of unknown id reported success")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(WithDataDir(dir))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	base := time.Now()
	for i, score := range []float64{0.9, 0.2, 0.6} {
		mustConsider(t, s, score, base.Add(time.Duration(i)*time.Second))
	}
	nice, threat := s.Snapshot(context.Background())

	reloaded, err := NewFileStore(WithDataDir(dir))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	nice2, threat2 := reloaded.Snapshot(context.Background())

	if len(nice2) != len(nice) || len(threat2) != len(threat) {
		t.Fatalf("reloaded sizes %d/%d, want %d/%d", len(nice2), len(threat2), len(nice), len(threat))
	}
	for i := range nice {
		if nice2[i] != nice[i] {
			t.Fatalf("nice[%d] mismatch after reload: %+v vs %+v", i, nice2[i], nice[i])
		}
	}
	for i := range threat {
		if threat2[i] != threat[i] {
			t.Fatalf("threat[%d] mismatch after reload: %+v vs %+v", i, threat2[i], threat[i])
		}
	}
}

func TestLoadToleratesCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "threat.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(WithDataDir(dir))
	if err != nil {
		t.Fatalf("NewFileStore with corrupt snapshot: %v", err)
	}
	nice, threat := s.Snapshot(context.Background())
	if len(nice) != 0 || len(threat) != 0 {
		t.Fatalf("boards not empty after corrupt load: %d/%d", len(nice), len(threat))
	}
}

func TestSnapshotReturnsCopies(t *testing.T) {
	s := newTestStore(t)
	mustConsider(t, s, 0.9, time.Now())

	nice, _ := s.Snapshot(context.Background())
	nice[0].Name = "mutated"

	fresh, _ := s.Snapshot(context.Background())
	if fresh[0].Name == "mutated" {
		t.Fatal("snapshot shares backing storage with the store")
	}
}

func TestInvalidSize(t *testing.T) {
	if _, err := NewFileStore(WithDataDir(t.TempDir()), WithSize(0)); err == nil {
		t.Fatal("expected error for size 0")
	}
}
