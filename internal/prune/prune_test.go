package prune

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sovereignkb/substrate/internal/store"
	"github.com/sovereignkb/substrate/internal/vault"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	v, err := vault.New(nil)
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	s, err := store.Open(filepath.Join(t.TempDir(), "substrate.db"), v, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSweepRemovesOnlyExpiredEvents(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	oldKey := store.EventKey("agent", now.Add(-48*time.Hour).UnixMilli())
	freshKey := store.EventKey("agent", now.UnixMilli())
	if _, err := s.Insert(store.Chronos, oldKey, []byte("old")); err != nil {
		t.Fatalf("Insert old: %v", err)
	}
	if _, err := s.Insert(store.Chronos, freshKey, []byte("fresh")); err != nil {
		t.Fatalf("Insert fresh: %v", err)
	}

	bucket := NewBucket(100, time.Hour)
	defer bucket.Close()

	res, err := Sweep(s, bucket, 24*time.Hour, now, nil)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.RemovedBySlot[store.Chronos.Label()] != 1 {
		t.Fatalf("removed = %d, want 1", res.RemovedBySlot[store.Chronos.Label()])
	}

	if got, _ := s.Get(store.Chronos, oldKey); got != nil {
		t.Fatal("expired event still present")
	}
	if got, _ := s.Get(store.Chronos, freshKey); got == nil {
		t.Fatal("fresh event was removed")
	}
}

func TestSweepRespectsThrottle(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		key := store.EventKey("agent", now.Add(-48*time.Hour).UnixMilli())
		if _, err := s.Insert(store.Chronos, key, []byte("old")); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	bucket := NewBucket(2, time.Hour)
	defer bucket.Close()

	res, err := Sweep(s, bucket, 24*time.Hour, now, nil)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if !res.Throttled {
		t.Fatal("expected sweep to report throttled")
	}
	total := 0
	for _, n := range res.RemovedBySlot {
		total += n
	}
	if total != 2 {
		t.Fatalf("removed = %d, want 2 (bucket capacity)", total)
	}
}

func TestSweepIgnoresFixedKeys(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Insert(store.Soma, store.SomaStateKey, []byte("x")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	bucket := NewBucket(100, time.Hour)
	defer bucket.Close()

	if _, err := Sweep(s, bucket, time.Millisecond, time.Now(), nil); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if got, _ := s.Get(store.Soma, store.SomaStateKey); got == nil {
		t.Fatal("fixed key should never be pruned")
	}
}
