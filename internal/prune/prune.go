package prune

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sovereignkb/substrate/internal/store"
)

// expirableSlots lists the partitions whose keys embed a {ts_ms} segment
// recoverable by timestampFromKey (event/{agent}/{ts_ms}_{uuid},
// inbox/{agent}/{ts_ms}_{uuid}).
var expirableSlots = []store.Slot{store.Chronos, store.Soma}

// Result summarizes one sweep's outcome.
type Result struct {
	// RemovedBySlot counts entries removed, keyed by partition label.
	RemovedBySlot map[string]int

	// Throttled is true if the sweep stopped early because the token
	// bucket ran out for this period; a subsequent Sweep call will resume.
	Throttled bool
}

// Sweep removes entries older than retention from every expirable
// partition, consuming one bucket token per removal. Returns early
// (Throttled=true) once the bucket empties rather than blocking for a
// refill; callers needing a complete sweep call Sweep again after the
// refill period elapses. Only the key's embedded timestamp is inspected,
// never the stored value.
func Sweep(s *store.Store, bucket *Bucket, retention time.Duration, now time.Time, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	res := Result{RemovedBySlot: make(map[string]int)}
	cutoff := now.Add(-retention).UnixMilli()

	for _, slot := range expirableSlots {
		keys, err := s.ScanKeys(slot)
		if err != nil {
			return res, fmt.Errorf("prune: scan %s: %w", slot.Label(), err)
		}
		for _, key := range keys {
			ts, ok := timestampFromKey(key)
			if !ok || ts >= cutoff {
				continue
			}
			if !bucket.Consume() {
				res.Throttled = true
				log.Info("prune: sweep throttled, resuming next period",
					zap.String("slot", slot.Label()), zap.Int("removed_so_far", res.RemovedBySlot[slot.Label()]))
				return res, nil
			}
			if _, err := s.Remove(slot, key); err != nil {
				return res, fmt.Errorf("prune: remove %s/%s: %w", slot.Label(), key, err)
			}
			res.RemovedBySlot[slot.Label()]++
		}
	}
	return res, nil
}

// timestampFromKey extracts the {ts_ms} segment from a key of the form
// "<prefix>/<agent>/<ts_ms>_<uuid>". Returns ok=false for keys that do not
// match this shape (e.g. fixed keys like "soma/current", "__meta__").
func timestampFromKey(key string) (int64, bool) {
	parts := strings.Split(key, "/")
	last := parts[len(parts)-1]
	us := strings.SplitN(last, "_", 2)
	if len(us) == 0 {
		return 0, false
	}
	ts, err := strconv.ParseInt(us[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
