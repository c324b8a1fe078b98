package substrate

import (
	"sort"
	"strings"

	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
)

// AppendEvent writes event under agent's Chronos stream. An empty agent
// normalizes to "default" (store.Slugify handles this); the key template
// guarantees unique ordering by (timestamp_ms, uuid) even for events
// appended within the same millisecond.
func (s *Substrate) AppendEvent(agent string, event records.EventRecord) error {
	key := store.EventKey(agent, event.TimestampMs)
	raw, err := marshalOrWrap(key, event)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Chronos, key, raw)
	return err
}

// RecentEvents scans Chronos for agent's events, sorts by timestamp_ms
// descending, and truncates to limit. Scan order is never relied upon;
// ordering is always imposed here after the fact.
func (s *Substrate) RecentEvents(agent string, limit int) ([]records.EventRecord, error) {
	prefix := "event/" + store.Slugify(agent) + "/"
	kvs, err := s.Store.ScanKV(store.Chronos)
	if err != nil {
		return nil, err
	}
	events := make([]records.EventRecord, 0, len(kvs))
	for _, kv := range kvs {
		if !strings.HasPrefix(kv.Key, prefix) {
			continue
		}
		var ev records.EventRecord
		if err := unmarshalOrWrap(kv.Key, kv.Value, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].TimestampMs > events[j].TimestampMs })
	if limit >= 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
