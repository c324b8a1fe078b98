package substrate

import (
	"strings"

	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
)

// PutKnowledge stores a distilled-knowledge KbRecord under Logos.
func (s *Substrate) PutKnowledge(rec records.KbRecord) error {
	raw, err := marshalOrWrap(rec.ID, rec)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Logos, "kb/"+rec.ID, raw)
	return err
}

// GetKnowledge retrieves a distilled-knowledge record by id.
func (s *Substrate) GetKnowledge(id string) (records.KbRecord, bool, error) {
	key := "kb/" + id
	raw, err := s.Store.Get(store.Logos, key)
	if err != nil {
		return records.KbRecord{}, false, err
	}
	if raw == nil {
		return records.KbRecord{}, false, nil
	}
	var rec records.KbRecord
	if err := unmarshalOrWrap(key, raw, &rec); err != nil {
		return records.KbRecord{}, false, err
	}
	return rec, true, nil
}

// ListKnowledge scans all Logos records, skipping unparseable entries
// rather than failing the whole call (list helpers prefer partial
// observability over opacity).
func (s *Substrate) ListKnowledge() ([]records.KbRecord, error) {
	kvs, err := s.Store.ScanKV(store.Logos)
	if err != nil {
		return nil, err
	}
	out := make([]records.KbRecord, 0, len(kvs))
	for _, kv := range kvs {
		if !strings.HasPrefix(kv.Key, "kb/") {
			continue
		}
		var rec records.KbRecord
		if err := unmarshalOrWrap(kv.Key, kv.Value, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
