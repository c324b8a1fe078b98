package substrate

import (
	"sort"
	"strings"

	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
)

// PutSkill registers or updates a skill manifest under Techne.
func (s *Substrate) PutSkill(rec records.SkillRecord) error {
	key := store.SkillKey(rec.Slug)
	raw, err := marshalOrWrap(key, rec)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Techne, key, raw)
	return err
}

// GetSkill retrieves a skill manifest by slug.
func (s *Substrate) GetSkill(slug string) (records.SkillRecord, bool, error) {
	key := store.SkillKey(slug)
	raw, err := s.Store.Get(store.Techne, key)
	if err != nil {
		return records.SkillRecord{}, false, err
	}
	if raw == nil {
		return records.SkillRecord{}, false, nil
	}
	var rec records.SkillRecord
	if err := unmarshalOrWrap(key, raw, &rec); err != nil {
		return records.SkillRecord{}, false, err
	}
	return rec, true, nil
}

// ListSkills scans partition 5 filtered by the "skills/" prefix, sorted by
// slug ascending.
func (s *Substrate) ListSkills() ([]records.SkillRecord, error) {
	kvs, err := s.Store.ScanKV(store.Techne)
	if err != nil {
		return nil, err
	}
	out := make([]records.SkillRecord, 0, len(kvs))
	for _, kv := range kvs {
		if !strings.HasPrefix(kv.Key, "skills/") {
			continue
		}
		var rec records.SkillRecord
		if err := unmarshalOrWrap(kv.Key, kv.Value, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
