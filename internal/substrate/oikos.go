package substrate

import (
	"sort"
	"strings"

	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
)

// PutTask upserts a governed task at its canonical Oikos key.
func (s *Substrate) PutTask(task records.GovernedTask) error {
	key := store.GovernedTaskKey(task.TaskID)
	raw, err := marshalOrWrap(key, task)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(store.Oikos, key, raw)
	return err
}

// GetTask retrieves a governed task by id.
func (s *Substrate) GetTask(taskID string) (records.GovernedTask, bool, error) {
	key := store.GovernedTaskKey(taskID)
	raw, err := s.Store.Get(store.Oikos, key)
	if err != nil {
		return records.GovernedTask{}, false, err
	}
	if raw == nil {
		return records.GovernedTask{}, false, nil
	}
	var task records.GovernedTask
	if err := unmarshalOrWrap(key, raw, &task); err != nil {
		return records.GovernedTask{}, false, err
	}
	return task, true, nil
}

// ListTasks scans Oikos filtered by the "oikos/tasks/" prefix, sorted by
// effective_priority descending.
func (s *Substrate) ListTasks() ([]records.GovernedTask, error) {
	kvs, err := s.Store.ScanKV(store.Oikos)
	if err != nil {
		return nil, err
	}
	out := make([]records.GovernedTask, 0, len(kvs))
	for _, kv := range kvs {
		if !strings.HasPrefix(kv.Key, "oikos/tasks/") {
			continue
		}
		var task records.GovernedTask
		if err := unmarshalOrWrap(kv.Key, kv.Value, &task); err != nil {
			continue
		}
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectivePriority > out[j].EffectivePriority })
	return out, nil
}

// GetGovernanceSummary retrieves the most recent governance report text, if
// any evaluation pass has run.
func (s *Substrate) GetGovernanceSummary() (string, bool, error) {
	raw, err := s.Store.Get(store.Oikos, store.GovernanceSummaryKey)
	if err != nil {
		return "", false, err
	}
	if raw == nil {
		return "", false, nil
	}
	return string(raw), true, nil
}
