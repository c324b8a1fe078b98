package substrate

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
	"github.com/sovereignkb/substrate/internal/vault"
)

func newTestSubstrate(t *testing.T, masterKey []byte) *Substrate {
	t.Helper()
	v, err := vault.New(masterKey)
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	s, err := store.Open(filepath.Join(t.TempDir(), "substrate.db"), v, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s, nil)
}

func testKey32() []byte {
	k := make([]byte, vault.KeySize)
	for i := range k {
		k[i] = byte(i + 1)
	}
	return k
}

func TestRecentEventsNewestFirst(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	for _, ts := range []int64{100, 200, 150} {
		if err := sub.AppendEvent("A1", records.EventRecord{TimestampMs: ts, Source: "test", Reflection: "r"}); err != nil {
			t.Fatalf("AppendEvent(ts=%d): %v", ts, err)
		}
	}

	events, err := sub.RecentEvents("A1", 2)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].TimestampMs != 200 || events[1].TimestampMs != 150 {
		t.Fatalf("events out of order: got ts %d, %d; want 200, 150", events[0].TimestampMs, events[1].TimestampMs)
	}
}

func TestRecentEventsEmptyAgentNormalizesToDefault(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	if err := sub.AppendEvent("", records.EventRecord{TimestampMs: 42, Source: "test", Reflection: "r"}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	events, err := sub.RecentEvents("default", 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 1 || events[0].TimestampMs != 42 {
		t.Fatalf("event appended under empty agent not visible under \"default\": %+v", events)
	}
}

func TestRecentEventsScopedPerAgent(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	if err := sub.AppendEvent("alice", records.EventRecord{TimestampMs: 1, Source: "a", Reflection: "ra"}); err != nil {
		t.Fatalf("AppendEvent alice: %v", err)
	}
	if err := sub.AppendEvent("bob", records.EventRecord{TimestampMs: 2, Source: "b", Reflection: "rb"}); err != nil {
		t.Fatalf("AppendEvent bob: %v", err)
	}
	events, err := sub.RecentEvents("alice", 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 1 || events[0].Source != "a" {
		t.Fatalf("alice's stream leaked other agents' events: %+v", events)
	}
}

func TestSetRelationClampsTrust(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	for _, tc := range []struct {
		in   float64
		want float64
	}{
		{1.7, 1.0},
		{-0.5, 0.0},
		{0.4, 0.4},
	} {
		rec := records.RelationRecord{TargetID: "bob", TrustScore: tc.in}
		if err := sub.SetRelation("alice", rec); err != nil {
			t.Fatalf("SetRelation(%f): %v", tc.in, err)
		}
		got, ok, err := sub.GetRelation("alice", "bob")
		if err != nil || !ok {
			t.Fatalf("GetRelation: ok=%v err=%v", ok, err)
		}
		if got.TrustScore != tc.want {
			t.Fatalf("trust after SetRelation(%f) = %f, want %f", tc.in, got.TrustScore, tc.want)
		}
	}
}

func TestAdjustTrustSmoothsTowardSignal(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	seed := records.RelationRecord{TargetID: "bob", TrustScore: 0.5}
	if err := sub.SetRelation("alice", seed); err != nil {
		t.Fatalf("SetRelation: %v", err)
	}

	rec, err := sub.AdjustTrust("alice", "bob", 1.0, 0.8, 1234)
	if err != nil {
		t.Fatalf("AdjustTrust: %v", err)
	}
	// One step from 0.5 toward 1.0 with alpha=0.8: 0.8*0.5 + 0.2*1.0 = 0.6.
	if rec.TrustScore < 0.59 || rec.TrustScore > 0.61 {
		t.Fatalf("smoothed trust = %f, want ~0.6", rec.TrustScore)
	}
	if rec.TrustScore > 1.0 || rec.TrustScore < 0.0 {
		t.Fatalf("trust escaped [0,1]: %f", rec.TrustScore)
	}
}

func TestListPeopleSortedByName(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	for _, name := range []string{"Charlie", "alice", "Bob Smith"} {
		if err := sub.UpsertPerson(records.PersonRecord{Name: name}); err != nil {
			t.Fatalf("UpsertPerson(%q): %v", name, err)
		}
	}
	people, err := sub.ListPeople()
	if err != nil {
		t.Fatalf("ListPeople: %v", err)
	}
	if len(people) != 3 {
		t.Fatalf("len(people) = %d, want 3", len(people))
	}
	for i := 1; i < len(people); i++ {
		if people[i-1].Name > people[i].Name {
			t.Fatalf("people not sorted by name: %q before %q", people[i-1].Name, people[i].Name)
		}
	}
	if people[0].Slug == "" {
		t.Fatal("person slug not derived on upsert")
	}
}

func TestListTasksSortedByEffectivePriority(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	tasks := []records.GovernedTask{
		{TaskID: "low", BasePriority: 1, EffectivePriority: 0.3},
		{TaskID: "high", BasePriority: 1, EffectivePriority: 2.1},
		{TaskID: "mid", BasePriority: 1, EffectivePriority: 1.0},
	}
	for _, task := range tasks {
		if err := sub.PutTask(task); err != nil {
			t.Fatalf("PutTask(%q): %v", task.TaskID, err)
		}
	}
	got, err := sub.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(tasks) = %d, want 3", len(got))
	}
	if got[0].TaskID != "high" || got[1].TaskID != "mid" || got[2].TaskID != "low" {
		t.Fatalf("tasks out of order: %q, %q, %q", got[0].TaskID, got[1].TaskID, got[2].TaskID)
	}
}

func TestListSkillsSortedBySlug(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	for _, slug := range []string{"write_file", "browse", "recall"} {
		if err := sub.PutSkill(records.SkillRecord{Slug: slug, Description: "d"}); err != nil {
			t.Fatalf("PutSkill(%q): %v", slug, err)
		}
	}
	skills, err := sub.ListSkills()
	if err != nil {
		t.Fatalf("ListSkills: %v", err)
	}
	if len(skills) != 3 {
		t.Fatalf("len(skills) = %d, want 3", len(skills))
	}
	for i := 1; i < len(skills); i++ {
		if skills[i-1].Slug > skills[i].Slug {
			t.Fatalf("skills not sorted: %q before %q", skills[i-1].Slug, skills[i].Slug)
		}
	}
}

func TestInboxPushListAck(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	msg, err := sub.PushAgentMessage("planner", "executor", map[string]any{"goal": "tidy"})
	if err != nil {
		t.Fatalf("PushAgentMessage: %v", err)
	}
	if msg.IsProcessed {
		t.Fatal("new message must start unprocessed")
	}

	keyed, err := sub.GetMessagesWithKeys("executor", 10)
	if err != nil {
		t.Fatalf("GetMessagesWithKeys: %v", err)
	}
	if len(keyed) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(keyed))
	}
	if keyed[0].Message.ID != msg.ID {
		t.Fatalf("message id mismatch: %q vs %q", keyed[0].Message.ID, msg.ID)
	}

	if err := sub.AckMessage(keyed[0].Key); err != nil {
		t.Fatalf("AckMessage: %v", err)
	}
	keyed, err = sub.GetMessagesWithKeys("executor", 10)
	if err != nil {
		t.Fatalf("GetMessagesWithKeys after ack: %v", err)
	}
	if !keyed[0].Message.IsProcessed {
		t.Fatal("ACK did not mark the message processed")
	}
}

func TestShadowAnchorRoundTripWithKey(t *testing.T) {
	sub := newTestSubstrate(t, testKey32())
	anchor := records.EmotionalAnchor{Type: "grief", Intensity: 0.8, Active: true, Content: "private"}
	if err := sub.InsertShadowAnchor("grief", anchor); err != nil {
		t.Fatalf("InsertShadowAnchor: %v", err)
	}

	got, ok, err := sub.GetShadowDecrypted("grief")
	if err != nil || !ok {
		t.Fatalf("GetShadowDecrypted: ok=%v err=%v", ok, err)
	}
	if got.Type != "grief" || got.Intensity != 0.8 || !got.Active {
		t.Fatalf("anchor mismatch after round trip: %+v", got)
	}

	active, err := sub.GetActiveShadowAnchors()
	if err != nil {
		t.Fatalf("GetActiveShadowAnchors: %v", err)
	}
	if len(active) != 1 || active[0].Type != "grief" {
		t.Fatalf("active anchors = %+v, want exactly the grief anchor", active)
	}

	// Raw read must return ciphertext, not the JSON plaintext.
	raw, ok, err := sub.GetShadowAnchor("grief")
	if err != nil || !ok {
		t.Fatalf("GetShadowAnchor: ok=%v err=%v", ok, err)
	}
	if bytes.Contains(raw, []byte("grief")) {
		t.Fatal("raw shadow read contains plaintext, want ciphertext")
	}
}

func TestShadowLockedBehaviors(t *testing.T) {
	sub := newTestSubstrate(t, nil)

	err := sub.InsertShadowAnchor("grief", records.EmotionalAnchor{Type: "grief", Intensity: 0.9, Active: true})
	if err != store.ErrShadowLocked {
		t.Fatalf("InsertShadowAnchor error = %v, want store.ErrShadowLocked", err)
	}

	if _, _, err := sub.GetShadowDecrypted("grief"); err != store.ErrShadowLocked {
		t.Fatalf("GetShadowDecrypted error = %v, want store.ErrShadowLocked", err)
	}

	active, err := sub.GetActiveShadowAnchors()
	if err != nil {
		t.Fatalf("GetActiveShadowAnchors: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active anchors while locked = %d, want 0", len(active))
	}
}

func TestListSkipsUnparseableEntries(t *testing.T) {
	sub := newTestSubstrate(t, nil)
	if err := sub.PutSkill(records.SkillRecord{Slug: "good", Description: "d"}); err != nil {
		t.Fatalf("PutSkill: %v", err)
	}
	if _, err := sub.Store.Insert(store.Techne, "skills/broken", []byte("not-json")); err != nil {
		t.Fatalf("Insert raw: %v", err)
	}
	skills, err := sub.ListSkills()
	if err != nil {
		t.Fatalf("ListSkills: %v", err)
	}
	if len(skills) != 1 || skills[0].Slug != "good" {
		t.Fatalf("expected the broken entry to be skipped, got %+v", skills)
	}
}
