// Package store — keys.go
//
// Key template helpers shared by internal/substrate's typed accessors.
// Every key is a hand-built "<kind>/<scope>/<id>" string
// (event/{agent}/{ts_ms}_{uuid}, relation/{owner}/{target}, etc.); the
// templates here are the single source of truth for those shapes.
package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes name into a lowercase, underscore-joined identifier
// suitable for use as a key path segment. An empty input slugifies to
// "default".
func Slugify(name string) string {
	if name == "" {
		return "default"
	}
	s := slugInvalid.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "default"
	}
	return s
}

// EventKey builds the Chronos key for an episodic event owned by agent at
// tsMillis, disambiguated with a fresh UUID so concurrent appends never
// collide even within the same millisecond.
func EventKey(agent string, tsMillis int64) string {
	return fmt.Sprintf("event/%s/%d_%s", Slugify(agent), tsMillis, uuid.NewString())
}

// InboxKey builds the Soma key for an inbound agent message.
func InboxKey(agent string, tsMillis int64) string {
	return fmt.Sprintf("inbox/%s/%d_%s", Slugify(agent), tsMillis, uuid.NewString())
}

// PolicyKey is the fixed Ethos key for the single active policy record.
const PolicyKey = "policy/default"

// EthosCurrentKey is the fixed Ethos key for the composed current-ethos view.
const EthosCurrentKey = "ethos/current"

// RelationKey builds the Kardia key describing owner's relation to target.
func RelationKey(owner, target string) string {
	return fmt.Sprintf("relation/%s/%s", Slugify(owner), Slugify(target))
}

// PersonKey builds the Kardia key for a known person's record.
func PersonKey(name string) string {
	return fmt.Sprintf("people/%s", Slugify(name))
}

// MentalStateKey is the fixed Kardia key for the current mental-state record.
const MentalStateKey = "mental_state/current"

// BiometricKey is the fixed Soma key for the current biometric record.
const BiometricKey = "biometric/current"

// SomaStateKey is the fixed Soma key for the composed current soma view.
const SomaStateKey = "soma/current"

// GovernedTaskKey builds the Oikos key for a single governed task.
func GovernedTaskKey(taskID string) string {
	return fmt.Sprintf("oikos/tasks/%s", Slugify(taskID))
}

// GovernanceSummaryKey is the fixed Oikos key for the governor's narrative
// summary of its most recent evaluation pass.
const GovernanceSummaryKey = "oikos/governance/summary"

// AnchorKey builds the Shadow key for an emotional anchor identified by a
// human-chosen label.
func AnchorKey(label string) string {
	return fmt.Sprintf("anchor/%s", Slugify(label))
}

// SkillKey builds the Techne key for a registered skill manifest. Prefix
// matches list_skills' documented "skills/" scan filter.
func SkillKey(skillID string) string {
	return fmt.Sprintf("skills/%s", Slugify(skillID))
}
