// Package snapshot implements the Sovereign Snapshot:
// get_full_sovereign_state, a pure multi-read aggregation over the
// substrate consumed by the outer prompt/chat/orchestrator layers. No
// partition is ever mutated while assembling a Snapshot.
package snapshot

import (
	"fmt"

	"github.com/sovereignkb/substrate/internal/derive"
	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
	"github.com/sovereignkb/substrate/internal/substrate"
)

// Snapshot is the Sovereign Snapshot: everything an outer collaborator
// needs to render a prompt, route a message, or display substrate health,
// assembled from a single read pass.
type Snapshot struct {
	Status            []store.Status         `json:"status"`
	Soma              records.SomaState      `json:"soma"`
	BioGateActive     bool                   `json:"bio_gate_active"`
	Policy            *records.EthosPolicy   `json:"policy,omitempty"`
	MentalState       records.MentalState    `json:"mental_state"`
	People            []records.PersonRecord `json:"people"`
	GovernanceSummary string                 `json:"governance_summary,omitempty"`
	GovernedTasks     []records.GovernedTask `json:"governed_tasks"`
	ShadowUnlocked    bool                   `json:"shadow_unlocked"`
}

// GetFullSovereignState performs the pure aggregation read. Every derived
// boolean (BioGateActive, ShadowUnlocked) is computed from the same reads
// used to populate the rest of the snapshot, so the result is internally
// consistent even though there is no cross-partition transaction backing
// it (a concurrent writer may still interleave between reads; there is no
// cross-partition transaction, and the snapshot does not retry to hide
// that).
func GetFullSovereignState(sub *substrate.Substrate) (Snapshot, error) {
	var snap Snapshot

	snap.Status = sub.Store.Status()

	soma, err := sub.GetSomaState()
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: load soma state: %w", err)
	}
	snap.Soma = soma
	snap.BioGateActive = derive.BioGateActive(soma)

	if policy, ok, err := sub.GetCurrentEthos(); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: load ethos policy: %w", err)
	} else if ok {
		snap.Policy = &policy
	}

	mental, err := derive.EffectiveMentalState(sub)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: derive mental state: %w", err)
	}
	snap.MentalState = mental

	people, err := sub.ListPeople()
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: list people: %w", err)
	}
	snap.People = people

	if summary, ok, err := sub.GetGovernanceSummary(); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: load governance summary: %w", err)
	} else if ok {
		snap.GovernanceSummary = summary
	}

	tasks, err := sub.ListTasks()
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: list tasks: %w", err)
	}
	snap.GovernedTasks = tasks

	snap.ShadowUnlocked = sub.Store.IsShadowUnlocked()

	return snap, nil
}
