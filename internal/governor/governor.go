// Package governor implements the Task Governor: it re-evaluates
// GovernedTask.EffectivePriority against the current cross-layer state and
// persists the result.
//
// The multiplier is a small weighted composite over difficulty,
// grace_multiplier, and burnout_risk, with defaults supplied by a
// Default*() constructor. Monotonicity in grace and burnout holds for any
// non-negative weight configuration (see Weights).
package governor

import (
	"fmt"
	"sort"

	"github.com/sovereignkb/substrate/internal/audit"
	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/store"
	"github.com/sovereignkb/substrate/internal/substrate"
)

// Weights controls how strongly grace and burnout influence the
// multiplier applied to hard tasks. Easy tasks are rewarded by grace
// directly (never penalized by burnout), preserving the governor's three
// monotonicity invariants regardless of weight configuration:
//
//   - Higher grace_multiplier never raises a hard task's priority.
//   - Higher burnout_risk never raises a hard task's priority.
//   - An easy task's priority is never reduced by high grace.
type Weights struct {
	BurnoutPenalty float64 // scales how much burnout_risk depresses hard-task priority
	MinHardFactor  float64 // floor below which the hard-task multiplier never falls
}

// DefaultWeights returns the governor's default weight configuration.
func DefaultWeights() Weights {
	return Weights{BurnoutPenalty: 0.5, MinHardFactor: 0.1}
}

// Multiplier computes the scalar applied to a task's base_priority, given
// its difficulty and the current effective mental state. The philosophical
// policy may scale the result further via an optional named weight in its
// payload ("task_weight_easy" / "task_weight_hard"), defaulting to 1.0.
func Multiplier(difficulty records.Difficulty, mental records.MentalState, policy records.EthosPolicy, w Weights) float64 {
	grace := mental.GraceMultiplier
	if grace < 1.0 {
		grace = 1.0
	}

	var base float64
	var policyKey string
	switch difficulty {
	case records.DifficultyHard:
		base = 1.0 / grace * (1.0 - w.BurnoutPenalty*mental.BurnoutRisk)
		if base < w.MinHardFactor {
			base = w.MinHardFactor
		}
		policyKey = "task_weight_hard"
	default: // easy, and any unrecognized difficulty treated as easy
		base = grace
		policyKey = "task_weight_easy"
	}

	if policy.Payload != nil {
		if raw, ok := policy.Payload[policyKey]; ok {
			if f, ok := toFloat(raw); ok && f > 0 {
				base *= f
			}
		}
	}
	return base
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Governor captures an immutable view of the cross-layer state needed to
// evaluate governed tasks, per create_task_governor(agent_id).
type Governor struct {
	sub     *substrate.Substrate
	mental  records.MentalState
	policy  records.EthosPolicy
	weights Weights
}

// New captures the governor's immutable view: effective mental state and
// philosophical policy, read once at construction.
func New(sub *substrate.Substrate, mental records.MentalState, policy records.EthosPolicy, w Weights) *Governor {
	return &Governor{sub: sub, mental: mental, policy: policy, weights: w}
}

// EvaluateAndPersist lists all governed tasks, recomputes each task's
// effective_priority, writes each task back, writes a textual governance
// summary, and returns the tasks sorted by effective_priority descending
// (ties broken by task id ascending).
func (g *Governor) EvaluateAndPersist() ([]records.GovernedTask, error) {
	tasks, err := g.sub.ListTasks()
	if err != nil {
		return nil, fmt.Errorf("governor: list tasks: %w", err)
	}

	for i := range tasks {
		mult := Multiplier(tasks[i].Difficulty, g.mental, g.policy, g.weights)
		tasks[i].EffectivePriority = tasks[i].BasePriority * mult
		if err := g.sub.PutTask(tasks[i]); err != nil {
			return nil, fmt.Errorf("governor: persist task %q: %w", tasks[i].TaskID, err)
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].EffectivePriority != tasks[j].EffectivePriority {
			return tasks[i].EffectivePriority > tasks[j].EffectivePriority
		}
		return tasks[i].TaskID < tasks[j].TaskID
	})

	summary := Summarize(tasks, g.mental)
	if _, err := g.sub.Store.Insert(store.Oikos, store.GovernanceSummaryKey, []byte(summary)); err != nil {
		return nil, fmt.Errorf("governor: write summary: %w", err)
	}

	if g.sub.Audit != nil {
		if _, err := g.sub.Audit.Record(audit.KindGovernanceEvaluation, "task_governor", summary, clamp01(g.mental.BurnoutRisk), nil); err != nil {
			return nil, fmt.Errorf("governor: record audit decision: %w", err)
		}
	}
	return tasks, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Summarize renders a short human-readable governance report.
func Summarize(tasks []records.GovernedTask, mental records.MentalState) string {
	if len(tasks) == 0 {
		return fmt.Sprintf("governance pass: no tasks (burnout_risk=%.2f grace=%.2f)", mental.BurnoutRisk, mental.GraceMultiplier)
	}
	return fmt.Sprintf("governance pass: %d task(s) evaluated, top=%q (%.3f), burnout_risk=%.2f grace=%.2f",
		len(tasks), tasks[0].TaskID, tasks[0].EffectivePriority, mental.BurnoutRisk, mental.GraceMultiplier)
}
