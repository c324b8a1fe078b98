package records

// Difficulty classifies a GovernedTask for the monotonicity rules enforced
// by the task governor.
type Difficulty string

const (
	DifficultyEasy Difficulty = "easy"
	DifficultyHard Difficulty = "hard"
)

// GovernedTask (Oikos) is a task subject to governor re-evaluation.
type GovernedTask struct {
	TaskID            string     `json:"task_id"`
	BasePriority      float64    `json:"base_priority"`
	Difficulty        Difficulty `json:"difficulty"`
	EffectivePriority float64    `json:"effective_priority"`
}
