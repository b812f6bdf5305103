package memory

import "slices"

type Step struct {
	Step     int            `json:"step"`
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SortSteps orders a trajectory by step index. Steps sharing an index keep
// their submitted order.
func SortSteps(steps []Step) []Step {
	sorted := slices.Clone(steps)
	slices.SortStableFunc(sorted, func(a, b Step) int {
		return a.Step - b.Step
	})
	return sorted
}

