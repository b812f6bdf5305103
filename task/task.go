package task

import (
	"slices"
	"time"
)

type State string

const (
	StateSubmitted  State = "submitted"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

type Task struct {
	Id          string    `json:"task_id"`
	State       State     `json:"state"`
	AgentId     string    `json:"agent_id,omitempty"`
	MemoryIds   []string  `json:"memory_ids,omitempty"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
}

func (t Task) clone() Task {
	t.MemoryIds = slices.Clone(t.MemoryIds)
	return t
}
