package engine

import (
	"time"

	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/task"
)

const (
	StatusSuccess    = "success"
	StatusNoMemories = "no_memories"
	StatusProcessing = "processing"
	StatusError      = "error"
)

type RetrieveRequest struct {
	Query string
	// TopK falls back to the configured default when nil.
	TopK    *int
	AgentId string
	// MinScore overrides the configured minimum score when set.
	MinScore *float64
}

type RetrievedMemory struct {
	Id          string    `json:"id"`
	Score       float64   `json:"score"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content"`
	Success     bool      `json:"success"`
	Confidence  float64   `json:"confidence"`
	AgentId     string    `json:"agent_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type RetrieveResponse struct {
	Status          string            `json:"status"`
	Memories        []RetrievedMemory `json:"memories"`
	FormattedPrompt string            `json:"formatted_prompt"`
	Strategy        string            `json:"strategy"`
	Skipped         int               `json:"skipped_count"`
	Filtered        int               `json:"filtered_count"`
	Message         string            `json:"message,omitempty"`
}

type ExtractRequest struct {
	Trajectory    []memory.Step
	Query         string
	SuccessSignal *bool
	AgentId       string
	Async         bool
}

type ExtractResponse struct {
	Status string `json:"status"`
	TaskId string `json:"task_id,omitempty"`
	// MemoryId is the first created memory, kept for single-memory callers.
	MemoryId   string   `json:"memory_id,omitempty"`
	MemoryIds  []string `json:"memory_ids,omitempty"`
	Success    *bool    `json:"success,omitempty"`
	Duplicates int      `json:"duplicates_skipped,omitempty"`
	Message    string   `json:"message"`
}

type Stats struct {
	Scope     string             `json:"scope"`
	Total     int                `json:"total"`
	Success   int                `json:"success"`
	Failure   int                `json:"failure"`
	Dimension int                `json:"dimension"`
	Strategy  string             `json:"strategy"`
	Tasks     map[task.State]int `json:"tasks"`
	Queue     PoolStats          `json:"queue"`
}
