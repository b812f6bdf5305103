package memory

import (
	"maps"
	"time"
)

type Record struct {
	Id          string            `json:"id"`
	AgentId     string            `json:"agent_id,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Content     string            `json:"content"`
	Query       string            `json:"query,omitempty"`
	Success     bool              `json:"success"`
	Confidence  float64           `json:"confidence"`
	CreatedAt   time.Time         `json:"created_at"`
	Embedding   []float32         `json:"embedding"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy so callers never share the embedding or
// metadata backing arrays with a store.
func (r Record) Clone() Record {
	cpy := r
	if r.Embedding != nil {
		cpy.Embedding = make([]float32, len(r.Embedding))
		copy(cpy.Embedding, r.Embedding)
	}
	if r.Metadata != nil {
		cpy.Metadata = maps.Clone(r.Metadata)
	}
	return cpy
}

// Global reports whether the record lives outside any agent partition.
func (r Record) Global() bool {
	return len(r.AgentId) == 0
}
