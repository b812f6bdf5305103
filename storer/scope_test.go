package storer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/w-h-a/reasoningbank/memory"
)

func TestScope_Matches(t *testing.T) {
	global := memory.Record{Id: "g"}
	alice := memory.Record{Id: "a", AgentId: "alice"}
	bob := memory.Record{Id: "b", AgentId: "bob"}

	tests := []struct {
		name  string
		scope Scope
		want  map[string]bool
	}{
		{"agent", AgentScope("alice"), map[string]bool{"g": false, "a": true, "b": false}},
		{"empty agent is global", AgentScope(""), map[string]bool{"g": true, "a": false, "b": false}},
		{"global", GlobalScope(), map[string]bool{"g": true, "a": false, "b": false}},
		{"all", AllScope(), map[string]bool{"g": true, "a": true, "b": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, rec := range []memory.Record{global, alice, bob} {
				assert.Equal(t, tt.want[rec.Id], tt.scope.Matches(rec), rec.Id)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate(memory.Record{Embedding: []float32{1}}, 0), memory.ErrInvalidRequest)
	assert.ErrorIs(t, Validate(memory.Record{Id: "x"}, 0), memory.ErrDimensionMismatch)
	assert.ErrorIs(t, Validate(memory.Record{Id: "x", Embedding: []float32{1, 2}}, 3), memory.ErrDimensionMismatch)
	assert.NoError(t, Validate(memory.Record{Id: "x", Embedding: []float32{1, 2, 3}}, 3))
	assert.NoError(t, Validate(memory.Record{Id: "x", Embedding: []float32{1, 2, 3}}, 0))
}

func TestValidate_NonFinite(t *testing.T) {
	nan := float32(math.NaN())
	assert.ErrorIs(t, Validate(memory.Record{Id: "x", Embedding: []float32{1, nan}}, 2), memory.ErrInvalidRequest)
}
