package storer

import (
	"fmt"
	"math"
	"strings"

	"github.com/w-h-a/reasoningbank/memory"
)

// Validate checks the record invariants a store enforces on Put, other
// than id uniqueness. dim is the established dimension or 0.
func Validate(rec memory.Record, dim int) error {
	if len(strings.TrimSpace(rec.Id)) == 0 {
		return fmt.Errorf("%w: record id is empty", memory.ErrInvalidRequest)
	}
	if len(rec.Embedding) == 0 {
		return fmt.Errorf("%w: record %s has no embedding", memory.ErrDimensionMismatch, rec.Id)
	}
	if dim > 0 && len(rec.Embedding) != dim {
		return fmt.Errorf("%w: record %s has %d dimensions, store has %d", memory.ErrDimensionMismatch, rec.Id, len(rec.Embedding), dim)
	}
	for i, v := range rec.Embedding {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: record %s has a non-finite embedding value at %d", memory.ErrInvalidRequest, rec.Id, i)
		}
	}
	return nil
}
