package storer

import (
	"context"
	"errors"
	"iter"

	"github.com/w-h-a/reasoningbank/memory"
)

var ErrClosed = errors.New("store closed")

// Storer owns the durable record set. Records are append-only: once Put
// returns nil the record is durable and never changes.
type Storer interface {
	Put(ctx context.Context, rec memory.Record) error
	Get(ctx context.Context, id string) (memory.Record, error)
	// List yields the records matching scope. Each range over the returned
	// sequence starts a fresh scan.
	List(ctx context.Context, scope Scope) iter.Seq2[memory.Record, error]
	Persist(ctx context.Context) error
	// Dimension is 0 until configured or fixed by the first record.
	Dimension() int
	Close() error
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[memory.Record, error]) ([]memory.Record, error) {
	var records []memory.Record
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
