package strategy

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	Weights  Weights
	HalfLife time.Duration
	// FailureValue is the success signal assigned to failure-derived
	// memories. Negative values penalise them.
	FailureValue float64
	Now          func() time.Time
	Context      context.Context
}

// Weights are applied as given. They are not normalised, so a sum other
// than 1 yields scores outside [0,1].
type Weights struct {
	Semantic   float64
	Confidence float64
	Success    float64
	Recency    float64
}

func WithWeights(weights Weights) Option {
	return func(o *Options) {
		o.Weights = weights
	}
}

func WithHalfLife(halfLife time.Duration) Option {
	return func(o *Options) {
		o.HalfLife = halfLife
	}
}

func WithFailureValue(v float64) Option {
	return func(o *Options) {
		o.FailureValue = v
	}
}

func WithNow(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

func DefaultWeights() Weights {
	return Weights{
		Semantic:   0.6,
		Confidence: 0.2,
		Success:    0.15,
		Recency:    0.05,
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Weights:  DefaultWeights(),
		HalfLife: 30 * 24 * time.Hour,
		Now:      time.Now,
		Context:  context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
