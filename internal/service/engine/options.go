package engine

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	DefaultTopK int
	MaxTopK     int
	// MinScore drops ranked memories scoring below it. Zero disables.
	MinScore    float64
	Workers     int
	QueueSize   int
	CallTimeout time.Duration
	Context     context.Context
}

func WithTopK(defaultTopK, maxTopK int) Option {
	return func(o *Options) {
		o.DefaultTopK = defaultTopK
		o.MaxTopK = maxTopK
	}
}

func WithMinScore(score float64) Option {
	return func(o *Options) {
		o.MinScore = score
	}
}

func WithWorkers(workers, queueSize int) Option {
	return func(o *Options) {
		o.Workers = workers
		o.QueueSize = queueSize
	}
}

func WithCallTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.CallTimeout = timeout
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		DefaultTopK: 1,
		MaxTopK:     10,
		Workers:     4,
		QueueSize:   64,
		CallTimeout: 60 * time.Second,
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
