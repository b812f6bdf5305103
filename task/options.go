package task

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	// MaxRetained bounds how many finished tasks are kept for polling.
	MaxRetained int
	// TTL is how long a finished task stays visible.
	TTL     time.Duration
	Now     func() time.Time
	Context context.Context
}

func WithMaxRetained(n int) Option {
	return func(o *Options) {
		o.MaxRetained = n
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.TTL = ttl
	}
}

func WithNow(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxRetained: 1024,
		TTL:         time.Hour,
		Now:         time.Now,
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
