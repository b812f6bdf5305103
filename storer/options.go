package storer

import "context"

type Option func(*Options)

type Options struct {
	Location string
	// Dimension fixes the embedding length up front. Zero lets the first
	// record (or the existing data) establish it.
	Dimension int
	Context   context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithDimension(dim int) Option {
	return func(o *Options) {
		o.Dimension = dim
	}
}

// WithContext bounds the work done while opening the store.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
