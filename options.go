package reasoningbank

import (
	"time"

	"github.com/w-h-a/reasoningbank/extractor"
	"github.com/w-h-a/reasoningbank/internal/service/engine"
	"github.com/w-h-a/reasoningbank/task"
)

type Option func(*Options)

type Options struct {
	EngineOptions    []engine.Option
	ExtractorOptions []extractor.Option
	TaskOptions      []task.Option
}

// WithTopK sets the result count used when a query names none and the
// most any query may ask for.
func WithTopK(defaultTopK, maxTopK int) Option {
	return func(o *Options) {
		o.EngineOptions = append(o.EngineOptions, engine.WithTopK(defaultTopK, maxTopK))
	}
}

func WithMinScore(score float64) Option {
	return func(o *Options) {
		o.EngineOptions = append(o.EngineOptions, engine.WithMinScore(score))
	}
}

func WithWorkers(workers, queueSize int) Option {
	return func(o *Options) {
		o.EngineOptions = append(o.EngineOptions, engine.WithWorkers(workers, queueSize))
	}
}

// WithCallTimeout bounds every generator and embedder call.
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.EngineOptions = append(o.EngineOptions, engine.WithCallTimeout(timeout))
		o.ExtractorOptions = append(o.ExtractorOptions, extractor.WithCallTimeout(timeout))
	}
}

func WithMaxMemories(n int) Option {
	return func(o *Options) {
		o.ExtractorOptions = append(o.ExtractorOptions, extractor.WithMaxMemories(n))
	}
}

func WithTemperatures(judge, extract float64) Option {
	return func(o *Options) {
		o.ExtractorOptions = append(o.ExtractorOptions, extractor.WithTemperatures(judge, extract))
	}
}

func WithDedupThreshold(threshold float64) Option {
	return func(o *Options) {
		o.ExtractorOptions = append(o.ExtractorOptions, extractor.WithDedupThreshold(threshold))
	}
}

func WithStrictJudge(strict bool) Option {
	return func(o *Options) {
		o.ExtractorOptions = append(o.ExtractorOptions, extractor.WithStrictJudge(strict))
	}
}

// WithModelNames records provenance on every extracted memory.
func WithModelNames(extraction, embedding string) Option {
	return func(o *Options) {
		o.ExtractorOptions = append(o.ExtractorOptions, extractor.WithModelNames(extraction, embedding))
	}
}

func WithTaskRetention(maxRetained int, ttl time.Duration) Option {
	return func(o *Options) {
		o.TaskOptions = append(o.TaskOptions, task.WithMaxRetained(maxRetained), task.WithTTL(ttl))
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
