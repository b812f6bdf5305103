package extractor

import (
	"context"
	"time"

	"github.com/w-h-a/reasoningbank/embedder"
	"github.com/w-h-a/reasoningbank/generator"
	"github.com/w-h-a/reasoningbank/storer"
)

type Option func(*Options)

type Options struct {
	Generator generator.Generator
	Embedder  embedder.Embedder
	Storer    storer.Storer
	// MaxMemories caps the items kept from one trajectory.
	MaxMemories        int
	JudgeTemperature   float64
	ExtractTemperature float64
	// DedupThreshold skips a candidate whose cosine similarity to an
	// existing memory in the same scope reaches it. Zero disables.
	DedupThreshold float64
	// StrictJudge aborts extraction when the judge call itself fails
	// instead of treating the trajectory as a failure.
	StrictJudge bool
	// CallTimeout bounds each generator or embedder call. Zero disables.
	CallTimeout       time.Duration
	DefaultConfidence float64
	ExtractionModel   string
	EmbeddingModel    string
	Now               func() time.Time
	Context           context.Context
}

func WithGenerator(g generator.Generator) Option {
	return func(o *Options) {
		o.Generator = g
	}
}

func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

func WithStorer(s storer.Storer) Option {
	return func(o *Options) {
		o.Storer = s
	}
}

func WithMaxMemories(n int) Option {
	return func(o *Options) {
		o.MaxMemories = n
	}
}

func WithTemperatures(judge, extract float64) Option {
	return func(o *Options) {
		o.JudgeTemperature = judge
		o.ExtractTemperature = extract
	}
}

func WithDedupThreshold(threshold float64) Option {
	return func(o *Options) {
		o.DedupThreshold = threshold
	}
}

func WithStrictJudge(strict bool) Option {
	return func(o *Options) {
		o.StrictJudge = strict
	}
}

func WithCallTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.CallTimeout = timeout
	}
}

// WithModelNames records provenance on every extracted memory.
func WithModelNames(extraction, embedding string) Option {
	return func(o *Options) {
		o.ExtractionModel = extraction
		o.EmbeddingModel = embedding
	}
}

func WithNow(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxMemories:        3,
		JudgeTemperature:   0.0,
		ExtractTemperature: 1.0,
		DedupThreshold:     0.90,
		CallTimeout:        60 * time.Second,
		DefaultConfidence:  0.5,
		Now:                time.Now,
		Context:            context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
