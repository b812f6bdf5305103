package cosine

import (
	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/strategy"
)

type cosineStrategy struct {
	options strategy.Options
}

func (s *cosineStrategy) Name() string {
	return "cosine"
}

func (s *cosineStrategy) Rank(query []float32, candidates []memory.Record, topK int) strategy.Ranking {
	return strategy.Rank(query, candidates, topK, func(rec memory.Record) float64 {
		return strategy.CosineSimilarity(query, rec.Embedding)
	})
}

func NewStrategy(opts ...strategy.Option) strategy.Strategy {
	return &cosineStrategy{
		options: strategy.NewOptions(opts...),
	}
}
