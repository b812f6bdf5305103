package hybrid

import (
	"math"
	"time"

	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/strategy"
)

type hybridStrategy struct {
	options strategy.Options
}

func (s *hybridStrategy) Name() string {
	return "hybrid"
}

func (s *hybridStrategy) Rank(query []float32, candidates []memory.Record, topK int) strategy.Ranking {
	now := s.options.Now()

	return strategy.Rank(query, candidates, topK, func(rec memory.Record) float64 {
		return s.score(strategy.CosineSimilarity(query, rec.Embedding), rec, now)
	})
}

func (s *hybridStrategy) score(similarity float64, rec memory.Record, now time.Time) float64 {
	w := s.options.Weights

	success := s.options.FailureValue
	if rec.Success {
		success = 1.0
	}

	return w.Semantic*similarity +
		w.Confidence*rec.Confidence +
		w.Success*success +
		w.Recency*s.recency(rec.CreatedAt, now)
}

// recency halves every half-life. Records from the future count as new.
func (s *hybridStrategy) recency(created, now time.Time) float64 {
	age := now.Sub(created)
	if age <= 0 {
		return 1.0
	}
	return math.Pow(0.5, float64(age)/float64(s.options.HalfLife))
}

func NewStrategy(opts ...strategy.Option) strategy.Strategy {
	options := strategy.NewOptions(opts...)

	if options.HalfLife <= 0 {
		options.HalfLife = strategy.NewOptions().HalfLife
	}

	if options.Now == nil {
		options.Now = time.Now
	}

	return &hybridStrategy{
		options: options,
	}
}
