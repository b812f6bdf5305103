package hybrid

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/strategy"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func TestRank_DefaultWeights(t *testing.T) {
	s := NewStrategy(strategy.WithNow(fixedNow))

	rec := memory.Record{
		Id:         "m",
		Success:    true,
		Confidence: 0.5,
		CreatedAt:  now.Add(-30 * 24 * time.Hour),
		Embedding:  []float32{1, 0},
	}

	got := s.Rank([]float32{1, 0}, []memory.Record{rec}, 1)

	require.Len(t, got.Ranked, 1)
	// 0.6*1 + 0.2*0.5 + 0.15*1 + 0.05*0.5
	assert.InDelta(t, 0.875, got.Ranked[0].Score, 1e-9)
}

func TestRank_RecencyMonotonic(t *testing.T) {
	s := NewStrategy(strategy.WithNow(fixedNow))

	var previous = math.Inf(1)
	for _, days := range []int{0, 1, 7, 30, 90, 365} {
		rec := memory.Record{
			Id:         "m",
			Success:    true,
			Confidence: 0.9,
			CreatedAt:  now.Add(-time.Duration(days) * 24 * time.Hour),
			Embedding:  []float32{0.6, 0.8},
		}

		got := s.Rank([]float32{0.6, 0.8}, []memory.Record{rec}, 1)
		require.Len(t, got.Ranked, 1)

		assert.LessOrEqual(t, got.Ranked[0].Score, previous, "age %d days", days)
		previous = got.Ranked[0].Score
	}
}

func TestRank_FutureRecordCountsAsNew(t *testing.T) {
	s := NewStrategy(
		strategy.WithNow(fixedNow),
		strategy.WithWeights(strategy.Weights{Recency: 1}),
	)

	rec := memory.Record{Id: "m", CreatedAt: now.Add(time.Hour), Embedding: []float32{1}}

	got := s.Rank([]float32{1}, []memory.Record{rec}, 1)
	assert.InDelta(t, 1.0, got.Ranked[0].Score, 1e-12)
}

func TestRank_SuccessOutranksFailure(t *testing.T) {
	s := NewStrategy(strategy.WithNow(fixedNow))

	candidates := []memory.Record{
		{Id: "failure", Success: false, Confidence: 0.8, CreatedAt: now, Embedding: []float32{1, 0}},
		{Id: "success", Success: true, Confidence: 0.8, CreatedAt: now, Embedding: []float32{1, 0}},
	}

	got := s.Rank([]float32{1, 0}, candidates, 2)

	require.Len(t, got.Ranked, 2)
	assert.Equal(t, "success", got.Ranked[0].Record.Id)
	assert.InDelta(t, 0.15, got.Ranked[0].Score-got.Ranked[1].Score, 1e-9)
}

func TestRank_FailurePenalty(t *testing.T) {
	s := NewStrategy(
		strategy.WithNow(fixedNow),
		strategy.WithWeights(strategy.Weights{Success: 1}),
		strategy.WithFailureValue(-0.5),
	)

	rec := memory.Record{Id: "m", Success: false, CreatedAt: now, Embedding: []float32{1}}

	got := s.Rank([]float32{1}, []memory.Record{rec}, 1)
	assert.InDelta(t, -0.5, got.Ranked[0].Score, 1e-12)
}

func TestRank_WeightsNotNormalised(t *testing.T) {
	s := NewStrategy(
		strategy.WithNow(fixedNow),
		strategy.WithWeights(strategy.Weights{Semantic: 1, Confidence: 1, Success: 1, Recency: 1}),
	)

	rec := memory.Record{Id: "m", Success: true, Confidence: 1, CreatedAt: now, Embedding: []float32{1, 1}}

	got := s.Rank([]float32{1, 1}, []memory.Record{rec}, 1)
	assert.InDelta(t, 4.0, got.Ranked[0].Score, 1e-9)
}

func TestRank_SemanticDominates(t *testing.T) {
	s := NewStrategy(
		strategy.WithNow(fixedNow),
		strategy.WithWeights(strategy.Weights{Semantic: 0.9, Confidence: 0.05, Success: 0.05}),
	)

	candidates := []memory.Record{
		{Id: "confident-but-unrelated", Success: true, Confidence: 1, CreatedAt: now, Embedding: []float32{0, 1}},
		{Id: "related", Success: false, Confidence: 0.2, CreatedAt: now.Add(-400 * 24 * time.Hour), Embedding: []float32{1, 0.05}},
	}

	got := s.Rank([]float32{1, 0}, candidates, 1)

	require.Len(t, got.Ranked, 1)
	assert.Equal(t, "related", got.Ranked[0].Record.Id)
}

func TestNewStrategy_InvalidHalfLifeFallsBack(t *testing.T) {
	s := NewStrategy(
		strategy.WithNow(fixedNow),
		strategy.WithHalfLife(0),
		strategy.WithWeights(strategy.Weights{Recency: 1}),
	)

	rec := memory.Record{Id: "m", CreatedAt: now.Add(-30 * 24 * time.Hour), Embedding: []float32{1}}

	got := s.Rank([]float32{1}, []memory.Record{rec}, 1)
	assert.InDelta(t, 0.5, got.Ranked[0].Score, 1e-9)
	assert.Equal(t, "hybrid", s.Name())
}
