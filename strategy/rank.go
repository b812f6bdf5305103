package strategy

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/w-h-a/reasoningbank/memory"
)

// Rank scores every usable candidate with score and returns the topK best.
// Candidates whose embedding cannot be compared with query, or whose score
// is not finite, are skipped and counted.
func Rank(query []float32, candidates []memory.Record, topK int, score func(memory.Record) float64) Ranking {
	if topK <= 0 || len(candidates) == 0 {
		return Ranking{Ranked: []Scored{}}
	}

	scored := make([]Scored, 0, len(candidates))
	skipped := 0

	for _, rec := range candidates {
		if !Comparable(query, rec.Embedding) {
			skipped++
			continue
		}

		s := score(rec)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			skipped++
			continue
		}

		scored = append(scored, Scored{Record: rec, Score: s})
	}

	slices.SortFunc(scored, Compare)

	if len(scored) > topK {
		scored = scored[:topK]
	}

	return Ranking{Ranked: scored, Skipped: skipped}
}

// Compare orders by score descending, then newest first, then by id.
func Compare(a, b Scored) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := b.Record.CreatedAt.Compare(a.Record.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.Record.Id, b.Record.Id)
}

func Comparable(query, vec []float32) bool {
	if len(query) == 0 || len(vec) != len(query) {
		return false
	}
	for _, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}
