package strategy

import "github.com/w-h-a/reasoningbank/memory"

type Strategy interface {
	Name() string
	// Rank orders candidates by score, highest first, and keeps at most topK.
	Rank(query []float32, candidates []memory.Record, topK int) Ranking
}

type Scored struct {
	Record memory.Record
	Score  float64
}

type Ranking struct {
	Ranked []Scored
	// Skipped counts candidates that could not be scored.
	Skipped int
}
