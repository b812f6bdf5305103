// Package hash is an offline embedder. Each lower-cased token is hashed
// into one of a fixed number of buckets with a hash-derived sign, and the
// resulting vector is L2 normalised, so texts sharing vocabulary land
// close together without calling a remote model.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/w-h-a/reasoningbank/embedder"
)

const defaultDimensions = 256

type hashEmbedder struct {
	options embedder.Options
}

func (e *hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, e.options.Dimensions)

	for _, token := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()

		idx := int(sum % uint64(len(vec)))
		if sum>>63 == 1 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}

	return normalize(vec), nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func normalize(vec []float64) []float32 {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}

	out := make([]float32, len(vec))
	if norm == 0 {
		return out
	}

	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}

	return out
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	if options.Dimensions <= 0 {
		options.Dimensions = defaultDimensions
	}

	return &hashEmbedder{
		options: options,
	}
}
