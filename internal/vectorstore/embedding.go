package vectorstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"
)

// DefaultDimensions is the width of HashEmbedder vectors.
const DefaultDimensions = 256

// HashEmbedder maps text to a fixed-width vector by hashing lower-cased word
// tokens into signed buckets. It needs no model server and is deterministic.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns an embedder producing dims-wide vectors.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Embed returns the L2-normalized bucket counts of text. Text without tokens
// yields the zero vector.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dims)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, tok := range tokens {
		hasher := fnv.New64a()
		_, _ = hasher.Write([]byte(tok))
		sum := hasher.Sum64()

		idx := int(sum % uint64(h.dims))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec, nil
}

// cosine returns the cosine similarity of a and b, or 0 when either is zero.
func cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

func encodeVector(vec []float64) []byte {
	buf := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("embedding blob has %d bytes, not a multiple of 8", len(buf))
	}
	vec := make([]float64, len(buf)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return vec, nil
}
