// Package vector implements the deterministic text encoder used for journal
// retrieval and the similarity math over its vectors.
package vector

import (
	"context"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/mycelian/mycelian-journal/internal/model"
)

const (
	// Dimensions is the length of every stored or compared vector.
	Dimensions = 384
	// ModelVersion identifies vectors produced by Encode.
	ModelVersion = "hash-lcg-384-v1"

	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// ErrDimensionMismatch is returned when two vectors of different length are compared.
var ErrDimensionMismatch = fmt.Errorf("%w: vector dimension mismatch", model.ErrValidation)

// Encode maps text to a unit vector of Dimensions coordinates. The same text
// always yields the same vector; empty text yields the zero vector.
func Encode(text string) []float32 {
	out := make([]float32, Dimensions)
	if text == "" {
		return out
	}

	h := textHash(text)
	for i := range out {
		seed := (h + int64(i))*lcgMultiplier + lcgIncrement
		out[i] = float32(float64(seed%lcgModulus)/lcgModulus - 0.5)
	}
	return Normalize(out)
}

// textHash is an order-sensitive 32-bit rolling hash (h*31 + c) over the
// UTF-16 code units of text, returned as a non-negative value. Characters
// outside the BMP contribute both surrogates.
func textHash(text string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(text)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// Normalize scales v to unit length. The zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	n := norm(v)
	if n == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

// CosineSimilarity returns dot(a,b)/(|a||b|) clamped to [-1,1], or 0 when
// either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	s := dot / (na * nb)
	return math.Max(-1, math.Min(1, s)), nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Codec exposes Encode through the embeddings provider contract.
type Codec struct{}

// Embed never fails; ctx is accepted for interface parity with remote providers.
func (Codec) Embed(_ context.Context, text string) ([]float32, error) {
	return Encode(text), nil
}

// Version reports ModelVersion.
func (Codec) Version() string { return ModelVersion }
