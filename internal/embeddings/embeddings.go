// Package embeddings defines the text-to-vector provider contract used by
// retrieval, plus helpers shared by providers.
package embeddings

import (
	"context"
	"fmt"

	"github.com/mycelian/mycelian-journal/internal/health"
	"github.com/mycelian/mycelian-journal/internal/vector"
)

// Provider produces vector representations for text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Version identifies the encoder; vectors are only compared within one version.
	Version() string
}

// CheckDimensions rejects vectors that are not vector.Dimensions long.
func CheckDimensions(v []float32) error {
	if len(v) != vector.Dimensions {
		return fmt.Errorf("%w: got %d dimensions, want %d", vector.ErrDimensionMismatch, len(v), vector.Dimensions)
	}
	return nil
}

// Pinger returns a health probe for p: its own HealthPing when it has one,
// otherwise a trial embedding.
func Pinger(p Provider) health.HealthPinger {
	if hp, ok := p.(health.HealthPinger); ok {
		return hp
	}
	return health.PingFunc(func(ctx context.Context) error {
		v, err := p.Embed(ctx, "health check")
		if err != nil {
			return err
		}
		return CheckDimensions(v)
	})
}
