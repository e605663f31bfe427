package embeddings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mycelian/mycelian-journal/internal/vector"
)

type shortProvider struct{}

func (shortProvider) Embed(context.Context, string) ([]float32, error) { return []float32{1}, nil }
func (shortProvider) Version() string                                   { return "short" }

func TestCheckDimensions(t *testing.T) {
	assert.NoError(t, CheckDimensions(make([]float32, vector.Dimensions)))
	err := CheckDimensions(make([]float32, 768))
	assert.True(t, errors.Is(err, vector.ErrDimensionMismatch))
}

func TestPinger(t *testing.T) {
	assert.NoError(t, Pinger(vector.Codec{}).HealthPing(context.Background()))
	assert.Error(t, Pinger(shortProvider{}).HealthPing(context.Background()))
}
