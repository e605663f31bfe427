// Package ollama embeds text through a local Ollama server.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"

	"github.com/mycelian/mycelian-journal/internal/embeddings"
)

// Provider calls POST /api/embeddings. Vectors must match the journal
// dimension, so only 384-dimension models (e.g. all-minilm) are usable.
// Recent results are cached by text.
type Provider struct {
	client *resty.Client
	model  string
	cache  *cache.Cache
}

var _ embeddings.Provider = (*Provider)(nil)

// New creates a Provider against baseURL (default http://localhost:11434).
func New(baseURL, model string) *Provider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &Provider{
		client: c,
		model:  model,
		cache:  cache.New(10*time.Minute, 20*time.Minute),
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error"`
}

// Version is namespaced by model so vectors from different models never mix.
func (p *Provider) Version() string { return "ollama:" + p.model }

// Embed returns the model's embedding for text; empty text is the zero vector.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, 384), nil
	}
	if v, ok := p.cache.Get(text); ok {
		return slices.Clone(v.([]float32)), nil
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&embedRequest{Model: p.model, Prompt: text}).
		Post("/api/embeddings")
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("ollama embeddings status %d: %s", resp.StatusCode(), resp.String())
	}
	var out embedResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama embeddings error: %s", out.Error)
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	if err := embeddings.CheckDimensions(vec); err != nil {
		return nil, fmt.Errorf("model %s: %w", p.model, err)
	}
	// callers may normalize in place; the cache keeps its own copy
	p.cache.SetDefault(text, slices.Clone(vec))
	return vec, nil
}

// HealthPing implements health.HealthPinger by checking that the configured
// model is present in /api/tags.
func (p *Provider) HealthPing(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode())
	}
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return err
	}
	want := baseModelName(p.model)
	for _, m := range data.Models {
		if baseModelName(m.Name) == want {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", want)
}

func baseModelName(name string) string {
	return strings.SplitN(name, ":", 2)[0]
}
