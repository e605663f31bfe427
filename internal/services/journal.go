// Package services holds the journal use cases: the submission pipeline and
// the read-side queries built on the same collaborators.
package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/emotion"
	"github.com/mycelian/mycelian-journal/internal/insight"
	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/mood"
	"github.com/mycelian/mycelian-journal/internal/ragcontext"
	"github.com/mycelian/mycelian-journal/internal/retrieval"
	"github.com/mycelian/mycelian-journal/internal/store"
)

// DefaultMaxContentBytes bounds journal text.
const DefaultMaxContentBytes = 20000

// List limits.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// JournalService orchestrates journal-related use cases.
type JournalService struct {
	store     store.Store
	retrieval *retrieval.EmbeddingStore
	builder   *ragcontext.Builder
	insight   *insight.Generator
	text      *emotion.TextClassifier
	facial    *emotion.FacialClassifier
	log       zerolog.Logger

	maxContentBytes int
}

// Option configures a JournalService.
type Option func(*JournalService)

// WithMaxContentBytes overrides DefaultMaxContentBytes.
func WithMaxContentBytes(n int) Option {
	return func(s *JournalService) {
		if n > 0 {
			s.maxContentBytes = n
		}
	}
}

// WithTextClassifier replaces the deterministic text classifier.
func WithTextClassifier(c *emotion.TextClassifier) Option {
	return func(s *JournalService) { s.text = c }
}

// WithFacialClassifier replaces the hash-scored facial classifier.
func WithFacialClassifier(c *emotion.FacialClassifier) Option {
	return func(s *JournalService) { s.facial = c }
}

func NewJournalService(st store.Store, es *retrieval.EmbeddingStore, gen *insight.Generator, log zerolog.Logger, opts ...Option) *JournalService {
	s := &JournalService{
		store:           st,
		retrieval:       es,
		builder:         ragcontext.NewBuilder(es, st.Entries(), log),
		insight:         gen,
		text:            emotion.NewTextClassifier(),
		facial:          emotion.NewFacialClassifier(nil),
		log:             log,
		maxContentBytes: DefaultMaxContentBytes,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SubmitRequest is a new journal entry. MoodScore is optional; when absent
// and a facial result is attached, the mood is derived from the expressions.
type SubmitRequest struct {
	UserID         string
	Content        string
	MoodScore      *int
	FacialAnalysis *model.FacialResult
}

// SubmitResult is the saved entry plus everything derived for it.
type SubmitResult struct {
	Entry      *model.JournalEntry `json:"entry"`
	Context    model.RAGContext    `json:"context"`
	Insight    string              `json:"insight"`
	Strategies []string            `json:"strategies"`
	RiskLevel  model.RiskLevel     `json:"riskLevel"`
}

// Submit validates and saves the entry, then enriches it. Only validation and
// the save itself can fail; embedding, insight, strategy and enrichment
// failures are logged and counted.
func (s *JournalService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := s.validateSubmit(req); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)

	var facial *model.FacialResult
	if req.FacialAnalysis != nil {
		fr, err := emotion.NormalizeResult(*req.FacialAnalysis)
		if err != nil {
			return nil, err
		}
		facial = &fr
	}

	sentiment := s.text.Classify(content)
	score := req.MoodScore
	if score == nil && facial != nil {
		derived := emotion.MoodFromExpressions(facial.Emotions)
		score = &derived
	}

	entry, err := s.store.Entries().Create(ctx, &model.JournalEntry{
		UserID:         req.UserID,
		Content:        content,
		MoodScore:      score,
		Emotions:       sentiment.Emotions,
		Sentiment:      &sentiment,
		FacialAnalysis: facial,
	})
	if err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}
	entriesSubmittedTotal.WithLabelValues(string(sentiment.Label)).Inc()

	logger := s.log.With().Str("user_id", entry.UserID).Str("entry_id", entry.EntryID).Logger()

	rc := s.builder.Build(ctx, entry.UserID, content, ragcontext.ExcludeEntry(entry.EntryID))

	if err := s.retrieval.Store(ctx, entry.EntryID, entry.UserID, content); err != nil {
		enrichmentFailuresTotal.WithLabelValues("embedding").Inc()
		logger.Warn().Err(err).Msg("embedding not stored")
	}

	var insightOpts []insight.InsightOption
	current := mood.BaselineScore
	if score != nil {
		insightOpts = append(insightOpts, insight.WithCurrentMood(*score))
		current = float64(*score)
	}
	text := s.insight.GenerateInsight(ctx, rc, insightOpts...)

	risk := mood.RiskLevelFor(int(current))
	strategies := s.insight.GenerateCopingStrategies(ctx, insight.CopingRequest{
		CurrentMood:  emotion.OverallMood(int(current)),
		JournalEntry: content,
		MoodHistory:  mood.ChronologicalScores(s.builder.History(ctx, entry.UserID, "")),
		Sentiment:    &sentiment,
		RiskLevel:    risk,
	})

	enriched, err := s.store.Entries().UpdateEnrichment(ctx, entry.UserID, entry.EntryID, model.Enrichment{
		AIInsight:         text,
		AIRecommendations: strategies,
	})
	if err != nil {
		enrichmentFailuresTotal.WithLabelValues("update").Inc()
		logger.Warn().Err(err).Msg("enrichment not persisted")
		entry.AIInsight = &text
		entry.AIRecommendations = strategies
		enriched = entry
	}

	logger.Debug().
		Str("sentiment", string(sentiment.Label)).
		Int("similar", len(rc.SimilarEntries)).
		Str("trend", string(rc.UserHistory.RecentTrend)).
		Msg("entry submitted")

	return &SubmitResult{
		Entry:      enriched,
		Context:    rc,
		Insight:    text,
		Strategies: strategies,
		RiskLevel:  risk,
	}, nil
}

func (s *JournalService) validateSubmit(req SubmitRequest) error {
	if err := model.RequireUserID(req.UserID); err != nil {
		return err
	}
	if err := s.validateText("content", req.Content); err != nil {
		return err
	}
	if req.MoodScore != nil && (*req.MoodScore < 1 || *req.MoodScore > 100) {
		return model.NewValidationError("moodScore", "must be between 1 and 100")
	}
	return nil
}

func (s *JournalService) validateText(field, text string) error {
	if strings.TrimSpace(text) == "" {
		return model.NewValidationError(field, "is required")
	}
	if len(text) > s.maxContentBytes {
		return model.NewValidationError(field, fmt.Sprintf("exceeds %d bytes", s.maxContentBytes))
	}
	if !utf8.ValidString(text) {
		return model.NewValidationError(field, "must be valid UTF-8")
	}
	return nil
}

func (s *JournalService) GetEntry(ctx context.Context, userID, entryID string) (*model.JournalEntry, error) {
	return s.store.Entries().GetByID(ctx, userID, entryID)
}

// ListEntries clamps the limit to [1, MaxListLimit].
func (s *JournalService) ListEntries(ctx context.Context, req model.ListEntriesRequest) ([]*model.JournalEntry, error) {
	if err := model.RequireUserID(req.UserID); err != nil {
		return nil, err
	}
	switch {
	case req.Limit <= 0:
		req.Limit = DefaultListLimit
	case req.Limit > MaxListLimit:
		req.Limit = MaxListLimit
	}
	return s.store.Entries().List(ctx, req)
}

// DeleteEntry removes the entry and its embedding, then drops it from the index.
func (s *JournalService) DeleteEntry(ctx context.Context, userID, entryID string) error {
	if err := s.store.Entries().DeleteByID(ctx, userID, entryID); err != nil {
		return err
	}
	s.retrieval.Forget(ctx, userID, entryID)
	return nil
}

// SimilarEntries is a direct retrieval lookup. A zero limit or a nil threshold
// keeps the retrieval default.
func (s *JournalService) SimilarEntries(ctx context.Context, userID, query string, limit int, threshold *float64) ([]model.SimilarEntry, error) {
	if err := model.RequireUserID(userID); err != nil {
		return nil, err
	}
	if err := s.validateText("query", query); err != nil {
		return nil, err
	}
	var opts []retrieval.SearchOption
	if limit > 0 {
		opts = append(opts, retrieval.WithLimit(limit))
	}
	if threshold != nil {
		opts = append(opts, retrieval.WithThreshold(*threshold))
	}
	return s.retrieval.FindSimilar(ctx, userID, query, opts...), nil
}
