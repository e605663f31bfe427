// Package insight turns retrieval context and mood snapshots into supportive
// text. Every operation returns usable content: when the generative backend
// fails, is disabled or answers with something unusable, a fixed fallback is
// returned instead.
package insight

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/llm"
	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/mood"
)

const (
	temperature       = 0.7
	insightMaxTokens  = 500
	guidanceMaxTokens = 800

	// similarContentLimit is the number of characters of each similar entry
	// quoted in the insight prompt.
	similarContentLimit = 200
)

// Generator wraps a Completer with prompt rendering and fallbacks.
type Generator struct {
	llm llm.Completer
	log zerolog.Logger
}

// New returns a Generator. A nil completer behaves as llm.Disabled.
func New(c llm.Completer, log zerolog.Logger) *Generator {
	if c == nil {
		c = llm.Disabled{}
	}
	return &Generator{llm: c, log: log}
}

type insightParams struct {
	currentMood *int
}

// InsightOption adjusts GenerateInsight.
type InsightOption func(*insightParams)

// WithCurrentMood supplies the mood score of the entry being reflected on.
// It is quoted in the prompt and, when the history is too short to show a
// trend, selects the fallback framing in place of the history average.
func WithCurrentMood(score int) InsightOption {
	return func(p *insightParams) { p.currentMood = &score }
}

type similarView struct {
	Content string
	Mood    string
}

type insightView struct {
	Query          string
	AvgMoodScore   float64
	Trend          model.Trend
	CommonEmotions []string
	CurrentMood    int
	Similar        []similarView
}

// GenerateInsight never fails.
func (g *Generator) GenerateInsight(ctx context.Context, rc model.RAGContext, opts ...InsightOption) string {
	var p insightParams
	for _, o := range opts {
		o(&p)
	}

	view := insightView{
		Query:          rc.Query,
		AvgMoodScore:   rc.UserHistory.AvgMoodScore,
		Trend:          rc.UserHistory.RecentTrend,
		CommonEmotions: rc.UserHistory.CommonEmotions,
	}
	if p.currentMood != nil {
		view.CurrentMood = *p.currentMood
	}
	for _, s := range rc.SimilarEntries {
		m := "N/A"
		if s.MoodScore != nil {
			m = strconv.Itoa(*s.MoodScore)
		}
		view.Similar = append(view.Similar, similarView{Content: truncate(s.Content, similarContentLimit), Mood: m})
	}

	out, err := g.complete(ctx, "insight.tmpl", view, systemContextual, insightMaxTokens)
	if err != nil {
		g.fallback("insight", err)
		score := rc.UserHistory.AvgMoodScore
		if p.currentMood != nil && rc.UserHistory.RecentTrend == model.TrendInsufficientData {
			score = float64(*p.currentMood)
		}
		return FallbackInsight(score, rc.UserHistory.RecentTrend)
	}
	return out
}

// CopingRequest is the snapshot coping strategies are generated from.
// MoodHistory is chronological.
type CopingRequest struct {
	CurrentMood  string
	JournalEntry string
	MoodHistory  []int
	Sentiment    *model.SentimentResult
	RiskLevel    model.RiskLevel
}

// GenerateCopingStrategies returns between MinStrategies and MaxStrategies
// items; short replies are padded from the fallback list. A backend
// failure, or a reply with nothing usable in it, yields the fallback list for
// the risk level.
func (g *Generator) GenerateCopingStrategies(ctx context.Context, req CopingRequest) []string {
	view := map[string]any{
		"CurrentMood":  req.CurrentMood,
		"RiskLevel":    riskOrModerate(req.RiskLevel),
		"JournalEntry": req.JournalEntry,
		"Trend":        mood.TrendPhrase(req.MoodHistory),
	}
	out, err := g.complete(ctx, "coping.tmpl", view, systemGuidance, guidanceMaxTokens)
	if err != nil {
		g.fallback("coping", err)
		return FallbackStrategies(req.RiskLevel)
	}
	strategies := ParseStrategies(out)
	if len(strategies) == 0 {
		g.fallback("coping", nil)
		return FallbackStrategies(req.RiskLevel)
	}
	return padStrategies(strategies, FallbackStrategies(req.RiskLevel))
}

// PlanRequest is the snapshot an intervention plan is generated from.
type PlanRequest struct {
	CurrentMood string
	MoodHistory []int
	Sentiment   *model.SentimentResult
	RiskLevel   model.RiskLevel
}

// GenerateInterventionPlan asks for a JSON plan. Buckets missing from the
// reply are taken from the canonical plan for the risk level; an unreadable
// reply or a backend failure yields the canonical plan outright.
func (g *Generator) GenerateInterventionPlan(ctx context.Context, req PlanRequest) model.InterventionPlan {
	canonical := FallbackPlan(req.RiskLevel)
	view := map[string]any{
		"CurrentMood": req.CurrentMood,
		"RiskLevel":   riskOrModerate(req.RiskLevel),
		"Trend":       mood.TrendPhrase(req.MoodHistory),
		"Sentiment":   sentimentJSON(req.Sentiment),
	}
	out, err := g.complete(ctx, "plan.tmpl", view, systemGuidance, guidanceMaxTokens)
	if err != nil {
		g.fallback("plan", err)
		return canonical
	}
	plan, ok := ParsePlan(out)
	if !ok {
		g.fallback("plan", nil)
		return canonical
	}
	return fillPlan(plan, canonical)
}

// CheckIn is a mood check-in. MoodLabel is one of the OverallMood labels.
type CheckIn struct {
	MoodLabel    string
	JournalEntry string
	MoodHistory  []int
	Sentiment    *model.SentimentResult
	RiskLevel    model.RiskLevel
}

// GenerateCheckInInsight never fails.
func (g *Generator) GenerateCheckInInsight(ctx context.Context, in CheckIn) string {
	view := map[string]any{
		"CurrentMood":  in.MoodLabel,
		"JournalEntry": in.JournalEntry,
		"MoodHistory":  in.MoodHistory,
		"RiskLevel":    riskOrModerate(in.RiskLevel),
		"Sentiment":    sentimentJSON(in.Sentiment),
	}
	out, err := g.complete(ctx, "checkin.tmpl", view, systemCheckIn, insightMaxTokens)
	if err != nil {
		g.fallback("checkin", err)
		return FallbackCheckIn(in.MoodLabel, in.RiskLevel)
	}
	return out
}

func (g *Generator) complete(ctx context.Context, tmpl string, data any, system string, maxTokens int) (string, error) {
	prompt, err := render(tmpl, data)
	if err != nil {
		return "", err
	}
	return g.llm.Complete(ctx, llm.Prompt(system, prompt, temperature, maxTokens))
}

func (g *Generator) fallback(op string, err error) {
	fallbacksTotal.WithLabelValues(op).Inc()
	ev := g.log.Debug().Str("operation", op)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("using fallback content")
}

func riskOrModerate(r model.RiskLevel) model.RiskLevel {
	return mood.ParseRiskLevel(string(r))
}

func sentimentJSON(s *model.SentimentResult) string {
	if s == nil {
		return "{}"
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
