package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/mycelian-journal/internal/emotion"
	"github.com/mycelian/mycelian-journal/internal/insight"
	"github.com/mycelian/mycelian-journal/internal/llm"
	"github.com/mycelian/mycelian-journal/internal/model"
)

func submitMoods(t *testing.T, svc *JournalService, userID string, moods ...int) {
	t.Helper()
	for _, m := range moods {
		_, err := svc.Submit(context.Background(), SubmitRequest{UserID: userID, Content: "daily note", MoodScore: intp(m)})
		require.NoError(t, err)
	}
}

func TestHistoryAndPrediction(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	submitMoods(t, svc, "u1", 50, 50, 50, 50, 50, 50, 50, 80, 82, 85, 83, 81, 84, 86)

	h, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.TrendImproving, h.Summary.RecentTrend)
	assert.Equal(t, "improving significantly", h.TrendPhrase)
	assert.Equal(t, 14, h.EntryCount)
	assert.Equal(t, 86, h.RecentScores[len(h.RecentScores)-1])

	p, err := svc.Prediction(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 83.0, p.PredictedMood, 0.01)
	assert.Equal(t, model.RiskLow, p.RiskLevel)
	assert.InDelta(t, 0.95, p.Confidence, 1e-9)

	_, err = svc.History(ctx, "")
	assert.True(t, model.IsValidationError(err))
}

func TestCopingStrategiesAndPlanFallbacks(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	strategies, err := svc.CopingStrategies(ctx, "u1", 39, "everything is awful")
	require.NoError(t, err)
	assert.Equal(t, insight.FallbackStrategies(model.RiskHigh), strategies)

	plan, err := svc.InterventionPlan(ctx, "u1", 59)
	require.NoError(t, err)
	assert.Equal(t, insight.FallbackPlan(model.RiskModerate), plan)

	_, err = svc.CopingStrategies(ctx, "u1", 0, "")
	assert.True(t, model.IsValidationError(err))
}

func TestCheckIn(t *testing.T) {
	var prompt string
	c := llm.Func(func(_ context.Context, req llm.Request) (string, error) {
		prompt = req.Messages[1].Content
		return "thanks for checking in", nil
	})
	svc, _ := newService(t, c)

	res, err := svc.CheckIn(context.Background(), CheckInRequest{UserID: "u1", MoodScore: 65, Note: "a good walk"})
	require.NoError(t, err)
	assert.Equal(t, "Good", res.MoodLabel)
	assert.Equal(t, model.RiskLow, res.RiskLevel)
	assert.Equal(t, model.SentimentPositive, res.Sentiment.Label)
	assert.Equal(t, "thanks for checking in", res.Insight)
	assert.Contains(t, prompt, "Current mood: Good")
}

func TestAnalyzeTextTranscriptFrame(t *testing.T) {
	svc, _ := newService(t, nil)

	s, err := svc.AnalyzeText("I am sad and worried")
	require.NoError(t, err)
	assert.Equal(t, model.SentimentNegative, s.Label)

	_, err = svc.AnalyzeText("")
	assert.True(t, model.IsValidationError(err))

	tr, err := svc.AnalyzeTranscript("i feel   really calm. then happy")
	require.NoError(t, err)
	assert.Equal(t, "I feel really calm. Then happy", tr.Text)
	assert.Equal(t, []string{"calm", "happy"}, tr.Cues.EmotionalWords)
	assert.Equal(t, "medium", tr.Cues.Intensity)
	assert.Equal(t, model.SentimentPositive, tr.Sentiment.Label)

	fa, err := svc.AnalyzeFrame(context.Background(), emotion.Frame{Data: []byte{1, 2, 3, 4}, Width: 2, Height: 2})
	require.NoError(t, err)
	assert.Contains(t, emotion.FacialLabels, fa.Result.DominantEmotion)
	assert.GreaterOrEqual(t, fa.MoodScore, 1)
	assert.LessOrEqual(t, fa.MoodScore, 100)

	_, err = svc.AnalyzeFrame(context.Background(), emotion.Frame{})
	assert.True(t, model.IsValidationError(err))
}
