package services

import (
	"context"
	"fmt"

	"github.com/mycelian/mycelian-journal/internal/emotion"
	"github.com/mycelian/mycelian-journal/internal/insight"
	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/mood"
	"github.com/mycelian/mycelian-journal/internal/speech"
)

// HistoryReport summarizes a user's recent entries.
type HistoryReport struct {
	Summary      model.UserHistorySummary `json:"summary"`
	TrendPhrase  string                   `json:"trendPhrase"`
	RecentScores []int                    `json:"recentScores"`
	OverallMood  string                   `json:"overallMood"`
	RiskLevel    model.RiskLevel          `json:"riskLevel"`
	EntryCount   int                      `json:"entryCount"`
}

// History reads the same window the insight context uses.
func (s *JournalService) History(ctx context.Context, userID string) (*HistoryReport, error) {
	if err := model.RequireUserID(userID); err != nil {
		return nil, err
	}
	entries := s.builder.History(ctx, userID, "")
	summary := mood.AnalyzeHistory(mood.RecordsFromEntries(entries))
	scores := mood.ChronologicalScores(entries)
	return &HistoryReport{
		Summary:      summary,
		TrendPhrase:  mood.TrendPhrase(scores),
		RecentScores: scores,
		OverallMood:  emotion.OverallMood(int(summary.AvgMoodScore + 0.5)),
		RiskLevel:    mood.RiskLevelFor(int(summary.AvgMoodScore)),
		EntryCount:   len(entries),
	}, nil
}

// Prediction forecasts from the user's last week of scores.
func (s *JournalService) Prediction(ctx context.Context, userID string) (model.MoodPrediction, error) {
	if err := model.RequireUserID(userID); err != nil {
		return model.MoodPrediction{}, err
	}
	return mood.Predict(s.recentScores(ctx, userID)), nil
}

// CopingStrategies generates strategies for a mood reading outside of a
// submission. Content may be empty.
func (s *JournalService) CopingStrategies(ctx context.Context, userID string, moodScore int, content string) ([]string, error) {
	if err := s.validateMood(userID, moodScore); err != nil {
		return nil, err
	}
	var sentiment *model.SentimentResult
	if content != "" {
		r := s.text.Classify(content)
		sentiment = &r
	}
	return s.insight.GenerateCopingStrategies(ctx, insight.CopingRequest{
		CurrentMood:  emotion.OverallMood(moodScore),
		JournalEntry: content,
		MoodHistory:  s.recentScores(ctx, userID),
		Sentiment:    sentiment,
		RiskLevel:    mood.RiskLevelFor(moodScore),
	}), nil
}

// InterventionPlan builds a plan for a mood reading.
func (s *JournalService) InterventionPlan(ctx context.Context, userID string, moodScore int) (model.InterventionPlan, error) {
	if err := s.validateMood(userID, moodScore); err != nil {
		return model.InterventionPlan{}, err
	}
	var sentiment *model.SentimentResult
	if recent, err := s.store.Entries().Recent(ctx, userID, 1); err == nil && len(recent) == 1 {
		sentiment = recent[0].Sentiment
	}
	return s.insight.GenerateInterventionPlan(ctx, insight.PlanRequest{
		CurrentMood: emotion.OverallMood(moodScore),
		MoodHistory: s.recentScores(ctx, userID),
		Sentiment:   sentiment,
		RiskLevel:   mood.RiskLevelFor(moodScore),
	}), nil
}

// CheckInRequest is a quick mood check-in with an optional note.
type CheckInRequest struct {
	UserID    string
	MoodScore int
	Note      string
}

// CheckInResult is the reply to a check-in.
type CheckInResult struct {
	MoodLabel string                 `json:"moodLabel"`
	RiskLevel model.RiskLevel        `json:"riskLevel"`
	Sentiment *model.SentimentResult `json:"sentiment,omitempty"`
	Insight   string                 `json:"insight"`
}

// CheckIn does not create an entry.
func (s *JournalService) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	if err := s.validateMood(req.UserID, req.MoodScore); err != nil {
		return nil, err
	}
	if len(req.Note) > s.maxContentBytes {
		return nil, model.NewValidationError("note", fmt.Sprintf("exceeds %d bytes", s.maxContentBytes))
	}
	res := &CheckInResult{
		MoodLabel: emotion.OverallMood(req.MoodScore),
		RiskLevel: mood.RiskLevelFor(req.MoodScore),
	}
	if req.Note != "" {
		r := s.text.Classify(req.Note)
		res.Sentiment = &r
	}
	res.Insight = s.insight.GenerateCheckInInsight(ctx, insight.CheckIn{
		MoodLabel:    res.MoodLabel,
		JournalEntry: req.Note,
		MoodHistory:  s.recentScores(ctx, req.UserID),
		Sentiment:    res.Sentiment,
		RiskLevel:    res.RiskLevel,
	})
	return res, nil
}

// AnalyzeText classifies text without storing it.
func (s *JournalService) AnalyzeText(text string) (model.SentimentResult, error) {
	if err := s.validateText("text", text); err != nil {
		return model.SentimentResult{}, err
	}
	return s.text.Classify(text), nil
}

// TranscriptAnalysis is a cleaned transcript with its cues and sentiment.
type TranscriptAnalysis struct {
	Text      string                `json:"text"`
	Cues      speech.Cues           `json:"cues"`
	Sentiment model.SentimentResult `json:"sentiment"`
}

// AnalyzeTranscript formats a voice transcript for the journal and reads its cues.
func (s *JournalService) AnalyzeTranscript(transcript string) (*TranscriptAnalysis, error) {
	if err := s.validateText("transcript", transcript); err != nil {
		return nil, err
	}
	text := speech.FormatForJournal(transcript)
	return &TranscriptAnalysis{
		Text:      text,
		Cues:      speech.DetectCues(text),
		Sentiment: s.text.Classify(text),
	}, nil
}

// FrameAnalysis is one classified frame.
type FrameAnalysis struct {
	Result    model.FacialResult `json:"result"`
	MoodScore int                `json:"moodScore"`
	Intensity string             `json:"intensity"`
}

// AnalyzeFrame classifies one captured frame.
func (s *JournalService) AnalyzeFrame(ctx context.Context, f emotion.Frame) (*FrameAnalysis, error) {
	if len(f.Data) == 0 {
		return nil, model.NewValidationError("frame", "is empty")
	}
	res, err := s.facial.Classify(ctx, f)
	if err != nil {
		return nil, err
	}
	return &FrameAnalysis{
		Result:    res,
		MoodScore: emotion.MoodFromExpressions(res.Emotions),
		Intensity: emotion.Intensity(res.Emotions[res.DominantEmotion]),
	}, nil
}

func (s *JournalService) validateMood(userID string, score int) error {
	if err := model.RequireUserID(userID); err != nil {
		return err
	}
	if score < 1 || score > 100 {
		return model.NewValidationError("moodScore", "must be between 1 and 100")
	}
	return nil
}

func (s *JournalService) recentScores(ctx context.Context, userID string) []int {
	return mood.ChronologicalScores(s.builder.History(ctx, userID, ""))
}
