package model

import "time"

// SentimentLabel is the polarity assigned to a piece of text.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Trend is the direction of a user's recent mood scores.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient-data"
)

// RiskLevel is the coarse severity bucket derived from a mood score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// SentimentResult is the output of the text classifier. Emotion scores are
// independent and need not sum to 1.
type SentimentResult struct {
	Label      SentimentLabel     `json:"label"`
	Confidence float64            `json:"confidence"`
	Score      float64            `json:"score"`
	Emotions   map[string]float64 `json:"emotions"`
}

// FacialResult is the output of the facial classifier. Emotions is a
// probability distribution summing to 1.
type FacialResult struct {
	Emotions        map[string]float64 `json:"emotions"`
	DominantEmotion string             `json:"dominantEmotion"`
	Confidence      float64            `json:"confidence"`
	CapturedAt      time.Time          `json:"capturedAt"`
}

// JournalEntry is a user's journal submission. It is written once on submit
// and updated at most once more to attach AI-derived fields.
type JournalEntry struct {
	EntryID           string             `json:"entryId"`
	UserID            string             `json:"userId"`
	Content           string             `json:"content"`
	MoodScore         *int               `json:"moodScore,omitempty"`
	Emotions          map[string]float64 `json:"emotions,omitempty"`
	Sentiment         *SentimentResult   `json:"sentiment,omitempty"`
	FacialAnalysis    *FacialResult      `json:"facialAnalysis,omitempty"`
	AIInsight         *string            `json:"aiInsight,omitempty"`
	AIRecommendations []string           `json:"aiRecommendations,omitempty"`
	CreationTime      time.Time          `json:"creationTime"`
	EnrichedTime      *time.Time         `json:"enrichedTime,omitempty"`
}

// Enrichment holds the AI-derived fields attached to an entry after the
// insight pipeline completes.
type Enrichment struct {
	AIInsight         string   `json:"aiInsight"`
	AIRecommendations []string `json:"aiRecommendations"`
}

// EmbeddingRecord is the stored vector for one journal entry.
type EmbeddingRecord struct {
	EntryID      string    `json:"entryId"`
	UserID       string    `json:"userId"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"modelVersion"`
}

// IndexedEntry is an embedding joined with the entry fields needed to build a
// SimilarEntry.
type IndexedEntry struct {
	EmbeddingRecord
	Content      string    `json:"content"`
	MoodScore    *int      `json:"moodScore,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// SimilarEntry is one retrieval hit.
type SimilarEntry struct {
	EntryID      string    `json:"entryId"`
	Content      string    `json:"content"`
	Similarity   float64   `json:"similarity"`
	MoodScore    *int      `json:"moodScore,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// MoodRecord is the slice of an entry the mood aggregator reads.
type MoodRecord struct {
	MoodScore    *int               `json:"moodScore,omitempty"`
	Emotions     map[string]float64 `json:"emotions,omitempty"`
	CreationTime time.Time          `json:"creationTime"`
}

// UserHistorySummary is the rolling statistics block of a RAGContext.
type UserHistorySummary struct {
	AvgMoodScore   float64  `json:"avgMoodScore"`
	CommonEmotions []string `json:"commonEmotions"`
	RecentTrend    Trend    `json:"recentTrend"`
}

// RAGContext is built per request and never persisted.
type RAGContext struct {
	Query          string             `json:"query"`
	SimilarEntries []SimilarEntry     `json:"similarEntries"`
	UserHistory    UserHistorySummary `json:"userHistory"`
}

// InterventionPlan groups suggested actions by horizon.
type InterventionPlan struct {
	Immediate []string `json:"immediate"`
	ShortTerm []string `json:"shortTerm"`
	LongTerm  []string `json:"longTerm"`
	Resources []string `json:"resources"`
}

// MoodPrediction is a coarse forecast derived from a run of mood scores.
type MoodPrediction struct {
	PredictedMood           float64   `json:"predictedMood"`
	RiskLevel               RiskLevel `json:"riskLevel"`
	InterventionSuggestions []string  `json:"interventionSuggestions"`
	Confidence              float64   `json:"confidence"`
}

// ListEntriesRequest captures filters used when listing entries.
type ListEntriesRequest struct {
	UserID string
	Limit  int
	Before *time.Time
	After  *time.Time
}
