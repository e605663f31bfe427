package mood

import "github.com/mycelian/mycelian-journal/internal/model"

// RiskLevelFor buckets a mood score: below 40 is high, below 60 moderate.
func RiskLevelFor(score int) model.RiskLevel {
	switch {
	case score < 40:
		return model.RiskHigh
	case score < 60:
		return model.RiskModerate
	default:
		return model.RiskLow
	}
}

// ParseRiskLevel maps free text onto a RiskLevel; anything unknown is moderate.
func ParseRiskLevel(s string) model.RiskLevel {
	switch model.RiskLevel(s) {
	case model.RiskLow, model.RiskModerate, model.RiskHigh:
		return model.RiskLevel(s)
	default:
		return model.RiskModerate
	}
}

// TrendPhrase describes chronological scores for prompts by comparing the
// last week with the week before it.
func TrendPhrase(chronological []int) string {
	n := len(chronological)
	if n < 2 {
		return "insufficient data"
	}
	if n < 2*trendWindow {
		return "new data"
	}
	recent := meanInts(chronological[n-trendWindow:])
	previous := meanInts(chronological[n-2*trendWindow : n-trendWindow])
	diff := recent - previous

	switch {
	case diff > 10:
		return "improving significantly"
	case diff > 5:
		return "improving gradually"
	case diff < -10:
		return "declining significantly"
	case diff < -5:
		return "declining gradually"
	default:
		return "stable"
	}
}

func meanInts(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s int
	for _, x := range xs {
		s += x
	}
	return float64(s) / float64(len(xs))
}

var predictionSuggestions = map[model.RiskLevel][]string{
	model.RiskHigh: {
		"Schedule immediate check-in with mental health professional",
		"Practice deep breathing exercises (4-7-8 technique)",
		"Engage in light physical activity for 15 minutes",
		"Use grounding techniques (5-4-3-2-1 sensory method)",
	},
	model.RiskModerate: {
		"Try mindfulness meditation for 10 minutes",
		"Take a walk outdoors",
		"Practice gratitude journaling",
		"Listen to calming music",
	},
	model.RiskLow: {
		"Continue current wellness practices",
		"Maintain regular exercise routine",
		"Keep up healthy sleep schedule",
		"Stay connected with support network",
	},
}

// Predict forecasts the next mood from the last week of chronological
// scores. A steep drop raises the risk level even when the average is fine.
func Predict(chronological []int) model.MoodPrediction {
	recent := chronological
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}

	avg, trend, confidence := BaselineScore, 0.0, 0.0
	if len(recent) > 0 {
		avg = meanInts(recent)
		trend = float64(recent[len(recent)-1] - recent[0])
		// more points, more confidence; capped at 0.95
		confidence = 0.75 + 0.2*float64(len(recent))/float64(trendWindow)
	}

	risk := model.RiskLow
	switch {
	case avg < 40 || trend < -20:
		risk = model.RiskHigh
	case avg < 60 || trend < -10:
		risk = model.RiskModerate
	}

	suggestions := append([]string(nil), predictionSuggestions[risk]...)
	return model.MoodPrediction{
		PredictedMood:           avg,
		RiskLevel:               risk,
		InterventionSuggestions: suggestions,
		Confidence:              confidence,
	}
}
