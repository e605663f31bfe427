package insight

import (
	"strings"

	"github.com/mycelian/mycelian-journal/internal/model"
)

var fallbackStrategies = map[model.RiskLevel][]string{
	model.RiskLow: {
		"Continue with regular exercise and outdoor activities",
		"Practice gratitude by writing down three good things each day",
		"Maintain social connections with friends and family",
		"Keep a consistent sleep schedule",
	},
	model.RiskModerate: {
		"Try the 4-7-8 breathing technique when feeling stressed",
		"Take short breaks every hour to stretch or walk",
		"Practice mindfulness meditation for 10 minutes daily",
		"Limit caffeine and alcohol consumption",
		"Engage in a creative or enjoyable hobby",
	},
	model.RiskHigh: {
		"Focus on basic needs: eat, hydrate, rest",
		"Use grounding techniques (5-4-3-2-1 sensory method)",
		"Reach out to a trusted friend, family member, or counselor",
		"Consider contacting a mental health crisis line",
		"Avoid making major decisions while in distress",
	},
}

var fallbackPlans = map[model.RiskLevel]model.InterventionPlan{
	model.RiskLow: {
		Immediate: []string{"Continue current wellness practices", "Celebrate today's positive moments"},
		ShortTerm: []string{"Maintain regular exercise routine", "Keep up healthy sleep schedule"},
		LongTerm:  []string{"Build resilience through mindfulness practice", "Strengthen social connections"},
		Resources: []string{"Mental health apps", "Wellness podcasts", "Community groups"},
	},
	model.RiskModerate: {
		Immediate: []string{"Practice deep breathing", "Ensure basic needs are met"},
		ShortTerm: []string{"Implement stress management techniques", "Schedule regular self-care"},
		LongTerm:  []string{"Consider counseling or therapy", "Develop coping skill toolkit"},
		Resources: []string{"Therapist directory", "Mental health apps", "Support groups"},
	},
	model.RiskHigh: {
		Immediate: []string{"Ensure safety", "Contact support system", "Consider professional help"},
		ShortTerm: []string{"Schedule mental health appointment", "Daily wellness check-ins"},
		LongTerm:  []string{"Ongoing therapy or counseling", "Medication evaluation if needed"},
		Resources: []string{"Crisis hotline: 988", "Emergency services: 911", "Local mental health centers"},
	},
}

// FallbackStrategies returns a copy of the canonical list for risk.
// Unknown levels get the moderate list.
func FallbackStrategies(risk model.RiskLevel) []string {
	list, ok := fallbackStrategies[risk]
	if !ok {
		list = fallbackStrategies[model.RiskModerate]
	}
	return append([]string(nil), list...)
}

// FallbackPlan returns a copy of the canonical plan for risk.
// Unknown levels get the moderate plan.
func FallbackPlan(risk model.RiskLevel) model.InterventionPlan {
	p, ok := fallbackPlans[risk]
	if !ok {
		p = fallbackPlans[model.RiskModerate]
	}
	return model.InterventionPlan{
		Immediate: append([]string(nil), p.Immediate...),
		ShortTerm: append([]string(nil), p.ShortTerm...),
		LongTerm:  append([]string(nil), p.LongTerm...),
		Resources: append([]string(nil), p.Resources...),
	}
}

// Opening sentences of the fallback insight, by mood bucket.
const (
	insightOpening  = "Thank you for sharing your thoughts with me. "
	framingPositive = "I can see you've been maintaining a positive outlook overall, which shows great resilience. "
	framingConcern  = "I notice you've been going through some challenging times. Your courage in continuing to journal and seek support is admirable. "
	framingNeutral  = "You're navigating through various emotions, which is completely normal and human. "
	clauseImproving = "The positive trend in your recent entries suggests that the strategies you're using are helping. Keep up the good work! "
	clauseDeclining = "I see there have been some ups and downs recently. Remember that healing isn't always linear, and it's okay to have difficult days. "
	insightClosing  = "Consider practicing mindfulness, connecting with supportive people in your life, and maintaining healthy routines. " +
		"Remember, seeking help is a sign of strength, not weakness."
)

// FallbackInsight is the templated insight for a mood score and trend:
// above 70 is framed positively, below 40 with concern.
func FallbackInsight(score float64, trend model.Trend) string {
	var b strings.Builder
	b.WriteString(insightOpening)
	switch {
	case score > 70:
		b.WriteString(framingPositive)
	case score < 40:
		b.WriteString(framingConcern)
	default:
		b.WriteString(framingNeutral)
	}
	switch trend {
	case model.TrendImproving:
		b.WriteString(clauseImproving)
	case model.TrendDeclining:
		b.WriteString(clauseDeclining)
	}
	b.WriteString(insightClosing)
	return b.String()
}

var checkInMoodMessages = map[string]string{
	"excellent": "It's wonderful to see you feeling so positive! This is a great foundation to build upon.",
	"good":      "You're in a good place right now, which shows your resilience and strength.",
	"neutral":   "Neutral feelings are completely normal and valid. Every day doesn't need to be amazing.",
	"low":       "I hear that you're going through a challenging time. Your feelings are valid and temporary.",
	"poor":      "Thank you for sharing how you're feeling. Reaching out shows tremendous courage.",
}

var checkInRiskClauses = map[model.RiskLevel]string{
	model.RiskLow:      "Keep up the positive momentum with healthy habits and self-care.",
	model.RiskModerate: "Consider implementing some additional coping strategies and staying connected with your support system.",
	model.RiskHigh:     "Please prioritize self-care and don't hesitate to reach out to a mental health professional if needed.",
}

// FallbackCheckIn is the templated check-in reply for a mood label such as
// "Good" and a risk level.
func FallbackCheckIn(moodLabel string, risk model.RiskLevel) string {
	msg, ok := checkInMoodMessages[strings.ToLower(strings.TrimSpace(moodLabel))]
	if !ok {
		msg = checkInMoodMessages["neutral"]
	}
	clause, ok := checkInRiskClauses[risk]
	if !ok {
		clause = checkInRiskClauses[model.RiskModerate]
	}
	return msg + "\n\nBased on your recent journal entry and mood patterns, " + clause +
		"\n\nRemember that seeking support is a sign of strength, not weakness. " +
		"You're taking positive steps by monitoring your mental health and reflecting on your experiences."
}
