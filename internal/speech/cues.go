package speech

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	sentenceStart = regexp.MustCompile(`[.!?]\s+\p{Ll}`)
)

// FormatForJournal collapses whitespace and capitalizes sentence starts.
func FormatForJournal(transcript string) string {
	s := strings.TrimSpace(spaceRun.ReplaceAllString(transcript, " "))
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	s = string(r)
	return sentenceStart.ReplaceAllStringFunc(s, func(m string) string {
		rs := []rune(m)
		rs[len(rs)-1] = unicode.ToUpper(rs[len(rs)-1])
		return string(rs)
	})
}

var (
	cuePositive = set("happy", "good", "great", "excellent", "wonderful", "amazing", "love", "joy", "excited", "grateful", "peaceful", "calm")
	cueNegative = set("sad", "bad", "terrible", "awful", "hate", "depressed", "anxious", "worried", "angry", "frustrated", "overwhelmed", "stressed")
	intensifier = set("extremely", "very", "really", "so", "incredibly", "absolutely", "completely", "totally")
)

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Cues summarizes the emotional vocabulary of a transcript.
type Cues struct {
	EmotionalWords     []string `json:"emotionalWords"`
	Intensity          string   `json:"intensity"`
	SuggestedMoodScore int      `json:"suggestedMoodScore"`
}

// DetectCues matches whole words. Intensity is high with more than two
// intensifiers or five emotional words, medium with any intensifier or more
// than two emotional words.
func DetectCues(transcript string) Cues {
	var pos, neg, intense int
	words := []string{}
	for _, w := range strings.Fields(strings.ToLower(transcript)) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		if _, ok := cuePositive[w]; ok {
			pos++
			words = append(words, w)
		} else if _, ok := cueNegative[w]; ok {
			neg++
			words = append(words, w)
		} else if _, ok := intensifier[w]; ok {
			intense++
		}
	}

	intensity := "low"
	switch {
	case intense > 2 || len(words) > 5:
		intensity = "high"
	case intense > 0 || len(words) > 2:
		intensity = "medium"
	}

	score := 50
	switch {
	case pos > neg:
		score = min(90, 60+(pos-neg)*10)
	case neg > pos:
		score = max(10, 40-(neg-pos)*10)
	}

	return Cues{EmotionalWords: words, Intensity: intensity, SuggestedMoodScore: score}
}
