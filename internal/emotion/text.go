// Package emotion scores journal text and facial frames. The text scorer is
// keyword based; the facial scorer wraps an injectable model boundary.
package emotion

import (
	"math"
	"math/rand"
	"strings"

	"github.com/mycelian/mycelian-journal/internal/model"
)

// Text emotion labels.
const (
	Joy      = "joy"
	Sadness  = "sadness"
	Anger    = "anger"
	Fear     = "fear"
	Surprise = "surprise"
	Disgust  = "disgust"
)

// TextLabels lists text emotion labels in canonical order.
var TextLabels = []string{Joy, Sadness, Anger, Fear, Surprise, Disgust}

var (
	positiveWords = []string{"happy", "good", "great", "excellent", "wonderful", "amazing", "love", "joy", "excited", "grateful"}
	negativeWords = []string{"sad", "bad", "terrible", "awful", "hate", "depressed", "anxious", "worried", "angry", "frustrated"}
)

const neutralConfidence = 0.5

// band is a score range; the deterministic value is its midpoint and jitter
// spreads across the full range.
type band struct{ lo, hi float64 }

func (b band) value(r *rand.Rand) float64 {
	if r == nil {
		return (b.lo + b.hi) / 2
	}
	return b.lo + r.Float64()*(b.hi-b.lo)
}

var (
	scorePositive = band{0.7, 1.0}
	scoreNegative = band{0.0, 0.5}
	scoreNeutral  = band{0.4, 0.6}
	jitterNeutral = band{0, 0.3}

	// triggered, quiet
	joyBands     = [2]band{{0.6, 0.9}, {0.0, 0.3}}
	sadnessBands = [2]band{{0.6, 0.9}, {0.0, 0.3}}
	angerBands   = [2]band{{0.4, 0.7}, {0.0, 0.2}}
	fearBands    = [2]band{{0.3, 0.6}, {0.0, 0.2}}
	disgustBands = [2]band{{0.2, 0.5}, {0.0, 0.2}}
	surpriseBand = band{0.0, 0.3}
)

// TextClassifier labels text by counting positive and negative keywords.
type TextClassifier struct {
	rnd *rand.Rand
}

// TextOption configures a TextClassifier.
type TextOption func(*TextClassifier)

// WithJitter spreads confidence and emotion scores across their documented
// bands using r. Labels are unaffected. Not safe for concurrent use.
func WithJitter(r *rand.Rand) TextOption {
	return func(c *TextClassifier) { c.rnd = r }
}

// NewTextClassifier returns a deterministic classifier unless WithJitter is given.
func NewTextClassifier(opts ...TextOption) *TextClassifier {
	c := &TextClassifier{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Counts returns how many whitespace-separated tokens contain a positive and
// a negative keyword. A token can count toward both.
func Counts(text string) (positive, negative int) {
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if containsAny(tok, positiveWords) {
			positive++
		}
		if containsAny(tok, negativeWords) {
			negative++
		}
	}
	return positive, negative
}

func containsAny(tok string, words []string) bool {
	for _, w := range words {
		if strings.Contains(tok, w) {
			return true
		}
	}
	return false
}

// Classify scores text. Empty text is neutral with baseline values.
func (c *TextClassifier) Classify(text string) model.SentimentResult {
	pos, neg := Counts(text)

	res := model.SentimentResult{Label: model.SentimentNeutral}
	switch {
	case pos > neg:
		res.Label = model.SentimentPositive
		res.Confidence = math.Min(0.9, 0.6+float64(pos-neg)*0.1)
		res.Score = scorePositive.value(c.rnd)
	case neg > pos:
		res.Label = model.SentimentNegative
		res.Confidence = math.Min(0.9, 0.6+float64(neg-pos)*0.1)
		res.Score = scoreNegative.value(c.rnd)
	default:
		res.Confidence = neutralConfidence
		if c.rnd != nil {
			res.Confidence += jitterNeutral.value(c.rnd)
		}
		res.Score = scoreNeutral.value(c.rnd)
	}

	res.Emotions = c.emotions(res.Label)
	return res
}

func (c *TextClassifier) emotions(label model.SentimentLabel) map[string]float64 {
	pick := func(b [2]band, on bool) float64 {
		if on {
			return b[0].value(c.rnd)
		}
		return b[1].value(c.rnd)
	}
	pos := label == model.SentimentPositive
	neg := label == model.SentimentNegative
	return map[string]float64{
		Joy:      pick(joyBands, pos),
		Sadness:  pick(sadnessBands, neg),
		Anger:    pick(angerBands, neg),
		Fear:     pick(fearBands, neg),
		Surprise: surpriseBand.value(c.rnd),
		Disgust:  pick(disgustBands, neg),
	}
}
