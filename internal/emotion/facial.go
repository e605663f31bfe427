package emotion

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"slices"
	"time"

	"github.com/mycelian/mycelian-journal/internal/model"
)

// Facial expression labels.
const (
	Happy     = "happy"
	Sad       = "sad"
	Angry     = "angry"
	Fearful   = "fearful"
	Disgusted = "disgusted"
	Surprised = "surprised"
	Neutral   = "neutral"
)

// FacialLabels is the arg-max tie-break priority: earlier labels win ties.
var FacialLabels = []string{Neutral, Happy, Sad, Angry, Fearful, Surprised, Disgusted}

// ErrEmptyFrame is returned for frames with no pixel data.
var ErrEmptyFrame = errors.New("empty frame")

// Frame is one captured video frame. The classifier treats Data as opaque.
type Frame struct {
	Data       []byte
	Width      int
	Height     int
	CapturedAt time.Time
}

// FrameScorer is the expression model boundary. It returns raw non-negative
// scores per facial label; they need not be normalized.
type FrameScorer interface {
	Score(ctx context.Context, f Frame) (map[string]float64, error)
}

// FacialClassifier normalizes scorer output into a distribution and picks
// the dominant expression.
type FacialClassifier struct {
	scorer FrameScorer
}

// NewFacialClassifier wraps scorer; nil means HashScorer.
func NewFacialClassifier(scorer FrameScorer) *FacialClassifier {
	if scorer == nil {
		scorer = HashScorer{}
	}
	return &FacialClassifier{scorer: scorer}
}

// Classify returns a 7-way distribution summing to 1, the arg-max label, and
// a confidence in [0.7, 1.0].
func (c *FacialClassifier) Classify(ctx context.Context, f Frame) (model.FacialResult, error) {
	if len(f.Data) == 0 {
		return model.FacialResult{}, ErrEmptyFrame
	}
	raw, err := c.scorer.Score(ctx, f)
	if err != nil {
		return model.FacialResult{}, fmt.Errorf("score frame: %w", err)
	}

	dist := Distribution(raw)
	dominant, top := Dominant(dist)
	captured := f.CapturedAt
	if captured.IsZero() {
		captured = time.Now().UTC()
	}
	return model.FacialResult{
		Emotions:        dist,
		DominantEmotion: dominant,
		Confidence:      0.7 + 0.3*top,
		CapturedAt:      captured,
	}, nil
}

// Distribution normalizes raw scores over FacialLabels. Unknown labels are
// ignored and negative scores count as zero; an all-zero input becomes uniform.
func Distribution(raw map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(FacialLabels))
	var total float64
	for _, l := range FacialLabels {
		v := raw[l]
		if v < 0 {
			v = 0
		}
		out[l] = v
		total += v
	}
	for _, l := range FacialLabels {
		if total == 0 {
			out[l] = 1 / float64(len(FacialLabels))
		} else {
			out[l] /= total
		}
	}
	return out
}

// NormalizeResult rebuilds a facial result received from a client: scores are
// renormalized over FacialLabels and the dominant label and confidence are
// recomputed. Negative, NaN or infinite scores are rejected, as is a result
// without any known label.
func NormalizeResult(in model.FacialResult) (model.FacialResult, error) {
	known := 0
	for l, v := range in.Emotions {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return model.FacialResult{}, model.NewValidationError("facialAnalysis.emotions", fmt.Sprintf("score for %q must be a non-negative number", l))
		}
		if slices.Contains(FacialLabels, l) {
			known++
		}
	}
	if known == 0 {
		return model.FacialResult{}, model.NewValidationError("facialAnalysis.emotions", "at least one expression score is required")
	}

	dist := Distribution(in.Emotions)
	dominant, top := Dominant(dist)
	captured := in.CapturedAt
	if captured.IsZero() {
		captured = time.Now().UTC()
	}
	return model.FacialResult{
		Emotions:        dist,
		DominantEmotion: dominant,
		Confidence:      0.7 + 0.3*top,
		CapturedAt:      captured,
	}, nil
}

// Dominant returns the highest scoring label, resolving ties by FacialLabels order.
func Dominant(dist map[string]float64) (string, float64) {
	best, bestScore := FacialLabels[0], dist[FacialLabels[0]]
	for _, l := range FacialLabels[1:] {
		if dist[l] > bestScore {
			best, bestScore = l, dist[l]
		}
	}
	return best, bestScore
}

// HashScorer derives stable pseudo-scores from frame bytes. It stands in for
// an expression model so the sampling path can run end to end.
type HashScorer struct{}

// Score is deterministic for identical frame data.
func (HashScorer) Score(_ context.Context, f Frame) (map[string]float64, error) {
	h := fnv.New64a()
	_, _ = h.Write(f.Data)
	seed := h.Sum64()

	out := make(map[string]float64, len(FacialLabels))
	for _, l := range FacialLabels {
		seed = seed*6364136223846793005 + 1442695040888963407
		out[l] = float64(seed>>11) / float64(1<<53)
	}
	return out, nil
}

// MoodFromExpressions converts a facial distribution to a 1-100 mood score:
// positive expressions weigh 100, neutral 50, negative 10.
func MoodFromExpressions(dist map[string]float64) int {
	positive := dist[Happy] + dist[Surprised]
	negative := dist[Sad] + dist[Angry] + dist[Fearful] + dist[Disgusted]
	score := positive*100 + dist[Neutral]*50 + negative*10
	return clampScore(int(score + 0.5))
}

func clampScore(s int) int {
	if s < 1 {
		return 1
	}
	if s > 100 {
		return 100
	}
	return s
}

// Intensity buckets an emotion probability.
func Intensity(p float64) string {
	switch {
	case p < 0.4:
		return "low"
	case p < 0.7:
		return "medium"
	default:
		return "high"
	}
}

// OverallMood labels a mood score.
func OverallMood(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Neutral"
	case score >= 20:
		return "Low"
	default:
		return "Poor"
	}
}
