package mood

import (
	"sync"

	"github.com/mycelian/mycelian-journal/internal/model"
)

// Tracker holds the running mood of one capture session. Each facial result
// is blended with the current score as their rounded mean.
type Tracker struct {
	mu      sync.Mutex
	score   int
	last    *model.FacialResult
	samples int
}

// NewTracker starts a session at initial, clamped to [1,100].
func NewTracker(initial int) *Tracker {
	return &Tracker{score: clamp(initial)}
}

// Observe folds a facial mood score into the session and returns the new score.
func (t *Tracker) Observe(res model.FacialResult, faceScore int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.score = clamp((t.score + clamp(faceScore) + 1) / 2)
	r := res
	t.last = &r
	t.samples++
	return t.score
}

// Snapshot returns the current score, the last facial result and the sample count.
func (t *Tracker) Snapshot() (int, *model.FacialResult, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.score, t.last, t.samples
}

func clamp(s int) int {
	if s < 1 {
		return 1
	}
	if s > 100 {
		return 100
	}
	return s
}
