package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/mycelian-journal/internal/emotion"
	"github.com/mycelian/mycelian-journal/internal/mood"
)

type frameSource struct {
	calls atomic.Int32
	fail  func(n int32) bool
}

func (f *frameSource) Capture(context.Context) (emotion.Frame, error) {
	n := f.calls.Add(1)
	if f.fail != nil && f.fail(n) {
		return emotion.Frame{}, errors.New("camera busy")
	}
	return emotion.Frame{Data: []byte{byte(n), 1, 2, 3}, Width: 2, Height: 2}, nil
}

type happyScorer struct{}

func (happyScorer) Score(context.Context, emotion.Frame) (map[string]float64, error) {
	return map[string]float64{emotion.Happy: 1}, nil
}

func TestSession_StopPreventsFurtherCallbacks(t *testing.T) {
	src := &frameSource{}
	s := NewSampler(src, emotion.NewFacialClassifier(happyScorer{}), zerolog.Nop())

	var got atomic.Int32
	sess := s.Start(context.Background(), 5*time.Millisecond, nil, func(Sample) { got.Add(1) })

	require.Eventually(t, func() bool { return got.Load() >= 2 }, time.Second, time.Millisecond)
	sess.Stop()
	after := got.Load()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, got.Load())
	select {
	case <-sess.Done():
	default:
		t.Fatal("session loop still running after Stop")
	}

	sess.Stop()
}

func TestSession_ParentContextEndsLoop(t *testing.T) {
	s := NewSampler(&frameSource{}, emotion.NewFacialClassifier(nil), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	sess := s.Start(ctx, time.Millisecond, nil, nil)

	cancel()
	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on context cancel")
	}
}

func TestSession_SkipsFailedCapturesAndTracksMood(t *testing.T) {
	src := &frameSource{fail: func(n int32) bool { return n%2 == 0 }}
	s := NewSampler(src, emotion.NewFacialClassifier(happyScorer{}), zerolog.Nop())
	tracker := mood.NewTracker(40)

	var (
		mu      sync.Mutex
		samples []Sample
	)
	sess := s.Start(context.Background(), 2*time.Millisecond, tracker, func(smp Sample) {
		mu.Lock()
		samples = append(samples, smp)
		mu.Unlock()
	})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(samples) >= 2
	}, time.Second, time.Millisecond)
	sess.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, emotion.Happy, samples[0].Result.DominantEmotion)
	assert.Equal(t, 100, samples[0].FaceMood)
	assert.Equal(t, 70, samples[0].SessionMood)
	assert.Equal(t, 85, samples[1].SessionMood)

	score, last, n := tracker.Snapshot()
	assert.GreaterOrEqual(t, n, len(samples))
	assert.NotNil(t, last)
	assert.GreaterOrEqual(t, score, 85)
}
