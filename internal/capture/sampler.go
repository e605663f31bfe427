// Package capture samples facial expressions from a frame source on a fixed
// interval for the lifetime of a capture session.
package capture

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/emotion"
	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/mood"
)

// DefaultInterval between samples.
const DefaultInterval = 3 * time.Second

var samplesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "journal",
		Name:      "capture_samples_total",
		Help:      "Facial capture attempts by outcome.",
	},
	[]string{"outcome"},
)

// FrameSource is the camera boundary.
type FrameSource interface {
	Capture(ctx context.Context) (emotion.Frame, error)
}

// Classifier scores one frame.
type Classifier interface {
	Classify(ctx context.Context, f emotion.Frame) (model.FacialResult, error)
}

// Sample is delivered to the session handler after each successful capture.
type Sample struct {
	Result      model.FacialResult
	FaceMood    int
	SessionMood int
}

// Handler receives samples on the session goroutine. It must not call Stop.
type Handler func(Sample)

// Sampler wires a frame source to a classifier.
type Sampler struct {
	src FrameSource
	cls Classifier
	log zerolog.Logger
}

func NewSampler(src FrameSource, cls Classifier, log zerolog.Logger) *Sampler {
	return &Sampler{src: src, cls: cls, log: log}
}

// Session is one running capture loop.
type Session struct {
	cancel  context.CancelFunc
	done    chan struct{}
	tracker *mood.Tracker
}

// Start runs the loop until ctx is done or Stop is called. tracker may be
// nil, in which case SessionMood equals FaceMood.
func (s *Sampler) Start(ctx context.Context, interval time.Duration, tracker *mood.Tracker, fn Handler) *Session {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	sess := &Session{cancel: cancel, done: make(chan struct{}), tracker: tracker}
	go s.loop(ctx, interval, sess, fn)
	return sess
}

func (s *Sampler) loop(ctx context.Context, interval time.Duration, sess *Session, fn Handler) {
	defer close(sess.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sample, ok := s.sample(ctx, sess.tracker)
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if fn != nil {
			fn(sample)
		}
	}
}

func (s *Sampler) sample(ctx context.Context, tracker *mood.Tracker) (Sample, bool) {
	frame, err := s.src.Capture(ctx)
	if err != nil {
		samplesTotal.WithLabelValues("capture_error").Inc()
		s.log.Debug().Err(err).Msg("frame capture failed")
		return Sample{}, false
	}
	res, err := s.cls.Classify(ctx, frame)
	if err != nil {
		samplesTotal.WithLabelValues("classify_error").Inc()
		s.log.Debug().Err(err).Msg("frame classification failed")
		return Sample{}, false
	}
	samplesTotal.WithLabelValues("ok").Inc()

	face := emotion.MoodFromExpressions(res.Emotions)
	session := face
	if tracker != nil {
		session = tracker.Observe(res, face)
	}
	return Sample{Result: res, FaceMood: face, SessionMood: session}, true
}

// Stop cancels the loop and waits for it to exit. No handler call happens
// after Stop returns. Safe to call more than once.
func (s *Session) Stop() {
	s.cancel()
	<-s.done
}

// Done is closed when the loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }
