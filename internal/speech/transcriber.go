// Package speech turns a recognizer's result stream into journal text.
// The recognizer itself (browser or device API) lives outside the service.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNoSpeechDetected is returned when a session ends without any final result.
	ErrNoSpeechDetected = errors.New("no speech detected")
	// ErrAlreadyListening is returned when Transcribe is called during another session.
	ErrAlreadyListening = errors.New("already listening")
)

// Default session bounds.
const (
	DefaultMaxDuration = 30 * time.Second
	DefaultIdleTimeout = 2 * time.Second
)

// Result is one recognition event.
type Result struct {
	Text       string
	Confidence float64
	Final      bool
}

// Recognizer produces results until ctx is done or Stop is called, then
// closes the channel.
type Recognizer interface {
	Start(ctx context.Context) (<-chan Result, error)
	Stop() error
}

// Transcriber runs one bounded recognition session at a time.
type Transcriber struct {
	rec         Recognizer
	maxDuration time.Duration
	idleTimeout time.Duration
	listening   atomic.Bool
	log         zerolog.Logger
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithTimeouts overrides the hard session limit and the silence timeout.
func WithTimeouts(maxDuration, idle time.Duration) Option {
	return func(t *Transcriber) {
		if maxDuration > 0 {
			t.maxDuration = maxDuration
		}
		if idle > 0 {
			t.idleTimeout = idle
		}
	}
}

func NewTranscriber(rec Recognizer, log zerolog.Logger, opts ...Option) *Transcriber {
	t := &Transcriber{
		rec:         rec,
		maxDuration: DefaultMaxDuration,
		idleTimeout: DefaultIdleTimeout,
		log:         log,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Listening reports whether a session is in progress.
func (t *Transcriber) Listening() bool { return t.listening.Load() }

// Transcribe collects final results until the recognizer goes quiet for the
// idle timeout, the hard limit elapses or the stream ends, whichever is
// first. Every result, interim or final, restarts the idle timer.
func (t *Transcriber) Transcribe(ctx context.Context) (string, error) {
	if !t.listening.CompareAndSwap(false, true) {
		return "", ErrAlreadyListening
	}
	defer t.listening.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results, err := t.rec.Start(ctx)
	if err != nil {
		return "", fmt.Errorf("start recognizer: %w", err)
	}
	defer func() {
		if err := t.rec.Stop(); err != nil {
			t.log.Warn().Err(err).Msg("stop recognizer")
		}
	}()

	hard := time.NewTimer(t.maxDuration)
	defer hard.Stop()

	var (
		idle  *time.Timer
		idleC <-chan time.Time
		text  strings.Builder
	)
	defer func() {
		if idle != nil {
			idle.Stop()
		}
	}()

	for {
		select {
		case r, ok := <-results:
			if !ok {
				if err := ctx.Err(); err != nil {
					return "", err
				}
				return finish(text.String())
			}
			if r.Final {
				text.WriteString(r.Text)
				text.WriteByte(' ')
			}
			if idle == nil {
				idle = time.NewTimer(t.idleTimeout)
				idleC = idle.C
			} else {
				idle.Reset(t.idleTimeout)
			}
		case <-idleC:
			t.log.Debug().Msg("transcription ended on silence")
			return finish(text.String())
		case <-hard.C:
			t.log.Debug().Dur("limit", t.maxDuration).Msg("transcription hit time limit")
			return finish(text.String())
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func finish(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrNoSpeechDetected
	}
	return s, nil
}
