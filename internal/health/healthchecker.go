package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers (store, embedder, llm).
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker aggregates component checkers into a single service
// health flag. Degradable checkers are reported but never make the service
// unhealthy.
type ServiceHealthChecker struct {
	healthy    atomic.Int32
	deps       []HealthChecker
	degradable []HealthChecker
	log        zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	h := &ServiceHealthChecker{deps: deps, log: log}
	h.healthy.Store(0)
	return h
}

// WithDegradable adds checkers whose failure only degrades the service.
func (h *ServiceHealthChecker) WithDegradable(cs ...HealthChecker) *ServiceHealthChecker {
	h.degradable = append(h.degradable, cs...)
	return h
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() == 1 }

// Degraded reports whether any degradable dependency is unhealthy.
func (h *ServiceHealthChecker) Degraded() bool {
	for _, c := range h.degradable {
		if !c.IsHealthy() {
			return true
		}
	}
	return false
}

// Components returns the cached health of each dependency by name.
func (h *ServiceHealthChecker) Components() map[string]bool {
	out := make(map[string]bool, len(h.deps)+len(h.degradable))
	for _, c := range h.all() {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

func (h *ServiceHealthChecker) all() []HealthChecker {
	return append(append([]HealthChecker{}, h.deps...), h.degradable...)
}

type prober interface {
	Check(ctx context.Context) bool
}

// StartAll probes every dependency once, evaluates service health, then
// launches the checker loops and the aggregate loop. All loops stop when ctx
// is done.
func (h *ServiceHealthChecker) StartAll(ctx context.Context, interval time.Duration) {
	var wg sync.WaitGroup
	for _, c := range h.all() {
		if p, ok := c.(prober); ok {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Check(ctx)
			}()
		}
	}
	wg.Wait()
	h.evaluate()

	for _, c := range h.all() {
		go c.Start(ctx, interval)
	}
	go h.Start(ctx, interval)
}

// Start periodically evaluates dependency health and updates the service flag.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.evaluate()
		}
	}
}

func (h *ServiceHealthChecker) evaluate() {
	cur := int32(1)
	for _, c := range h.deps {
		if !c.IsHealthy() {
			cur = 0
			h.log.Debug().Str("checker", c.Name()).Msg("dependency unhealthy")
		}
	}
	for _, c := range h.degradable {
		if !c.IsHealthy() {
			h.log.Debug().Str("checker", c.Name()).Msg("dependency degraded")
		}
	}
	if prev := h.healthy.Swap(cur); prev != cur {
		if cur == 1 {
			h.log.Info().Msg("service health: UP")
		} else {
			h.log.Error().Stack().Msg("service health: DOWN")
		}
	}
}

// PingChecker probes a HealthPinger on an interval and caches the result.
type PingChecker struct {
	name         string
	target       HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewPingChecker starts unhealthy until the first successful probe.
func NewPingChecker(name string, target HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *PingChecker {
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	return &PingChecker{name: name, target: target, log: log, probeTimeout: probeTimeout}
}

func (c *PingChecker) Name() string    { return c.name }
func (c *PingChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Check runs one probe and records the outcome.
func (c *PingChecker) Check(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	if err := c.target.HealthPing(checkCtx); err != nil {
		if c.IsHealthy() {
			c.log.Error().Stack().Str("checker", c.name).Err(err).Msg("health check failed")
		}
		c.healthy.Store(0)
		return false
	}
	c.healthy.Store(1)
	return true
}

func (c *PingChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// PingFunc adapts a function to HealthPinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) HealthPing(ctx context.Context) error { return f(ctx) }
