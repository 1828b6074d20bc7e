// Package health serves liveness and readiness probes.
//
// Checks run in background goroutines. A check flips to unhealthy after
// FailureThreshold consecutive failures and back after SuccessThreshold
// consecutive successes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one component.
type CheckFunc func(ctx context.Context) error

// Kind selects the probe a check contributes to.
type Kind uint8

const (
	Liveness Kind = iota
	Readiness
)

// Option tunes a registered check.
type Option func(*check)

// WithTimeout bounds a single check run. Default is one second.
func WithTimeout(d time.Duration) Option {
	return func(c *check) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithThresholds sets the consecutive failure and success counts needed to
// flip state. Defaults are 3 and 1.
func WithThresholds(failures, successes int) Option {
	return func(c *check) {
		if failures > 0 {
			c.failureThreshold = failures
		}
		if successes > 0 {
			c.successThreshold = successes
		}
	}
}

// check is run from a single goroutine; healthy and lastErr are read from
// HTTP handlers.
type check struct {
	name             string
	fn               CheckFunc
	timeout          time.Duration
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails     int
	successes int
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.successes = 0
		c.fails++
		if c.fails >= c.failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	c.successes++
	if c.successes >= c.successThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) failure() (string, bool) {
	if c.healthy.Load() {
		return "", false
	}
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error(), true
	}
	return "check is unhealthy", true
}

// Probes holds registered checks and the manual readiness flag.
type Probes struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks [2][]*check
	cancel context.CancelFunc
}

// New returns probes that are live and not ready.
func New() *Probes {
	return &Probes{}
}

// Register adds a check. Checks start healthy.
func (p *Probes) Register(kind Kind, name string, fn CheckFunc, opts ...Option) {
	c := &check{
		name:             name,
		fn:               fn,
		timeout:          time.Second,
		failureThreshold: 3,
		successThreshold: 1,
	}
	for _, o := range opts {
		o(c)
	}
	c.healthy.Store(true)

	p.mu.Lock()
	p.checks[kind] = append(p.checks[kind], c)
	p.mu.Unlock()
}

// Start runs every check now and then on interval until Stop or ctx is done.
func (p *Probes) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	var all []*check
	for _, cs := range p.checks {
		all = append(all, cs...)
	}
	p.mu.Unlock()

	for _, c := range all {
		go loop(ctx, c, interval)
	}
}

func loop(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// Stop halts background checks. Safe to call repeatedly.
func (p *Probes) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// SetReady toggles the manual readiness flag, e.g. off while draining.
func (p *Probes) SetReady(ready bool) {
	p.ready.Store(ready)
}

// Ready reports the flag and all readiness checks.
func (p *Probes) Ready() bool {
	return p.ready.Load() && len(p.failures(Readiness)) == 0
}

func (p *Probes) failures(kind Kind) map[string]string {
	p.mu.RLock()
	checks := p.checks[kind]
	p.mu.RUnlock()

	out := make(map[string]string)
	for _, c := range checks {
		if msg, failed := c.failure(); failed {
			out[c.name] = msg
		}
	}
	return out
}

// Status is the probe payload inside the API envelope.
type Status struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type envelope struct {
	Success bool   `json:"success"`
	Data    Status `json:"data"`
}

// Livez serves the liveness probe.
func (p *Probes) Livez(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, p.failures(Liveness))
}

// Readyz serves the readiness probe.
func (p *Probes) Readyz(w http.ResponseWriter, _ *http.Request) {
	failures := p.failures(Readiness)
	if !p.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	body := envelope{Success: true, Data: Status{Status: "ok"}}
	code := http.StatusOK
	if len(failures) > 0 {
		body = envelope{Data: Status{Status: "unhealthy", Checks: failures}}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
