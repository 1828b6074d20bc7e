package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	// Max requests per Window. Zero or negative disables limiting.
	Max    int
	Window time.Duration
	// KeyFunc identifies the client. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
}

// Decision is the outcome of a single Limiter.Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns whole seconds until the window resets, relative to now.
func (d Decision) RetryAfter(now time.Time) int {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return int(math.Ceil(wait.Seconds()))
}

type window struct {
	prev      float64
	curr      float64
	currStart time.Time
}

// Limiter is a sliding window counter keyed by client. The previous window
// count is weighted by how much of it still overlaps the sliding window.
type Limiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	clients map[string]*window
}

// NewLimiter returns a limiter allowing max events per period.
func NewLimiter(max int, period time.Duration) *Limiter {
	if period <= 0 {
		period = time.Minute
	}
	return &Limiter{
		max:     max,
		window:  period,
		clients: make(map[string]*window),
	}
}

// Allow records an event for key at now if the key is under its limit.
func (l *Limiter) Allow(key string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[key]
	if !ok {
		w = &window{currStart: now.Truncate(l.window)}
		l.clients[key] = w
	}
	l.rotate(w, now)

	overlap := 1 - float64(now.Sub(w.currStart))/float64(l.window)
	if overlap < 0 {
		overlap = 0
	}
	used := w.prev*overlap + w.curr

	d := Decision{
		Limit:   l.max,
		ResetAt: w.currStart.Add(l.window),
	}
	if used >= float64(l.max) {
		return d
	}

	w.curr++
	d.Allowed = true
	d.Remaining = max(l.max-int(math.Ceil(used+1)), 0)
	return d
}

func (l *Limiter) rotate(w *window, now time.Time) {
	elapsed := now.Sub(w.currStart)
	switch {
	case elapsed < l.window:
		return
	case elapsed < 2*l.window:
		w.prev = w.curr
	default:
		w.prev = 0
	}
	w.curr = 0
	w.currStart = now.Truncate(l.window)
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Prune forgets clients idle for at least two windows.
func (l *Limiter) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.clients {
		if now.Sub(w.currStart) >= 2*l.window {
			delete(l.clients, key)
		}
	}
}

// PruneEvery runs Prune on the given interval until ctx is done.
func (l *Limiter) PruneEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Prune(now)
		}
	}
}

// RateLimit limits requests per client. Every response carries
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset; rejected
// requests get 429 with Retry-After and the API error envelope.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return Limit(NewLimiter(cfg.Max, cfg.Window), cfg.KeyFunc)
}

// RateLimitWithCleanup is RateLimit plus a goroutine pruning idle clients
// until ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 {
		return RateLimit(cfg)
	}
	l := NewLimiter(cfg.Max, cfg.Window)
	go l.PruneEvery(ctx, 2*l.window)
	return Limit(l, cfg.KeyFunc)
}

// Limit adapts a Limiter into middleware. A nil key func means ClientIP.
func Limit(l *Limiter, key func(*http.Request) string) Middleware {
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			d := l.Allow(key(r), now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(d.RetryAfter(now)))
				writeFailure(w, http.StatusTooManyRequests, "Too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
