package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// --- Helpers ---

type hit struct {
	remote string
	header map[string]string
	want   int
}

func serve(t *testing.T, h http.Handler, in hit) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	if in.remote != "" {
		req.RemoteAddr = in.remote
	}
	for k, v := range in.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// --- Tests ---

func TestRateLimit(t *testing.T) {
	byKey := func(r *http.Request) string { return r.Header.Get("X-Admin-Key") }
	xff := map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}

	tests := []struct {
		name string
		cfg  RateLimitConfig
		hits []hit
	}{
		{
			name: "under limit",
			cfg:  RateLimitConfig{Max: 3, Window: time.Minute},
			hits: []hit{
				{remote: "192.168.1.1:1", want: http.StatusOK},
				{remote: "192.168.1.1:2", want: http.StatusOK},
				{remote: "192.168.1.1:3", want: http.StatusOK},
			},
		},
		{
			name: "clients are independent",
			cfg:  RateLimitConfig{Max: 1, Window: time.Minute},
			hits: []hit{
				{remote: "10.0.0.1:1", want: http.StatusOK},
				{remote: "10.0.0.2:1", want: http.StatusOK},
				{remote: "10.0.0.1:2", want: http.StatusTooManyRequests},
			},
		},
		{
			name: "custom key",
			cfg:  RateLimitConfig{Max: 1, Window: time.Minute, KeyFunc: byKey},
			hits: []hit{
				{header: map[string]string{"X-Admin-Key": "a"}, want: http.StatusOK},
				{header: map[string]string{"X-Admin-Key": "a"}, want: http.StatusTooManyRequests},
				{header: map[string]string{"X-Admin-Key": "b"}, want: http.StatusOK},
			},
		},
		{
			name: "forwarded client wins over proxy address",
			cfg:  RateLimitConfig{Max: 1, Window: time.Minute},
			hits: []hit{
				{remote: "192.168.1.1:1", header: xff, want: http.StatusOK},
				{remote: "192.168.1.2:1", header: xff, want: http.StatusTooManyRequests},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RateLimit(tt.cfg)(okHandler())
			for i, in := range tt.hits {
				w := serve(t, h, in)
				assert.Equal(t, in.want, w.Code, "hit %d", i+1)
				assert.Equal(t, strconv.Itoa(tt.cfg.Max), w.Header().Get("X-RateLimit-Limit"))
				assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
			}
		})
	}
}

func TestRateLimit_RejectionBody(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	require.Equal(t, http.StatusOK, serve(t, h, hit{remote: "10.0.0.1:1"}).Code)
	w := serve(t, h, hit{remote: "10.0.0.1:1"})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body failure
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "Too many requests, try again later", body.Message)
}

func TestRateLimit_Disabled(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 0, Window: time.Minute})(okHandler())

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	d := l.Allow("a", start)
	require.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, start.Add(time.Minute), d.ResetAt)

	require.True(t, l.Allow("a", start.Add(time.Second)).Allowed)
	denied := l.Allow("a", start.Add(2*time.Second))
	assert.False(t, denied.Allowed)
	assert.Equal(t, 58, denied.RetryAfter(start.Add(2*time.Second)))

	// A quarter into the next window three quarters of the previous count
	// still applies: 2*0.75 = 1.5 < 2.
	next := start.Add(time.Minute + 15*time.Second)
	assert.True(t, l.Allow("a", next).Allowed)
	assert.False(t, l.Allow("a", next).Allowed)

	// Two windows later the history is gone.
	later := start.Add(3 * time.Minute)
	d = l.Allow("a", later)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestLimiter_Prune(t *testing.T) {
	l := NewLimiter(5, time.Minute)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	l.Allow("a", now)
	l.Allow("b", now.Add(90*time.Second))
	require.Equal(t, 2, l.Len())

	l.Prune(now.Add(2 * time.Minute))
	assert.Equal(t, 1, l.Len())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded first hop", headers: map[string]string{"X-Forwarded-For": " 203.0.113.9 , 10.0.0.1"}, remote: "10.0.0.2:1", want: "203.0.113.9"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, remote: "10.0.0.2:1", want: "198.51.100.7"},
		{name: "remote addr", remote: "10.0.0.2:1234", want: "10.0.0.2"},
		{name: "remote without port", remote: "pipe", want: "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
