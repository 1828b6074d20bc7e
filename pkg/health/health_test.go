package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

// --- Helpers ---

func passing() CheckFunc {
	return func(context.Context) error { return nil }
}

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func probe(t *testing.T, handler http.HandlerFunc) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func runN(p *Probes, kind Kind, idx, n int) {
	c := p.checks[kind][idx]
	for range n {
		c.run(context.Background())
	}
}

// --- Tests ---

func TestLivez_AllPassing(t *testing.T) {
	p := New()
	p.Register(Liveness, "a", passing())
	p.Register(Liveness, "b", passing())

	code, body := probe(t, p.Livez)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, body.Success)
	assert.Equal(t, "ok", body.Data.Status)
	assert.Empty(t, body.Data.Checks)
}

func TestLivez_FailureThreshold(t *testing.T) {
	p := New()
	p.Register(Liveness, "postgres", failing("connection refused"))

	runN(p, Liveness, 0, 2)
	code, _ := probe(t, p.Livez)
	assert.Equal(t, http.StatusOK, code, "two failures stay below the threshold")

	runN(p, Liveness, 0, 1)
	code, body := probe(t, p.Livez)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, body.Success)
	assert.Equal(t, "unhealthy", body.Data.Status)
	assert.Equal(t, map[string]string{"postgres": "connection refused"}, body.Data.Checks)
}

func TestWithThresholds(t *testing.T) {
	down := true
	p := New()
	p.Register(Liveness, "flaky", func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	}, WithThresholds(1, 2), WithTimeout(time.Second))

	runN(p, Liveness, 0, 1)
	assert.Len(t, p.failures(Liveness), 1)

	down = false
	runN(p, Liveness, 0, 1)
	assert.Len(t, p.failures(Liveness), 1, "one success is not enough")
	runN(p, Liveness, 0, 1)
	assert.Empty(t, p.failures(Liveness))
}

func TestReadyz(t *testing.T) {
	p := New()
	p.Register(Readiness, "postgres", passing())
	p.Register(Readiness, "redis", failing("dial tcp: refused"))

	code, body := probe(t, p.Readyz)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Data.Checks, "_readiness")
	assert.False(t, p.Ready())

	p.SetReady(true)
	code, _ = probe(t, p.Readyz)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, p.Ready())

	runN(p, Readiness, 1, 3)
	code, body = probe(t, p.Readyz)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Data.Checks, "redis")
	assert.NotContains(t, body.Data.Checks, "postgres")
	assert.NotContains(t, body.Data.Checks, "_readiness")
	assert.False(t, p.Ready())

	p.SetReady(false)
	_, body = probe(t, p.Readyz)
	assert.Contains(t, body.Data.Checks, "_readiness")
}

func TestReadyz_NoChecks(t *testing.T) {
	p := New()
	p.SetReady(true)

	code, body := probe(t, p.Readyz)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Data.Status)
}

func TestStartStop(t *testing.T) {
	p := New()
	p.Register(Liveness, "goroutines", GoroutineCountCheck(1_000_000))
	p.Register(Readiness, "store", failing("err"), WithThresholds(1, 1))
	p.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool { return !p.Ready() }, time.Second, 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				p.Ready()
				p.Livez(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				p.Readyz(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()

	p.Stop()
	p.Stop()
}

func TestPingCheck(t *testing.T) {
	ok := PingCheck("postgres", &mockPinger{})
	assert.NoError(t, ok(context.Background()))

	down := PingCheck("redis", &mockPinger{err: errors.New("refused")})
	err := down(context.Background())
	require.Error(t, err)
	assert.Equal(t, "ping redis: refused", err.Error())
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
