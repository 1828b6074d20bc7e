package httpmiddleware

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterProvider is satisfied by telemetry bundles exposing an OTel meter
// provider.
type MeterProvider interface {
	MeterProvider() metric.MeterProvider
}

// Instrument records request count and latency per route and status.
// A nil provider disables recording.
func Instrument(service string, find RouteFinder, m MeterProvider) Middleware {
	var mp metric.MeterProvider = noop.NewMeterProvider()
	if m != nil {
		if p := m.MeterProvider(); p != nil {
			mp = p
		}
	}
	meter := mp.Meter("github.com/xenking/katalog-toko/pkg/httpmiddleware")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Handled HTTP requests."),
	)
	if err != nil {
		requests, _ = noop.Meter{}.Int64Counter("http.server.requests")
	}
	latency, err := meter.Float64Histogram("http.server.latency",
		metric.WithDescription("HTTP request latency."),
		metric.WithUnit("s"),
	)
	if err != nil {
		latency, _ = noop.Meter{}.Float64Histogram("http.server.latency")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			attrs := metric.WithAttributes(
				attribute.String("service", service),
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routeLabel(find, r)),
				attribute.String("http.status_code", strconv.Itoa(sw.Status())),
			)
			ctx := r.Context()
			requests.Add(ctx, 1, attrs)
			latency.Record(ctx, time.Since(start).Seconds(), attrs)
		})
	}
}

// Labeler adds the matched route to the otelhttp labeler so the transport
// level metrics of otelhttp.NewHandler carry it.
func Labeler(find RouteFinder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l, ok := otelhttp.LabelerFromContext(r.Context()); ok {
				l.Add(attribute.String("http.route", routeLabel(find, r)))
			}
			next.ServeHTTP(w, r)
		})
	}
}
