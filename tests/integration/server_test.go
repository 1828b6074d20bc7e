//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
)

func TestProbes(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp := doGet(t, path)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
				t.Errorf("Cache-Control: got %q, want no-store", cc)
			}

			body := decodeJSON[envelope[healthStatus]](t, resp)
			if !body.Success || body.Data.Status != "ok" {
				t.Fatalf("unexpected probe body: %+v", body)
			}
		})
	}
}

func TestResponseHeaders(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		request map[string]string
		status  int
		want    map[string]string
		present []string
	}{
		{
			name:    "generated request id",
			method:  http.MethodGet,
			path:    "/livez",
			status:  http.StatusOK,
			present: []string{"X-Request-ID"},
		},
		{
			name:    "echoed request id",
			method:  http.MethodGet,
			path:    "/livez",
			request: map[string]string{"X-Request-ID": "custom-request-id-12345"},
			status:  http.StatusOK,
			want:    map[string]string{"X-Request-ID": "custom-request-id-12345"},
		},
		{
			name:   "cors preflight",
			method: http.MethodOptions,
			path:   "/api/products",
			request: map[string]string{
				"Origin":                        "http://example.com",
				"Access-Control-Request-Method": "GET",
			},
			status:  http.StatusNoContent,
			present: []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Methods"},
		},
		{
			name:   "security headers",
			method: http.MethodGet,
			path:   "/api/categories",
			status: http.StatusOK,
			want: map[string]string{
				"X-Content-Type-Options": "nosniff",
				"X-Frame-Options":        "DENY",
			},
		},
		{
			name:    "rate limit headers",
			method:  http.MethodGet,
			path:    "/api/products",
			status:  http.StatusOK,
			want:    map[string]string{"X-RateLimit-Limit": "1000"},
			present: []string{"X-RateLimit-Remaining", "X-RateLimit-Reset"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequestWithContext(context.Background(), tt.method, baseURL+tt.path, nil)
			if err != nil {
				t.Fatalf("create request: %v", err)
			}
			for k, v := range tt.request {
				req.Header.Set(k, v)
			}

			resp, err := httpClient.Do(req)
			if err != nil {
				t.Fatalf("do request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			for k, v := range tt.want {
				if got := resp.Header.Get(k); got != v {
					t.Errorf("%s: got %q, want %q", k, got, v)
				}
			}
			for _, k := range tt.present {
				if resp.Header.Get(k) == "" {
					t.Errorf("%s header not present", k)
				}
			}
		})
	}
}
