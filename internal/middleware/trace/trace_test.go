package trace

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "kameti/internal/log"
)

func TestTracer(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Component: applog.ComponentHTTP, Output: &buf})
	tr := New(func(*http.Request) string { return "198.51.100.4" }, logger)

	var seen string
	h := tr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	tests := []struct {
		name     string
		path     string
		incoming string
		keep     bool
	}{
		{"generated", "/api/committees/x", "", false},
		{"client id kept", "/api/committees/x", "abc-123", true},
		{"unsafe id replaced", "/api/committees/x", "bad id\n", false},
		{"server error", "/boom", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.incoming != "" {
				r.Header.Set(HeaderRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			got := rec.Header().Get(HeaderRequestID)
			if got == "" || got != seen {
				t.Errorf("response id %q, handler id %q, want equal and non-empty", got, seen)
			}
			if tt.keep && got != tt.incoming {
				t.Errorf("request id = %q, want %q", got, tt.incoming)
			}
			if !tt.keep && !strings.HasPrefix(got, "req_") {
				t.Errorf("request id = %q, want generated", got)
			}
		})
	}

	stats := tr.Stats()
	if stats.Requests != 4 || stats.ServerErrors != 1 {
		t.Errorf("Stats() = %+v, want 4 requests and 1 server error", stats)
	}
	out := buf.String()
	if !strings.Contains(out, "HTTP request completed") || !strings.Contains(out, "status_code=404") {
		t.Errorf("log output missing completion line: %s", out)
	}
	if !strings.Contains(out, "client_ip=198.51.100.4") {
		t.Errorf("log output missing client ip: %s", out)
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got != "" {
		t.Errorf("FromContext() = %q, want empty", got)
	}
	if a, b := NewID(), NewID(); a == b {
		t.Errorf("NewID() returned %q twice", a)
	}
}
