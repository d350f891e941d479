package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"text", Config{Component: ComponentLedger}, []string{"component=ledger", "amount_cents=1500"}},
		{"json", Config{Component: ComponentWorker, JSON: true}, []string{`"component":"worker"`, `"amount_cents":1500`}},
		{"default component", Config{}, []string{"component=app"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.cfg.Output = &buf
			l := New(tt.cfg)

			l.Info("payment recorded", FieldAmountCents, 1500)
			l.Debug("hidden")

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q does not contain %q", out, w)
				}
			}
			if strings.Contains(out, "hidden") {
				t.Errorf("debug line written at info level: %q", out)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentApp, Output: &buf}).WithComponent(ComponentAMQP)

	if l.Component() != ComponentAMQP {
		t.Errorf("Component() = %q, want %q", l.Component(), ComponentAMQP)
	}
	l.Info("connected")
	if out := buf.String(); !strings.Contains(out, "component=amqp") || strings.Contains(out, "component=app") {
		t.Errorf("output = %q, want only component=amqp", buf.String())
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf})

	var got *Logger
	h := Middleware(logger, func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.Info("inside")
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("FromContext() = %v, want the http logger", got)
	}
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("output = %q, want request_id", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Error("FromContext() without logger should fall back to the default")
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			rl := NewRequestLogger(New(Config{JSON: true, Output: &buf}))
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard?today=2024-01-01", nil)

			rl.Completed(context.Background(), r, tt.status, 12*time.Millisecond, "10.0.0.1")

			var rec map[string]any
			if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
				t.Fatalf("decode %q: %v", buf.String(), err)
			}
			if rec["level"] != tt.level || rec[FieldStatusCode] != float64(tt.status) {
				t.Errorf("record = %v, want level %s status %d", rec, tt.level, tt.status)
			}
			if rec[FieldQuery] != "today=2024-01-01" || rec[FieldDuration] != float64(12) {
				t.Errorf("record = %v, want query and duration", rec)
			}
		})
	}

	var buf bytes.Buffer
	NewRequestLogger(New(Config{Output: &buf})).
		Failed(context.Background(), "Request failed", OpExport, errors.New("disk full"), slog.String(FieldCommitteeID, "c1"))
	out := buf.String()
	for _, w := range []string{"level=ERROR", "operation=export", `error="disk full"`, "committee_id=c1"} {
		if !strings.Contains(out, w) {
			t.Errorf("Failed() output %q does not contain %q", out, w)
		}
	}
}
