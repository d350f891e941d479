// Package trace gives every API request an id and records request counters.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	applog "kameti/internal/log"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-ID"

type ctxKey struct{}

// clientID limits which client-supplied ids are echoed back.
var clientID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Stats are the counters kept since the tracer was created.
type Stats struct {
	Requests     int64         `json:"requests"`
	ServerErrors int64         `json:"serverErrors"`
	LastLatency  time.Duration `json:"lastLatencyNs"`
}

// Tracer assigns request ids and logs each completed request.
type Tracer struct {
	clientIP func(*http.Request) string
	log      *applog.RequestLogger

	requests     atomic.Int64
	serverErrors atomic.Int64
	lastLatency  atomic.Int64
}

// New builds a tracer. clientIP may be nil; a nil logger uses the default.
func New(clientIP func(*http.Request) string, logger *applog.Logger) *Tracer {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}
	return &Tracer{clientIP: clientIP, log: applog.NewRequestLogger(logger)}
}

func (t *Tracer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(HeaderRequestID)
		if !clientID.MatchString(id) {
			id = NewID()
		}
		w.Header().Set(HeaderRequestID, id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		t.requests.Add(1)
		t.lastLatency.Store(int64(elapsed))
		if sw.status >= http.StatusInternalServerError {
			t.serverErrors.Add(1)
		}

		ip := ""
		if t.clientIP != nil {
			ip = t.clientIP(r)
		}
		t.log.Completed(r.Context(), r, sw.status, elapsed, ip)
	})
}

func (t *Tracer) Stats() Stats {
	return Stats{
		Requests:     t.requests.Load(),
		ServerErrors: t.serverErrors.Load(),
		LastLatency:  time.Duration(t.lastLatency.Load()),
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// NewID returns a random request id.
func NewID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "req_" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return "req_" + hex.EncodeToString(b)
}

// FromContext returns the request id stored by the middleware.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequestID is FromContext for a request; it fits log.Middleware.
func RequestID(r *http.Request) string {
	return FromContext(r.Context())
}
