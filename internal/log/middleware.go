package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type ctxKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or one over slog.Default tagged
// ComponentHTTP when ctx has none.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return wrap(slog.Default(), ComponentHTTP)
}

// Middleware puts logger in each request context. With a non-nil requestID
// the logger also carries the request id.
func Middleware(logger *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if requestID != nil {
				if id := requestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), l)))
		})
	}
}

// RequestLogger writes the per-request access and failure lines.
type RequestLogger struct {
	logger *Logger
}

func NewRequestLogger(logger *Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

// Completed logs a finished request: 5xx at error, 4xx at warn, else info.
func (rl *RequestLogger) Completed(ctx context.Context, r *http.Request, status int, elapsed time.Duration, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String(FieldMethod, r.Method),
		slog.String(FieldPath, r.URL.Path),
		slog.Int(FieldStatusCode, status),
		slog.Int64(FieldDuration, elapsed.Milliseconds()),
		slog.String(FieldClientIP, clientIP),
	}
	if r.URL.RawQuery != "" {
		attrs = append(attrs, slog.String(FieldQuery, r.URL.RawQuery))
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, slog.String(FieldUserAgent, ua))
	}
	rl.logger.LogAttrs(ctx, level, "HTTP request completed", attrs...)
}

// Failed logs err for operation op with any extra attributes.
func (rl *RequestLogger) Failed(ctx context.Context, msg, op string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String(FieldOperation, op))
	if err != nil {
		attrs = append(attrs, slog.String(FieldError, err.Error()))
	}
	rl.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
