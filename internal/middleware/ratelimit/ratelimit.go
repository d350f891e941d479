// Package ratelimit throttles API clients with one token bucket per client
// address.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Config allows Requests per Window per client, all of which may arrive as
// a burst.
type Config struct {
	Requests int
	Window   time.Duration
	// PruneEvery is how often idle clients are forgotten.
	PruneEvery time.Duration
}

// DefaultConfig returns 120 requests per minute.
func DefaultConfig() Config {
	return Config{Requests: 120, Window: time.Minute, PruneEvery: 5 * time.Minute}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter holds the per-client buckets.
type Limiter struct {
	every  rate.Limit
	burst  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	rejected atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter fills zero fields of cfg from DefaultConfig and starts pruning
// idle clients. Call Stop to end it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Requests <= 0 {
		cfg.Requests = def.Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.PruneEvery <= 0 {
		cfg.PruneEvery = def.PruneEvery
	}

	l := &Limiter{
		every:   rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:   cfg.Requests,
		window:  cfg.Window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go l.pruneLoop(cfg.PruneEvery)
	return l
}

func (l *Limiter) bucket(client string, now time.Time) *bucket {
	b, ok := l.buckets[client]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[client] = b
	}
	b.seen = now
	return b
}

// Allow takes a token from client's bucket and reports whether one was left.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if l.bucket(client, now).lim.AllowN(now, 1) {
		return true
	}
	l.rejected.Add(1)
	return false
}

// retryAfter is the whole number of seconds until client gets a token.
func (l *Limiter) retryAfter(client string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	r := l.bucket(client, now).lim.ReserveN(now, 1)
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return max(1, int((d+time.Second/2)/time.Second))
}

func (l *Limiter) pruneLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			l.prune()
		case <-l.stop:
			return
		}
	}
}

// prune forgets clients idle for longer than a window; their buckets would
// be full again anyway.
func (l *Limiter) prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for client, b := range l.buckets {
		if now.Sub(b.seen) > l.window {
			delete(l.buckets, client)
			n++
		}
	}
	return n
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Rejected returns how many requests were refused.
func (l *Limiter) Rejected() int64 {
	return l.rejected.Load()
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware refuses requests over the limit with Retry-After set. onLimit
// writes the refusal; nil sends a plain 429.
func (l *Limiter) Middleware(clientIP func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !l.Allow(ip) {
				w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter(ip)))
				onLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
