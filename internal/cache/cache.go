// Package cache holds the in-process caches in front of read-heavy ledger
// queries.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is a keyed cache that writers purge after changing the ledger.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Purge()
	Len() int
}

// Stats counts lookups since the cache was created.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Expirer is a cache whose entries age out.
type Expirer interface {
	Expire() int
}

// Janitor sweeps expired entries from its caches on an interval.
type Janitor struct {
	interval time.Duration
	caches   []Expirer
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func NewJanitor(interval time.Duration, caches ...Expirer) *Janitor {
	return &Janitor{
		interval: interval,
		caches:   caches,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop.
func (j *Janitor) Start() {
	go func() {
		defer close(j.done)
		t := time.NewTicker(j.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if n := j.Sweep(); n > 0 {
					slog.Debug("Expired cache entries removed", "component", "cache", "count", n)
				}
			case <-j.stop:
				return
			}
		}
	}()
}

// Sweep expires every cache once and returns how many entries went.
func (j *Janitor) Sweep() int {
	n := 0
	for _, c := range j.caches {
		n += c.Expire()
	}
	return n
}

// Stop ends the loop started by Start and waits for it. It is safe to call
// more than once.
func (j *Janitor) Stop() {
	j.once.Do(func() {
		close(j.stop)
		<-j.done
	})
}
