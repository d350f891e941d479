// Package backend opens the configured ledger store and wires the service,
// the optional broker and the dashboard cache janitor around it.
package backend

import (
	"kameti/internal/amqp"
	"kameti/internal/cache"
	"kameti/internal/services"
	"kameti/internal/store"
)

// Kind names a store implementation.
type Kind string

const (
	SQLite Kind = "sqlite"
	Memory Kind = "memory"
)

// Kinds lists the supported store kinds.
func Kinds() []Kind {
	return []Kind{SQLite, Memory}
}

func (k Kind) Valid() bool {
	return k == SQLite || k == Memory
}

// Backend is an opened ledger. AMQP is nil when no broker is configured or
// it could not be reached.
type Backend struct {
	Store   store.Repository
	Service *services.LedgerService
	AMQP    *amqp.Client

	janitor *cache.Janitor
}

// Close stops the cache janitor, then closes the service, which closes the
// store and the broker connection.
func (b *Backend) Close() error {
	if b.janitor != nil {
		b.janitor.Stop()
	}
	return b.Service.Close()
}
