package backend

import (
	"errors"
	"fmt"
	"time"

	"kameti/internal/cache"
	"kameti/internal/config"
	"kameti/internal/core"
	"kameti/internal/dashboard"
	"kameti/internal/notify"
	"kameti/internal/rotation"
	"kameti/internal/services"
)

// Config selects and parameterizes a backend.
type Config struct {
	Kind Kind

	SQLiteDBPath  string
	DataDirectory string // memory store seed directory, "data" when empty

	// Broker for ledger events; an empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Service services.Options
	// CacheSweep is how often expired dashboard entries are dropped; zero
	// disables the sweep.
	CacheSweep time.Duration
}

// FromAppConfig derives the backend and service settings from the
// environment configuration.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("app config is nil")
	}
	kind := Kind(app.DataBackend)
	if !kind.Valid() {
		return Config{}, fmt.Errorf("invalid backend %q: want one of %v", app.DataBackend, Kinds())
	}

	seed := app.RotationSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return Config{
		Kind:          kind,
		SQLiteDBPath:  app.SQLiteDBPath,
		DataDirectory: app.DataDirectory,
		AMQPURL:       app.AMQPURL,
		AMQPExchange:  app.AMQPExchange,
		AMQPQueue:     app.AMQPQueue,
		Service: services.Options{
			Clock:  core.SystemClock{Location: app.Location()},
			Rand:   rotation.NewRand(seed),
			Locale: app.Locale,
			Dashboard: dashboard.Options{
				TopN:       app.TopContributors,
				WindowDays: app.UpcomingWindowDays,
			},
			Notify: notify.Options{WindowDays: app.UpcomingWindowDays},
			Cache:  cache.NewLRU[core.Date, dashboard.Summary](app.DashboardCacheSize, app.DashboardCacheTTL),
		},
		CacheSweep: app.DashboardCacheTTL,
	}, nil
}

func (c Config) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("invalid backend: %q", c.Kind)
	}
	if c.Kind == SQLite && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}
