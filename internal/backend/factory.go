package backend

import (
	"context"
	"fmt"
	"log/slog"

	"kameti/internal/amqp"
	"kameti/internal/cache"
	"kameti/internal/services"
	"kameti/internal/storage"
	"kameti/internal/store"
	"kameti/internal/store/memory"
)

var _ services.EventPublisher = (*amqp.Client)(nil)

// Factory opens backends, logging what it wires.
type Factory struct {
	logger *slog.Logger
}

// NewFactory returns a factory logging to logger, or slog.Default when nil.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Open opens the configured repository, connects to the broker when one is
// configured and wires the ledger service on top.
func (f *Factory) Open(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo store.Repository
		err  error
	)
	switch config.Kind {
	case SQLite:
		repo, err = f.openSQLite(config)
	case Memory:
		repo = f.openMemory(config)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", config.Kind)
	}
	if err != nil {
		return nil, err
	}

	amqpClient := f.connectAMQP(ctx, config)

	var publisher services.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	b := &Backend{
		Store:   repo,
		Service: services.NewLedgerService(repo, publisher, config.Service),
		AMQP:    amqpClient,
	}

	if exp, ok := config.Service.Cache.(cache.Expirer); ok && config.CacheSweep > 0 {
		b.janitor = cache.NewJanitor(config.CacheSweep, exp)
		b.janitor.Start()
	}
	return b, nil
}

func (f *Factory) openSQLite(config Config) (store.Repository, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *Factory) openMemory(config Config) store.Repository {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return memory.NewFromFiles(dataDir)
}

// connectAMQP returns nil when no broker is configured or it is unreachable;
// the service then runs without publishing events.
func (f *Factory) connectAMQP(ctx context.Context, config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
