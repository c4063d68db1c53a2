package backend

import (
	"context"
	"fmt"
	"log/slog"

	"entrate/internal/amqp"
	"entrate/internal/store/jsonfile"
	"entrate/internal/store/memory"
	"entrate/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case JSONFileBackend:
		return f.createJSONFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createJSONFileBackend(config Config) (*BackendResult, error) {
	fileStore, err := jsonfile.New(config.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JSON file store: %w", err)
	}

	amqpClient := f.initAMQP(config)

	f.logger.Info("Initialized JSON file backend",
		"data_file", config.DataFile,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Backend: fileStore,
		AMQP:    amqpClient,
		Cleanup: closeAMQP(amqpClient),
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	amqpClient := f.initAMQP(config)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Backend: repo,
		AMQP:    amqpClient,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				if err := amqpClient.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			if err := repo.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
			if len(errs) > 0 {
				return fmt.Errorf("close backend: %v", errs)
			}
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	amqpClient := f.initAMQP(config)

	f.logger.Info("Initialized memory backend", "amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Backend: memory.New(),
		AMQP:    amqpClient,
		Cleanup: closeAMQP(amqpClient),
	}, nil
}

// initAMQP dials the optional mirror stream. A broker failure only disables
// mirroring; the backend still comes up.
func (f *DefaultFactory) initAMQP(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		return nil
	}

	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func closeAMQP(client *amqp.Client) CleanupFunc {
	if client == nil {
		return nil
	}
	return client.Close
}
