package backend

import (
	"context"

	"entrate/internal/amqp"
	"entrate/internal/store"
)

// Backend represents the unified persistence interface handed to the service layer
type Backend interface {
	store.RecordStore
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance, the optional AMQP client for
// mirror notifications, and an optional cleanup function
type BackendResult struct {
	Backend Backend
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// JSON file specific
	DataFile string

	// SQLite specific
	SQLiteDBPath string

	// Optional AMQP mirror stream (any backend)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	JSONFileBackend BackendType = "jsonfile"
	SQLiteBackend   BackendType = "sqlite"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case JSONFileBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
