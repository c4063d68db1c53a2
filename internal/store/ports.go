package store

import (
	"context"

	"entrate/internal/core"
)

// Ports for record persistence backends.
type (
	RecordAppender interface {
		// Append persists a new record and returns it with the assigned ID.
		Append(ctx context.Context, r core.IncomeRecord) (core.IncomeRecord, error)
	}

	RecordDeleter interface {
		// Delete removes the record with the given ID. Unknown IDs are a no-op.
		Delete(ctx context.Context, id int64) error
	}

	RecordLister interface {
		// List returns every persisted record in insertion order.
		List(ctx context.Context) ([]core.IncomeRecord, error)
	}

	// RecordStore is the full persistence surface the service layer works
	// against; every backend implements it.
	RecordStore interface {
		RecordAppender
		RecordDeleter
		RecordLister
	}
)
