package sheets

import (
	"context"

	"entrate/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordWriter appends income records to an external sheet mirror.
	RecordWriter interface {
		Append(ctx context.Context, r core.IncomeRecord) (rowRef string, err error)
	}
)
