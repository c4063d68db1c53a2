package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entrate/internal/amqp"
	"entrate/internal/core"
	"entrate/internal/sheets"
)

// SyncWorker applies record messages to the Google Sheets mirror.
type SyncWorker struct {
	sheets sheets.RecordWriter
}

func NewSyncWorker(sheets sheets.RecordWriter) *SyncWorker {
	return &SyncWorker{sheets: sheets}
}

// HandleSyncMessage appends one record to the mirror sheet. The message
// carries the full payload, so no storage lookup is needed. Malformed
// payloads are dropped: they never become valid on retry.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	record, err := recordFromMessage(msg)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping malformed sync message",
			"id", msg.ID, "error", err)
		return nil
	}

	ref, err := w.sheets.Append(ctx, record)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully mirrored record",
		"id", msg.ID,
		"sheets_ref", ref,
		"amount_cents", record.Amount.Cents)
	return nil
}

// HandleDeleteMessage surfaces deletions for manual cleanup. The mirror is
// append-only: removing rows programmatically would shift every later row
// reference, so the worker only reports the follow-up.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.RecordDeleteMessage) error {
	slog.WarnContext(ctx, "Record deleted locally; remove the mirrored row manually",
		"id", msg.ID,
		"deleted_at", msg.Timestamp.Format(time.RFC3339))
	return nil
}

func recordFromMessage(msg *amqp.RecordSyncMessage) (core.IncomeRecord, error) {
	date, err := core.ParseDate(msg.Date)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("date %q: %w", msg.Date, err)
	}
	record := core.IncomeRecord{
		ID:        msg.ID,
		Amount:    core.Money{Cents: msg.AmountCents},
		Date:      date,
		CreatedAt: msg.CreatedAt,
	}
	if err := record.Amount.Validate(); err != nil {
		return core.IncomeRecord{}, err
	}
	return record, nil
}
