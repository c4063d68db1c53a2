package services

import (
	"context"
	"fmt"
	"log/slog"

	"entrate/internal/core"
	"entrate/internal/store"
)

// RecordPublisher is the slice of the AMQP client the service needs; a nil
// publisher disables mirroring entirely.
type RecordPublisher interface {
	PublishRecordSync(ctx context.Context, r core.IncomeRecord) error
	PublishRecordDelete(ctx context.Context, id int64) error
}

// RecordService orchestrates record operations across the store and the
// optional mirror stream. Both the web server and the desktop window drive
// all mutations through it.
type RecordService struct {
	store     store.RecordStore
	publisher RecordPublisher
}

func NewRecordService(store store.RecordStore, publisher RecordPublisher) *RecordService {
	return &RecordService{
		store:     store,
		publisher: publisher,
	}
}

// Add validates and persists a new record, then announces it to the mirror
// stream. Validation failures never touch the store.
func (s *RecordService) Add(ctx context.Context, amount core.Money, date core.Date) (core.IncomeRecord, error) {
	record := core.IncomeRecord{Amount: amount, Date: date}
	if err := record.Validate(); err != nil {
		return core.IncomeRecord{}, err
	}

	stored, err := s.store.Append(ctx, record)
	if err != nil {
		// The store may have kept the record in memory; surface the failure
		// and let the caller re-render from List.
		return stored, fmt.Errorf("save record: %w", err)
	}

	s.publishSync(ctx, stored)
	return stored, nil
}

// Remove deletes a record by ID. Unknown IDs are a no-op, mirroring the
// store semantics.
func (s *RecordService) Remove(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	s.publishDelete(ctx, id)
	return nil
}

// List returns every record in insertion order.
func (s *RecordService) List(ctx context.Context) ([]core.IncomeRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Statistics computes the overview numbers from the full record list.
func (s *RecordService) Statistics(ctx context.Context) (core.Statistics, error) {
	records, err := s.List(ctx)
	if err != nil {
		return core.Statistics{}, err
	}
	return core.ComputeStatistics(records), nil
}

func (s *RecordService) publishSync(ctx context.Context, r core.IncomeRecord) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping sync message")
		return
	}
	if err := s.publisher.PublishRecordSync(ctx, r); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", r.ID, "error", err)
		// Don't fail the request - the record is saved locally
	}
}

func (s *RecordService) publishDelete(ctx context.Context, id int64) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping delete message")
		return
	}
	if err := s.publisher.PublishRecordDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}
}
