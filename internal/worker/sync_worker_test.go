package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"entrate/internal/amqp"
	"entrate/internal/core"
	"entrate/internal/sheets/memory"
)

type failingWriter struct{}

func (failingWriter) Append(context.Context, core.IncomeRecord) (string, error) {
	return "", errors.New("sheets unavailable")
}

func TestHandleSyncMessage(t *testing.T) {
	sink := memory.New()
	w := NewSyncWorker(sink)

	msg := &amqp.RecordSyncMessage{
		ID:          42,
		AmountCents: 1050,
		Date:        "2025-01-02",
		CreatedAt:   time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC),
		Timestamp:   time.Now(),
	}
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	rows := sink.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 mirrored row, got %d", len(rows))
	}
	if rows[0].ID != 42 || rows[0].Amount.Cents != 1050 || rows[0].Date.ISO() != "2025-01-02" {
		t.Fatalf("unexpected mirrored record: %+v", rows[0])
	}
}

func TestHandleSyncMessageDropsMalformedPayload(t *testing.T) {
	sink := memory.New()
	w := NewSyncWorker(sink)

	cases := []*amqp.RecordSyncMessage{
		{ID: 1, AmountCents: 100, Date: "not-a-date"},
		{ID: 2, AmountCents: 0, Date: "2025-01-02"},
		{ID: 3, AmountCents: -50, Date: "2025-01-02"},
	}
	for i, msg := range cases {
		// Malformed payloads must be acked (nil), not requeued forever.
		if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
			t.Fatalf("case %d: expected nil for malformed payload, got %v", i, err)
		}
	}
	if got := len(sink.Rows()); got != 0 {
		t.Fatalf("expected nothing mirrored, got %d rows", got)
	}
}

func TestHandleSyncMessageRetriesOnWriterError(t *testing.T) {
	w := NewSyncWorker(failingWriter{})

	msg := &amqp.RecordSyncMessage{ID: 9, AmountCents: 100, Date: "2025-01-02"}
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatalf("expected error so the delivery is requeued")
	}
}

func TestHandleDeleteMessageIsManualFollowUp(t *testing.T) {
	w := NewSyncWorker(memory.New())

	msg := &amqp.RecordDeleteMessage{ID: 7, Timestamp: time.Now()}
	if err := w.HandleDeleteMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleDeleteMessage: %v", err)
	}
}
