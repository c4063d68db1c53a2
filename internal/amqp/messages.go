package amqp

import (
	"encoding/json"
	"time"

	"entrate/internal/core"
)

// RecordSyncMessage carries a newly saved income record to the sheet mirror
// worker. The worker has no access to the web process's data file, so the
// message holds the full payload instead of an ID to fetch.
type RecordSyncMessage struct {
	ID          int64     `json:"id"`
	AmountCents int64     `json:"amountCents"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRecordSyncMessage builds a sync message from a stored record.
func NewRecordSyncMessage(r core.IncomeRecord) *RecordSyncMessage {
	return &RecordSyncMessage{
		ID:          r.ID,
		AmountCents: r.Amount.Cents,
		Date:        r.Date.ISO(),
		CreatedAt:   r.CreatedAt,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordSyncMessageFromJSON creates a message from JSON bytes
func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RecordDeleteMessage signals that a record was removed locally. The mirror
// cannot delete sheet rows, so the worker surfaces these for manual cleanup.
type RecordDeleteMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordDeleteMessage builds a delete message for the given record ID.
func NewRecordDeleteMessage(id int64) *RecordDeleteMessage {
	return &RecordDeleteMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordDeleteMessageFromJSON creates a message from JSON bytes
func RecordDeleteMessageFromJSON(data []byte) (*RecordDeleteMessage, error) {
	var msg RecordDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
