package services

import (
	"context"
	"errors"
	"testing"

	"entrate/internal/core"
	"entrate/internal/store/memory"
)

type fakePublisher struct {
	syncs   []core.IncomeRecord
	deletes []int64
	err     error
}

func (f *fakePublisher) PublishRecordSync(_ context.Context, r core.IncomeRecord) error {
	if f.err != nil {
		return f.err
	}
	f.syncs = append(f.syncs, r)
	return nil
}

func (f *fakePublisher) PublishRecordDelete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func TestAddValidRecord(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewRecordService(memory.New(), pub)
	ctx := context.Background()

	got, err := svc.Add(ctx, core.Money{Cents: 1050}, core.NewDate(2025, 1, 2))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("expected ID 1, got %d", got.ID)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be stamped")
	}
	if len(pub.syncs) != 1 || pub.syncs[0].ID != got.ID {
		t.Fatalf("expected one sync message for record %d, got %+v", got.ID, pub.syncs)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	tomorrow := core.Today()
	tomorrow.Time = tomorrow.AddDate(0, 0, 1)

	cases := []struct {
		name   string
		amount core.Money
		date   core.Date
		want   error
	}{
		{"zero amount", core.Money{Cents: 0}, core.NewDate(2025, 1, 1), core.ErrInvalidAmount},
		{"negative amount", core.Money{Cents: -100}, core.NewDate(2025, 1, 1), core.ErrInvalidAmount},
		{"zero date", core.Money{Cents: 100}, core.Date{}, core.ErrInvalidDate},
		{"future date", core.Money{Cents: 100}, tomorrow, core.ErrFutureDate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &fakePublisher{}
			svc := NewRecordService(memory.New(), pub)

			_, err := svc.Add(context.Background(), tc.amount, tc.date)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}

			records, _ := svc.List(context.Background())
			if len(records) != 0 {
				t.Fatalf("invalid input must not reach the store, found %d records", len(records))
			}
			if len(pub.syncs) != 0 {
				t.Fatalf("invalid input must not be published")
			}
		})
	}
}

func TestAddSurvivesPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewRecordService(memory.New(), pub)
	ctx := context.Background()

	got, err := svc.Add(ctx, core.Money{Cents: 500}, core.NewDate(2025, 3, 1))
	if err != nil {
		t.Fatalf("Add should not fail on publish error, got %v", err)
	}

	records, _ := svc.List(ctx)
	if len(records) != 1 || records[0].ID != got.ID {
		t.Fatalf("expected record to be stored, got %+v", records)
	}
}

func TestAddWithoutPublisher(t *testing.T) {
	svc := NewRecordService(memory.New(), nil)

	if _, err := svc.Add(context.Background(), core.Money{Cents: 100}, core.NewDate(2025, 1, 1)); err != nil {
		t.Fatalf("Add without publisher: %v", err)
	}
}

func TestRemove(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewRecordService(memory.New(), pub)
	ctx := context.Background()

	first, _ := svc.Add(ctx, core.Money{Cents: 100}, core.NewDate(2025, 1, 1))
	second, _ := svc.Add(ctx, core.Money{Cents: 200}, core.NewDate(2025, 1, 2))

	if err := svc.Remove(ctx, first.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(pub.deletes) != 1 || pub.deletes[0] != first.ID {
		t.Fatalf("expected delete message for %d, got %+v", first.ID, pub.deletes)
	}

	// Unknown IDs stay a silent no-op.
	if err := svc.Remove(ctx, 999); err != nil {
		t.Fatalf("Remove unknown ID: %v", err)
	}

	records, _ := svc.List(ctx)
	if len(records) != 1 || records[0].ID != second.ID {
		t.Fatalf("expected only record %d left, got %+v", second.ID, records)
	}
}

func TestStatistics(t *testing.T) {
	svc := NewRecordService(memory.New(), nil)
	ctx := context.Background()

	empty, err := svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if empty.Count != 0 || empty.Total.Cents != 0 {
		t.Fatalf("expected zero statistics, got %+v", empty)
	}

	svc.Add(ctx, core.Money{Cents: 1000}, core.NewDate(2025, 1, 1))
	svc.Add(ctx, core.Money{Cents: 3000}, core.NewDate(2025, 1, 2))

	stats, err := svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.Count != 2 || stats.Total.Cents != 4000 || stats.Average.Cents != 2000 || stats.Max.Cents != 3000 {
		t.Fatalf("unexpected statistics: %+v", stats)
	}
}
