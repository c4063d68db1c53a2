package memory

import (
	"context"
	"testing"

	"entrate/internal/core"
)

func TestAppendDeleteList(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.Append(ctx, core.IncomeRecord{Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1)})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := s.Append(ctx, core.IncomeRecord{Amount: core.Money{Cents: 200}, Date: core.NewDate(2025, 1, 2)})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected IDs 1 and 2, got %d and %d", first.ID, second.ID)
	}

	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, 999); err != nil {
		t.Fatalf("expected no-op for unknown ID, got %v", err)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != second.ID {
		t.Fatalf("expected only record %d, got %+v", second.ID, got)
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Append(ctx, core.IncomeRecord{Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1)}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, _ := s.List(ctx)
	got[0].Amount.Cents = 999

	again, _ := s.List(ctx)
	if again[0].Amount.Cents != 100 {
		t.Fatalf("mutating the listed slice leaked into the store")
	}
}
