package core

import "sort"

// Statistics is a compact summary over a set of income records.
type Statistics struct {
	Total   Money
	Count   int
	Average Money
	Max     Money
}

// ComputeStatistics aggregates records into totals for the overview panels.
// It never mutates its input; an empty or nil slice yields zero statistics.
func ComputeStatistics(records []IncomeRecord) Statistics {
	var s Statistics
	s.Count = len(records)
	if s.Count == 0 {
		return s
	}
	var total, max int64
	for _, r := range records {
		total += r.Amount.Cents
		if r.Amount.Cents > max {
			max = r.Amount.Cents
		}
	}
	s.Total = Money{Cents: total}
	s.Max = Money{Cents: max}
	s.Average = Money{Cents: divHalfUp(total, int64(s.Count))}
	return s
}

// divHalfUp divides positive cents with half-up rounding, matching the
// rounding used when amounts are parsed.
func divHalfUp(total, n int64) int64 {
	return (total + n/2) / n
}

// SortNewestFirst returns a copy ordered by date descending; records sharing
// a date are ordered newest insertion first (higher ID first).
func SortNewestFirst(records []IncomeRecord) []IncomeRecord {
	out := make([]IncomeRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// SortChronological returns a copy ordered by date ascending; records sharing
// a date keep insertion order (lower ID first).
func SortChronological(records []IncomeRecord) []IncomeRecord {
	out := make([]IncomeRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RecentChronological picks the n most recent records and returns them in
// chronological order, the shape wanted by the recent-income bar chart.
func RecentChronological(records []IncomeRecord, n int) []IncomeRecord {
	newest := SortNewestFirst(records)
	if n < len(newest) {
		newest = newest[:n]
	}
	return SortChronological(newest)
}
