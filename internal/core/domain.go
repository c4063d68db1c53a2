package core

import (
	"errors"
	"time"
)

// DateLayout is the wire and storage format for record dates.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// IncomeRecord is a single logged income entry. IDs are assigned by the
	// store as a monotonically increasing counter, so sorting by ID yields
	// insertion order.
	IncomeRecord struct {
		ID        int64
		Amount    Money
		Date      Date
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrFutureDate    = errors.New("date is in the future")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in DateLayout form (e.g. "2025-08-24").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date in local time.
func Today() Date {
	y, m, d := time.Now().Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if d.Time.After(Today().Time) {
		return ErrFutureDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// ISO renders the date in DateLayout form for forms, JSON and storage.
func (d Date) ISO() string {
	return d.Format(DateLayout)
}

// Display renders the date as day/month/year for tables and lists.
func (d Date) Display() string {
	return d.Format("02/01/2006")
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r IncomeRecord) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
