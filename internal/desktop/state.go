package desktop

import (
	"context"
	"errors"
	"strings"
	"sync"

	"entrate/internal/core"
	"entrate/internal/services"
)

// ErrNoSelection is returned by Delete when no record is selected.
var ErrNoSelection = errors.New("no record selected")

// State is everything the desktop window displays: the record list in its
// current sort order, the statistics, and the selection.
type State struct {
	Records    []core.IncomeRecord
	Stats      core.Statistics
	SortAsc    bool
	SelectedID int64 // 0 when nothing is selected
}

// Controller owns the desktop state. Every UI event handler calls into it and
// re-renders from the returned state. It has no UI toolkit dependency.
type Controller struct {
	svc *services.RecordService

	mu    sync.Mutex
	state State
}

func NewController(svc *services.RecordService) *Controller {
	return &Controller{svc: svc}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Refresh reloads records and statistics from the service. On a load error
// the previous state is returned alongside the error so the window keeps
// showing something sensible.
func (c *Controller) Refresh(ctx context.Context) (State, error) {
	records, err := c.svc.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return c.state, err
	}
	c.state.Stats = core.ComputeStatistics(records)
	c.state.Records = c.sortedLocked(records)
	c.dropStaleSelectionLocked()
	return c.state, nil
}

// Add parses and stores a new record. An empty date means today. Validation
// failures leave the state untouched; a storage failure that kept the record
// in memory still refreshes so the window matches the store.
func (c *Controller) Add(ctx context.Context, amountStr, dateStr string) (State, error) {
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return c.State(), err
	}

	date := core.Today()
	if s := strings.TrimSpace(dateStr); s != "" {
		date, err = core.ParseDate(s)
		if err != nil {
			return c.State(), err
		}
	}

	rec, addErr := c.svc.Add(ctx, core.Money{Cents: cents}, date)
	if addErr != nil && rec.ID == 0 {
		// Validation failure or nothing stored.
		return c.State(), addErr
	}

	state, refreshErr := c.Refresh(ctx)
	if addErr != nil {
		return state, addErr
	}
	return state, refreshErr
}

// ToggleSort flips the date sort order and re-sorts the current records.
func (c *Controller) ToggleSort() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SortAsc = !c.state.SortAsc
	c.state.Records = c.sortedLocked(c.state.Records)
	return c.state
}

// Select marks the record with the given ID as selected.
func (c *Controller) Select(id int64) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedID = id
	return c.state
}

// ClearSelection removes any selection.
func (c *Controller) ClearSelection() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedID = 0
	return c.state
}

// Delete removes the selected record and refreshes. Without a selection it
// returns ErrNoSelection and changes nothing.
func (c *Controller) Delete(ctx context.Context) (State, error) {
	c.mu.Lock()
	id := c.state.SelectedID
	c.mu.Unlock()

	if id == 0 {
		return c.State(), ErrNoSelection
	}

	if err := c.svc.Remove(ctx, id); err != nil {
		return c.State(), err
	}

	c.mu.Lock()
	c.state.SelectedID = 0
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// sortedLocked orders records for display per the current sort direction.
func (c *Controller) sortedLocked(records []core.IncomeRecord) []core.IncomeRecord {
	if c.state.SortAsc {
		return core.SortChronological(records)
	}
	return core.SortNewestFirst(records)
}

// dropStaleSelectionLocked clears the selection when the selected record no
// longer exists.
func (c *Controller) dropStaleSelectionLocked() {
	if c.state.SelectedID == 0 {
		return
	}
	for _, r := range c.state.Records {
		if r.ID == c.state.SelectedID {
			return
		}
	}
	c.state.SelectedID = 0
}
