package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
	"github.com/scheduleworks/client/internal/ports"
)

// Loader owns the authoritative in-memory schedule list and the active
// filter. For every reload it picks the narrowest server-side query the
// filter allows, then re-applies all predicates client-side, so the visible
// list always equals the full predicate conjunction no matter which query
// ran. The backend is the source of truth: the in-memory list is a cache
// rebuilt on every reload.
type Loader struct {
	backend ports.Backend
	view    ports.View
	store   ports.KV
	logger  *logger.Logger

	mu        sync.Mutex
	filter    ports.Filter
	schedules []entities.Schedule

	debounce     *time.Timer
	debounceWait time.Duration
}

// NewLoader wires a loader. debounceWait is the quiet window for search input
// before a reload fires.
func NewLoader(backend ports.Backend, view ports.View, store ports.KV, debounceWait time.Duration, log *logger.Logger) *Loader {
	return &Loader{
		backend:      backend,
		view:         view,
		store:        store,
		logger:       log.WithComponent("loader"),
		debounceWait: debounceWait,
	}
}

// RestoreFilter adopts a previously persisted filter, if any. Call before the
// first reload so the restored filter drives it.
func (l *Loader) RestoreFilter() ports.Filter {
	var saved ports.Filter
	ok, err := l.store.Get(ports.KeyFilters, &saved)
	if err != nil {
		l.logger.Warnw("Failed to restore filter", "error", err)
		return l.Filter()
	}
	if ok {
		// A malformed persisted date is dropped rather than carried around.
		if validateDate(saved.Date) != nil {
			l.logger.Warnw("Dropping malformed persisted date filter", "date", saved.Date)
			saved.Date = ""
		}
		l.mu.Lock()
		l.filter = saved
		l.mu.Unlock()
	}
	return saved
}

// Filter returns the active filter.
func (l *Loader) Filter() ports.Filter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Schedules returns a copy of the current visible list.
func (l *Loader) Schedules() []entities.Schedule {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]entities.Schedule, len(l.schedules))
	copy(out, l.schedules)
	return out
}

func (l *Loader) persistFilter(f ports.Filter) {
	if err := l.store.Put(ports.KeyFilters, f); err != nil {
		l.logger.Warnw("Failed to persist filter", "error", err)
	}
}

// validateDate rejects a malformed date predicate before it can enter the
// filter, so the server-side and client-side date paths never disagree on it.
func validateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.ParseInLocation("2006-01-02", date, time.Local); err != nil {
		return fmt.Errorf("invalid date filter %q, expected YYYY-MM-DD", date)
	}
	return nil
}

// SetFilter replaces the whole filter, persists it, and reloads immediately.
func (l *Loader) SetFilter(ctx context.Context, f ports.Filter) error {
	if err := validateDate(f.Date); err != nil {
		return err
	}
	l.mu.Lock()
	l.filter = f
	l.mu.Unlock()
	l.persistFilter(f)
	return l.Reload(ctx)
}

// SetStatusFilter changes the status predicate and reloads immediately.
func (l *Loader) SetStatusFilter(ctx context.Context, status entities.ScheduleStatus) error {
	l.mu.Lock()
	l.filter.Status = status
	f := l.filter
	l.mu.Unlock()
	l.persistFilter(f)
	return l.Reload(ctx)
}

// SetDateFilter changes the date predicate (YYYY-MM-DD, empty clears) and
// reloads immediately.
func (l *Loader) SetDateFilter(ctx context.Context, date string) error {
	if err := validateDate(date); err != nil {
		return err
	}
	l.mu.Lock()
	l.filter.Date = date
	f := l.filter
	l.mu.Unlock()
	l.persistFilter(f)
	return l.Reload(ctx)
}

// SetSearch changes the free-text predicate and schedules a reload after the
// quiet window, coalescing a burst of input changes into one reload that uses
// the final value.
func (l *Loader) SetSearch(ctx context.Context, query string) {
	l.mu.Lock()
	l.filter.Search = query
	f := l.filter

	if l.debounce != nil {
		l.debounce.Stop()
	}
	reload := context.WithoutCancel(ctx)
	l.debounce = time.AfterFunc(l.debounceWait, func() {
		_ = l.Reload(reload)
	})
	l.mu.Unlock()

	l.persistFilter(f)
}

// Reload fetches the narrowest applicable server query, refines it with every
// active predicate, and renders. On failure the previous list stays rendered,
// one notification is shown, and the loading state is cleared either way.
//
// Overlapping reloads are not cancelled; the one resolving last wins.
func (l *Loader) Reload(ctx context.Context) error {
	filter := l.Filter()
	l.view.ShowLoading()

	fetched, err := l.fetch(ctx, filter)
	if err != nil {
		l.logger.Errorw("Reload failed", "error", err)
		l.mu.Lock()
		previous := make([]entities.Schedule, len(l.schedules))
		copy(previous, l.schedules)
		l.mu.Unlock()
		l.view.Render(previous, filter)
		l.view.Notify(UserMessage(err), ports.SeverityError)
		return err
	}

	visible := ApplyClientFilters(fetched, filter)

	l.mu.Lock()
	l.schedules = visible
	l.mu.Unlock()

	if len(visible) == 0 {
		l.view.ShowEmpty()
		return nil
	}
	l.view.Render(visible, filter)
	return nil
}

// fetch picks the server-side query: a free-text search is assumed more
// selective than a status filter, which beats a bare listing.
func (l *Loader) fetch(ctx context.Context, f ports.Filter) ([]entities.Schedule, error) {
	switch {
	case f.Search != "":
		return l.backend.Search(ctx, f.Search)
	case f.Status != "":
		return l.backend.ListByStatus(ctx, f.Status)
	case f.Date != "":
		return l.backend.ListByDate(ctx, f.Date)
	default:
		return l.backend.ListAll(ctx)
	}
}

// ApplyClientFilters re-applies every active predicate. Only one predicate is
// ever pushed to the server, so the remaining ones must be enforced here;
// re-applying an already-satisfied predicate is a no-op, which makes the
// function idempotent.
func ApplyClientFilters(schedules []entities.Schedule, f ports.Filter) []entities.Schedule {
	filtered := make([]entities.Schedule, 0, len(schedules))

	var day time.Time
	var dayValid bool
	if f.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", f.Date, time.Local)
		dayValid = err == nil
		day = parsed
	}

	for _, s := range schedules {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if dayValid && !s.OnDay(day) {
			continue
		}
		if f.Search != "" && !s.MatchesQuery(f.Search) {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}
