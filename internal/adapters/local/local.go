package local

import (
	"context"
	"sync"
	"time"

	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
	"github.com/scheduleworks/client/internal/ports"
)

// Backend is the offline mock: an in-memory schedule list with simulated
// latency, persisted wholesale to durable storage after every mutation so a
// restart picks up where the last session left off.
//
// Its only operation failure is entities.ErrScheduleNotFound; persistence
// write failures are logged but never surfaced, matching the contract that
// the local variant has no network-class errors.
type Backend struct {
	mu        sync.Mutex
	schedules []entities.Schedule
	nextID    int64
	latency   time.Duration
	store     ports.KV
	logger    *logger.Logger
}

var _ ports.Backend = (*Backend)(nil)

// New builds a local backend over the given store, loading any previously
// persisted list.
func New(store ports.KV, latency time.Duration, log *logger.Logger) (*Backend, error) {
	b := &Backend{
		latency: latency,
		store:   store,
		logger:  log.WithComponent("local_backend"),
	}

	var saved []entities.Schedule
	ok, err := store.Get(ports.KeyMockSchedules, &saved)
	if err != nil {
		return nil, err
	}
	if ok {
		b.schedules = saved
	}
	b.nextID = maxID(b.schedules) + 1

	return b, nil
}

func maxID(schedules []entities.Schedule) int64 {
	var max int64
	for _, s := range schedules {
		if s.ID > max {
			max = s.ID
		}
	}
	return max
}

// delay simulates backend latency while honoring cancellation.
func (b *Backend) delay(ctx context.Context) error {
	if b.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(b.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// persist rewrites the full list. Failures are logged, not returned.
func (b *Backend) persist() {
	if err := b.store.Put(ports.KeyMockSchedules, b.schedules); err != nil {
		b.logger.Warnw("Failed to persist mock schedules", "error", err)
	}
}

func (b *Backend) indexOf(id int64) int {
	for i := range b.schedules {
		if b.schedules[i].ID == id {
			return i
		}
	}
	return -1
}

// ListAll returns every schedule in insertion order.
func (b *Backend) ListAll(ctx context.Context) ([]entities.Schedule, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.Schedule, len(b.schedules))
	copy(out, b.schedules)
	return out, nil
}

func (b *Backend) GetByID(ctx context.Context, id int64) (*entities.Schedule, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i < 0 {
		return nil, entities.ErrScheduleNotFound
	}
	s := b.schedules[i]
	return &s, nil
}

// Search matches the query against title or description, case-insensitively.
func (b *Backend) Search(ctx context.Context, query string) ([]entities.Schedule, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.Schedule, 0)
	for _, s := range b.schedules {
		if s.MatchesQuery(query) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (b *Backend) ListByStatus(ctx context.Context, status entities.ScheduleStatus) ([]entities.Schedule, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.Schedule, 0)
	for _, s := range b.schedules {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListByDate returns schedules whose start falls on the given local calendar
// day (YYYY-MM-DD).
func (b *Backend) ListByDate(ctx context.Context, date string) ([]entities.Schedule, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.Schedule, 0)
	for _, s := range b.schedules {
		if s.OnDay(day) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Create assigns a monotonic ID and timestamps, appends the record, and
// writes the list through to storage.
func (b *Backend) Create(ctx context.Context, input entities.ScheduleInput) (*entities.Schedule, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	s := entities.Schedule{
		ID:           b.nextID,
		Title:        input.Title,
		Description:  input.Description,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Status:       input.Status,
		Priority:     input.Priority,
		AlarmTime:    input.AlarmTime,
		AlarmEnabled: input.AlarmEnabled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	b.nextID++
	b.schedules = append(b.schedules, s)
	b.persist()

	b.logger.Infow("Schedule created", "schedule_id", s.ID, "title", s.Title)
	return &s, nil
}

// Update merges the patch over the existing record and refreshes UpdatedAt,
// keeping it strictly increasing even on coarse clocks.
func (b *Backend) Update(ctx context.Context, id int64, patch entities.SchedulePatch) (*entities.Schedule, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return nil, entities.ErrScheduleNotFound
	}

	s := &b.schedules[i]
	patch.Apply(s)
	now := time.Now()
	if !now.After(s.UpdatedAt) {
		now = s.UpdatedAt.Add(time.Millisecond)
	}
	s.UpdatedAt = now
	b.persist()

	b.logger.Infow("Schedule updated", "schedule_id", id)
	updated := *s
	return &updated, nil
}

func (b *Backend) Delete(ctx context.Context, id int64) error {
	if err := b.delay(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return entities.ErrScheduleNotFound
	}
	b.schedules = append(b.schedules[:i], b.schedules[i+1:]...)
	b.persist()

	b.logger.Infow("Schedule deleted", "schedule_id", id)
	return nil
}
