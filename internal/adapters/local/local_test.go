package local

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
	"github.com/scheduleworks/client/internal/ports"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (kv *memKV) Get(key string, dest interface{}) (bool, error) {
	kv.mu.Lock()
	raw, ok := kv.data[key]
	kv.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (kv *memKV) Put(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	kv.mu.Lock()
	kv.data[key] = raw
	kv.mu.Unlock()
	return nil
}

func (kv *memKV) Delete(key string) error {
	kv.mu.Lock()
	delete(kv.data, key)
	kv.mu.Unlock()
	return nil
}

func newTestBackend(t *testing.T, store ports.KV) *Backend {
	t.Helper()
	b, err := New(store, 0, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func testInput(title string) entities.ScheduleInput {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)
	return entities.ScheduleInput{
		Title:     title,
		StartDate: start,
		EndDate:   start.Add(time.Hour),
		Status:    entities.StatusPending,
		Priority:  entities.PriorityMedium,
	}
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	b := newTestBackend(t, newMemKV())
	ctx := context.Background()

	first, err := b.Create(ctx, testInput("first"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := b.Create(ctx, testInput("second"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("ids not increasing: %d then %d", first.ID, second.ID)
	}

	// Deleting the newest record must not free its id for reuse.
	if err := b.Delete(ctx, second.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	third, err := b.Create(ctx, testInput("third"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if third.ID <= second.ID {
		t.Fatalf("id %d reused after delete of %d", third.ID, second.ID)
	}
}

func TestUpdateBumpsUpdatedAt(t *testing.T) {
	b := newTestBackend(t, newMemKV())
	ctx := context.Background()

	created, err := b.Create(ctx, testInput("meeting"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "renamed"
	updated, err := b.Update(ctx, created.ID, entities.SchedulePatch{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("title = %q", updated.Title)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("UpdatedAt did not advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}

	// Even an immediate second update advances the timestamp.
	again, err := b.Update(ctx, created.ID, entities.SchedulePatch{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !again.UpdatedAt.After(updated.UpdatedAt) {
		t.Errorf("UpdatedAt did not advance on immediate update: %v -> %v", updated.UpdatedAt, again.UpdatedAt)
	}
}

func TestStatusOnlyPatchLeavesOtherFields(t *testing.T) {
	b := newTestBackend(t, newMemKV())
	ctx := context.Background()

	input := testInput("meeting")
	input.Description = "weekly sync"
	created, err := b.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	status := entities.StatusCompleted
	updated, err := b.Update(ctx, created.ID, entities.SchedulePatch{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != entities.StatusCompleted {
		t.Errorf("status = %s", updated.Status)
	}
	if updated.Title != created.Title || updated.Description != created.Description {
		t.Errorf("status-only patch touched other fields: %+v", updated)
	}
}

func TestMissingScheduleErrors(t *testing.T) {
	b := newTestBackend(t, newMemKV())
	ctx := context.Background()

	if _, err := b.GetByID(ctx, 99); !errors.Is(err, entities.ErrScheduleNotFound) {
		t.Errorf("GetByID error = %v", err)
	}
	if _, err := b.Update(ctx, 99, entities.SchedulePatch{}); !errors.Is(err, entities.ErrScheduleNotFound) {
		t.Errorf("Update error = %v", err)
	}
	if err := b.Delete(ctx, 99); !errors.Is(err, entities.ErrScheduleNotFound) {
		t.Errorf("Delete error = %v", err)
	}
}

func TestSearchMatchesTitleAndDescription(t *testing.T) {
	b := newTestBackend(t, newMemKV())
	ctx := context.Background()

	meeting := testInput("Team Meeting")
	if _, err := b.Create(ctx, meeting); err != nil {
		t.Fatalf("Create: %v", err)
	}
	notes := testInput("Write up")
	notes.Description = "notes from the meeting"
	if _, err := b.Create(ctx, notes); err != nil {
		t.Fatalf("Create: %v", err)
	}
	other := testInput("Dentist")
	if _, err := b.Create(ctx, other); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := b.Search(ctx, "meeting")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matched %d schedules, want 2", len(got))
	}

	empty, err := b.Search(ctx, "standup")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("matched %d schedules, want none", len(empty))
	}
}

func TestListByDate(t *testing.T) {
	b := newTestBackend(t, newMemKV())
	ctx := context.Background()

	onDay := testInput("on the day")
	onDay.StartDate = time.Date(2026, 3, 2, 23, 30, 0, 0, time.Local)
	onDay.EndDate = onDay.StartDate.Add(time.Hour)
	if _, err := b.Create(ctx, onDay); err != nil {
		t.Fatalf("Create: %v", err)
	}
	nextDay := testInput("day after")
	nextDay.StartDate = time.Date(2026, 3, 3, 0, 30, 0, 0, time.Local)
	nextDay.EndDate = nextDay.StartDate.Add(time.Hour)
	if _, err := b.Create(ctx, nextDay); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := b.ListByDate(ctx, "2026-03-02")
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(got) != 1 || got[0].Title != "on the day" {
		t.Fatalf("ListByDate = %+v", got)
	}

	if _, err := b.ListByDate(ctx, "03/02/2026"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestPersistenceSurvivesRestart(t *testing.T) {
	store := newMemKV()
	b := newTestBackend(t, store)
	ctx := context.Background()

	created, err := b.Create(ctx, testInput("durable"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A new backend over the same store sees the record and continues the
	// id sequence.
	b2 := newTestBackend(t, store)
	got, err := b2.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID after restart: %v", err)
	}
	if got.Title != "durable" {
		t.Errorf("title = %q", got.Title)
	}

	next, err := b2.Create(ctx, testInput("after restart"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if next.ID <= created.ID {
		t.Errorf("id %d not after %d", next.ID, created.ID)
	}
}

func TestDelayHonorsCancellation(t *testing.T) {
	store := newMemKV()
	b, err := New(store, time.Second, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.ListAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("ListAll error = %v, want context.Canceled", err)
	}
}
