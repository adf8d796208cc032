package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scheduleworks/client/internal/adapters/remote"
	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/infrastructure/config"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
)

// memBackend is a minimal in-memory Backend for exercising the HTTP layer.
type memBackend struct {
	mu        sync.Mutex
	schedules []entities.Schedule
	nextID    int64
}

func newMemBackend() *memBackend {
	return &memBackend{nextID: 1}
}

func (b *memBackend) snapshot() []entities.Schedule {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.Schedule, len(b.schedules))
	copy(out, b.schedules)
	return out
}

func (b *memBackend) ListAll(ctx context.Context) ([]entities.Schedule, error) {
	return b.snapshot(), nil
}

func (b *memBackend) GetByID(ctx context.Context, id int64) (*entities.Schedule, error) {
	for _, s := range b.snapshot() {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, entities.ErrScheduleNotFound
}

func (b *memBackend) Search(ctx context.Context, query string) ([]entities.Schedule, error) {
	out := make([]entities.Schedule, 0)
	for _, s := range b.snapshot() {
		if s.MatchesQuery(query) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (b *memBackend) ListByStatus(ctx context.Context, status entities.ScheduleStatus) ([]entities.Schedule, error) {
	out := make([]entities.Schedule, 0)
	for _, s := range b.snapshot() {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (b *memBackend) ListByDate(ctx context.Context, date string) ([]entities.Schedule, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, err
	}
	out := make([]entities.Schedule, 0)
	for _, s := range b.snapshot() {
		if s.OnDay(day) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (b *memBackend) Create(ctx context.Context, input entities.ScheduleInput) (*entities.Schedule, error) {
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
	return &s, nil
}

func (b *memBackend) Update(ctx context.Context, id int64, patch entities.SchedulePatch) (*entities.Schedule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.schedules {
		if b.schedules[i].ID == id {
			patch.Apply(&b.schedules[i])
			b.schedules[i].UpdatedAt = time.Now()
			s := b.schedules[i]
			return &s, nil
		}
	}
	return nil, entities.ErrScheduleNotFound
}

func (b *memBackend) Delete(ctx context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.schedules {
		if b.schedules[i].ID == id {
			b.schedules = append(b.schedules[:i], b.schedules[i+1:]...)
			return nil
		}
	}
	return entities.ErrScheduleNotFound
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RateLimitRequests: 1000,
			RateLimitWindow:   time.Minute,
			MetricsEnabled:    false,
		},
	}
}

func startTestServer(t *testing.T) (*httptest.Server, *memBackend) {
	t.Helper()
	backend := newMemBackend()
	srv, err := New(testConfig(), backend, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, backend
}

func remoteClient(ts *httptest.Server) *remote.Client {
	return remote.New(config.APIConfig{BaseURL: ts.URL + "/api", Timeout: 5 * time.Second}, logger.NewNop())
}

// The remote client and the dev server speak the same wire contract; drive
// one against the other end to end.
func TestClientServerRoundTrip(t *testing.T) {
	ts, _ := startTestServer(t)
	client := remoteClient(ts)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)
	created, err := client.Create(ctx, entities.ScheduleInput{
		Title:       "Team meeting",
		Description: "weekly sync",
		StartDate:   start,
		EndDate:     start.Add(time.Hour),
		Status:      entities.StatusPending,
		Priority:    entities.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("no id assigned")
	}
	if !created.StartDate.Equal(start) {
		t.Errorf("StartDate round-tripped to %v, want %v", created.StartDate, start)
	}

	got, err := client.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Team meeting" || got.Priority != entities.PriorityHigh {
		t.Errorf("fetched = %+v", got)
	}

	status := entities.StatusCompleted
	updated, err := client.Update(ctx, created.ID, entities.SchedulePatch{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != entities.StatusCompleted {
		t.Errorf("status = %s", updated.Status)
	}
	if updated.Title != "Team meeting" {
		t.Errorf("status-only patch touched the title: %q", updated.Title)
	}

	byStatus, err := client.ListByStatus(ctx, entities.StatusCompleted)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(byStatus) != 1 {
		t.Fatalf("ListByStatus = %d schedules, want 1", len(byStatus))
	}

	byDate, err := client.ListByDate(ctx, "2026-03-02")
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(byDate) != 1 {
		t.Fatalf("ListByDate = %d schedules, want 1", len(byDate))
	}

	found, err := client.Search(ctx, "weekly")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("Search = %d schedules, want 1", len(found))
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	all, err := client.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("ListAll = %d schedules after delete", len(all))
	}
}

func TestMissingScheduleMapsTo404(t *testing.T) {
	ts, _ := startTestServer(t)
	client := remoteClient(ts)

	_, err := client.GetByID(context.Background(), 42)
	if !errors.Is(err, entities.ErrScheduleNotFound) {
		t.Fatalf("error = %v, want not-found", err)
	}
	var backendErr *entities.BackendError
	if !errors.As(err, &backendErr) || backendErr.StatusCode != http.StatusNotFound {
		t.Fatalf("error = %v, want 404 BackendError", err)
	}
	if backendErr.Message == "" {
		t.Error("404 body carried no message")
	}
}

func TestCreateRejectsMissingTitle(t *testing.T) {
	ts, _ := startTestServer(t)

	body := strings.NewReader(`{"startDate": "2026-03-02T10:00:00", "endDate": "2026-03-02T11:00:00", "status": "PENDING", "priority": "LOW"}`)
	resp, err := http.Post(ts.URL+"/api/schedules", "application/json", body)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if payload.Message == "" {
		t.Error("400 body carried no message")
	}
}

func TestInvalidStatusSegmentRejected(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := http.Get(ts.URL + "/api/schedules/status/BOGUS")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestInvalidDateSegmentRejected(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := http.Get(ts.URL + "/api/schedules/date/03-02-2026")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
