package commands

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/scheduleworks/client/internal/application/services"
	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
	"github.com/scheduleworks/client/internal/ports"
)

// errBackend fails every operation with the same error.
type errBackend struct {
	err error
}

func (b *errBackend) ListAll(ctx context.Context) ([]entities.Schedule, error) {
	return nil, b.err
}

func (b *errBackend) GetByID(ctx context.Context, id int64) (*entities.Schedule, error) {
	return nil, b.err
}

func (b *errBackend) Search(ctx context.Context, query string) ([]entities.Schedule, error) {
	return nil, b.err
}

func (b *errBackend) ListByStatus(ctx context.Context, status entities.ScheduleStatus) ([]entities.Schedule, error) {
	return nil, b.err
}

func (b *errBackend) ListByDate(ctx context.Context, date string) ([]entities.Schedule, error) {
	return nil, b.err
}

func (b *errBackend) Create(ctx context.Context, input entities.ScheduleInput) (*entities.Schedule, error) {
	return nil, b.err
}

func (b *errBackend) Update(ctx context.Context, id int64, patch entities.SchedulePatch) (*entities.Schedule, error) {
	return nil, b.err
}

func (b *errBackend) Delete(ctx context.Context, id int64) error {
	return b.err
}

type quietView struct{}

func (quietView) Render(list []entities.Schedule, filter ports.Filter) {}
func (quietView) ShowLoading()                                         {}
func (quietView) ShowEmpty()                                           {}
func (quietView) Notify(message string, severity ports.Severity)       {}

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
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

func newTestApp(backend ports.Backend) *app {
	log := logger.NewNop()
	view := quietView{}
	store := &memKV{data: make(map[string][]byte)}
	loader := services.NewLoader(backend, view, store, time.Millisecond, log)
	return &app{
		logger:  log,
		store:   store,
		backend: backend,
		view:    view,
		loader:  loader,
		form:    services.NewFormController(backend, loader, view, log),
		actions: services.NewActions(backend, loader, view, log),
	}
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "list"}
	cmd.Flags().String("status", "", "")
	cmd.Flags().String("date", "", "")
	cmd.Flags().String("search", "", "")
	cmd.SetContext(context.Background())
	return cmd
}

func TestRunListReportsBackendFailure(t *testing.T) {
	backendErr := errors.New("backend down")
	a := newTestApp(&errBackend{err: backendErr})

	if err := runList(newListCmd(), a); !errors.Is(err, backendErr) {
		t.Fatalf("runList err = %v, want %v", err, backendErr)
	}

	// The flag path fails the same way.
	cmd := newListCmd()
	if err := cmd.Flags().Set("status", "PENDING"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := runList(cmd, a); !errors.Is(err, backendErr) {
		t.Fatalf("runList with flags err = %v, want %v", err, backendErr)
	}
}

func TestRunListRejectsUnknownStatus(t *testing.T) {
	a := newTestApp(&errBackend{err: errors.New("unreached")})

	cmd := newListCmd()
	if err := cmd.Flags().Set("status", "SOMEDAY"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := runList(cmd, a); err == nil {
		t.Fatal("unknown status accepted")
	}
}

func TestRunSearchReportsBackendFailure(t *testing.T) {
	backendErr := errors.New("backend down")
	a := newTestApp(&errBackend{err: backendErr})

	cmd := &cobra.Command{Use: "search"}
	cmd.SetContext(context.Background())
	if err := runSearch(cmd, a, "standup"); !errors.Is(err, backendErr) {
		t.Fatalf("runSearch err = %v, want %v", err, backendErr)
	}
}
