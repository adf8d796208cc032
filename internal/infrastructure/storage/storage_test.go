package storage

import (
	"testing"

	"github.com/scheduleworks/client/internal/ports"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	saved := ports.Filter{Status: "PENDING", Date: "2026-03-02", Search: "meeting"}
	if err := s.Put(ports.KeyFilters, saved); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var loaded ports.Filter
	ok, err := s.Get(ports.KeyFilters, &loaded)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("key reported absent after Put")
	}
	if loaded != saved {
		t.Fatalf("loaded = %+v, want %+v", loaded, saved)
	}
}

func TestGetMissingKey(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var dest int64
	ok, err := s.Get(ports.KeyLastRefresh, &dest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("absent key reported present")
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Put(ports.KeyLastRefresh, int64(1234567890)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	var millis int64
	ok, err := reopened.Get(ports.KeyLastRefresh, &millis)
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if millis != 1234567890 {
		t.Fatalf("millis = %d", millis)
	}
}

func TestDelete(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Put("k", "v"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var v string
	if ok, _ := s.Get("k", &v); ok {
		t.Fatal("key present after Delete")
	}

	// Deleting an absent key is fine.
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestEmptyBasePathRejected(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty base path")
	}
}
