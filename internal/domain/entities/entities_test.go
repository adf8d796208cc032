package entities

import (
	"errors"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" in_progress ")
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if got != StatusInProgress {
		t.Fatalf("got %s", got)
	}

	if _, err := ParseStatus("done"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("error = %v, want ErrInvalidStatus", err)
	}
}

func TestParsePriority(t *testing.T) {
	got, err := ParsePriority("high")
	if err != nil {
		t.Fatalf("ParsePriority: %v", err)
	}
	if got != PriorityHigh {
		t.Fatalf("got %s", got)
	}

	if _, err := ParsePriority("urgent"); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("error = %v, want ErrInvalidPriority", err)
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Now()
	past := Schedule{Status: StatusPending, EndDate: now.Add(-time.Hour)}
	if !past.IsOverdue(now) {
		t.Error("pending schedule past its end is not overdue")
	}

	// Terminal statuses are never overdue.
	for _, status := range []ScheduleStatus{StatusCompleted, StatusCancelled} {
		s := Schedule{Status: status, EndDate: now.Add(-time.Hour)}
		if s.IsOverdue(now) {
			t.Errorf("%s schedule reported overdue", status)
		}
	}

	future := Schedule{Status: StatusPending, EndDate: now.Add(time.Hour)}
	if future.IsOverdue(now) {
		t.Error("future schedule reported overdue")
	}
}

func TestOnDay(t *testing.T) {
	s := Schedule{StartDate: time.Date(2026, 3, 2, 23, 30, 0, 0, time.Local)}
	if !s.OnDay(time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)) {
		t.Error("late evening start not matched to its day")
	}
	if s.OnDay(time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local)) {
		t.Error("matched the wrong day")
	}
}

func TestMatchesQuery(t *testing.T) {
	s := Schedule{Title: "Team Meeting", Description: "Quarterly planning"}

	if !s.MatchesQuery("meeting") {
		t.Error("case-insensitive title match failed")
	}
	if !s.MatchesQuery("PLANNING") {
		t.Error("case-insensitive description match failed")
	}
	if s.MatchesQuery("standup") {
		t.Error("matched an absent term")
	}

	noDesc := Schedule{Title: "Dentist"}
	if noDesc.MatchesQuery("planning") {
		t.Error("empty description matched a non-empty query")
	}
}

func TestPatchApply(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)
	s := Schedule{
		ID:          1,
		Title:       "Original",
		Description: "keep me",
		StartDate:   start,
		EndDate:     start.Add(time.Hour),
		Status:      StatusPending,
		Priority:    PriorityLow,
	}

	title := "Renamed"
	status := StatusInProgress
	SchedulePatch{Title: &title, Status: &status}.Apply(&s)

	if s.Title != "Renamed" || s.Status != StatusInProgress {
		t.Errorf("patched fields not applied: %+v", s)
	}
	if s.Description != "keep me" || s.Priority != PriorityLow || !s.StartDate.Equal(start) {
		t.Errorf("unpatched fields changed: %+v", s)
	}

	// An explicit empty value clears the field; a nil pointer leaves it.
	empty := ""
	SchedulePatch{Description: &empty}.Apply(&s)
	if s.Description != "" {
		t.Errorf("description = %q, want cleared", s.Description)
	}
}

func TestBackendErrorUnwrap(t *testing.T) {
	notFound := &BackendError{StatusCode: 404, Message: "schedule not found"}
	if !errors.Is(notFound, ErrScheduleNotFound) {
		t.Error("404 does not satisfy ErrScheduleNotFound")
	}

	server := &BackendError{StatusCode: 500}
	if errors.Is(server, ErrScheduleNotFound) {
		t.Error("500 satisfies ErrScheduleNotFound")
	}
}
