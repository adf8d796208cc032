package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors
var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrNetwork          = errors.New("network error")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidPriority  = errors.New("invalid priority")
)

// ScheduleStatus is the lifecycle state of a schedule.
type ScheduleStatus string

const (
	StatusPending    ScheduleStatus = "PENDING"
	StatusInProgress ScheduleStatus = "IN_PROGRESS"
	StatusCompleted  ScheduleStatus = "COMPLETED"
	StatusCancelled  ScheduleStatus = "CANCELLED"
)

// Statuses lists all valid schedule statuses in display order.
func Statuses() []ScheduleStatus {
	return []ScheduleStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

// ParseStatus converts user input into a ScheduleStatus.
func ParseStatus(s string) (ScheduleStatus, error) {
	status := ScheduleStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParsePriority converts user input into a Priority.
func ParsePriority(s string) (Priority, error) {
	priority := Priority(strings.ToUpper(strings.TrimSpace(s)))
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return priority, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// Schedule represents a single schedule record. The ID is assigned by the
// backend on creation and is opaque to the client.
type Schedule struct {
	ID           int64          `json:"id" db:"id"`
	Title        string         `json:"title" db:"title"`
	Description  string         `json:"description,omitempty" db:"description"`
	StartDate    time.Time      `json:"startDate" db:"start_date"`
	EndDate      time.Time      `json:"endDate" db:"end_date"`
	Status       ScheduleStatus `json:"status" db:"status"`
	Priority     Priority       `json:"priority" db:"priority"`
	AlarmTime    *time.Time     `json:"alarmTime,omitempty" db:"alarm_time"`
	AlarmEnabled bool           `json:"alarmEnabled,omitempty" db:"alarm_enabled"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// IsOverdue reports whether the schedule's end has passed without the
// schedule reaching a terminal status.
func (s *Schedule) IsOverdue(now time.Time) bool {
	if s.Status == StatusCompleted || s.Status == StatusCancelled {
		return false
	}
	return s.EndDate.Before(now)
}

// OnDay reports whether the schedule starts on the given local calendar day.
func (s *Schedule) OnDay(day time.Time) bool {
	y1, m1, d1 := s.StartDate.Local().Date()
	y2, m2, d2 := day.Local().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// MatchesQuery reports whether the title or description contains the query,
// case-insensitively. An absent description never matches a non-empty query.
func (s *Schedule) MatchesQuery(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(s.Title), q) ||
		strings.Contains(strings.ToLower(s.Description), q)
}

// ScheduleInput carries the fields a caller supplies when creating a
// schedule. ID and timestamps are assigned by the backend.
type ScheduleInput struct {
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	StartDate    time.Time      `json:"startDate"`
	EndDate      time.Time      `json:"endDate"`
	Status       ScheduleStatus `json:"status"`
	Priority     Priority       `json:"priority"`
	AlarmTime    *time.Time     `json:"alarmTime,omitempty"`
	AlarmEnabled bool           `json:"alarmEnabled,omitempty"`
}

// SchedulePatch is a partial update: nil fields are left untouched. A patch
// with only Status set is the status-only update path.
type SchedulePatch struct {
	Title        *string         `json:"title,omitempty"`
	Description  *string         `json:"description,omitempty"`
	StartDate    *time.Time      `json:"startDate,omitempty"`
	EndDate      *time.Time      `json:"endDate,omitempty"`
	Status       *ScheduleStatus `json:"status,omitempty"`
	Priority     *Priority       `json:"priority,omitempty"`
	AlarmTime    *time.Time      `json:"alarmTime,omitempty"`
	AlarmEnabled *bool           `json:"alarmEnabled,omitempty"`
}

// Apply merges the patch over the schedule in place.
func (p SchedulePatch) Apply(s *Schedule) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.StartDate != nil {
		s.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		s.EndDate = *p.EndDate
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Priority != nil {
		s.Priority = *p.Priority
	}
	if p.AlarmTime != nil {
		s.AlarmTime = p.AlarmTime
	}
	if p.AlarmEnabled != nil {
		s.AlarmEnabled = *p.AlarmEnabled
	}
}

// BackendError is a non-2xx response from the remote backend. Message holds
// the server-provided message when the response body carried one.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// Unwrap lets a 404 response satisfy errors.Is(err, ErrScheduleNotFound).
func (e *BackendError) Unwrap() error {
	if e.StatusCode == 404 {
		return ErrScheduleNotFound
	}
	return nil
}
