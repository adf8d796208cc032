package remote

import (
	"fmt"
	"strings"
	"time"

	"github.com/scheduleworks/client/internal/domain/entities"
)

// wireTimeLayout is the canonical wire format for dates: timezone-stripped,
// second precision. Normalizing to it is this package's responsibility, not
// the caller's.
const wireTimeLayout = "2006-01-02T15:04:05"

// wireTime marshals as the canonical wire layout and accepts either the wire
// layout or RFC 3339 when decoding.
type wireTime struct {
	time.Time
}

func (t wireTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(wireTimeLayout) + `"`), nil
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.ParseInLocation(wireTimeLayout, s, time.Local); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parse wire time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// scheduleWire mirrors entities.Schedule with wire-format dates.
type scheduleWire struct {
	ID           int64                   `json:"id"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description,omitempty"`
	StartDate    wireTime                `json:"startDate"`
	EndDate      wireTime                `json:"endDate"`
	Status       entities.ScheduleStatus `json:"status"`
	Priority     entities.Priority       `json:"priority"`
	AlarmTime    *wireTime               `json:"alarmTime,omitempty"`
	AlarmEnabled bool                    `json:"alarmEnabled,omitempty"`
	CreatedAt    wireTime                `json:"createdAt"`
	UpdatedAt    wireTime                `json:"updatedAt"`
}

func (w scheduleWire) toEntity() entities.Schedule {
	s := entities.Schedule{
		ID:           w.ID,
		Title:        w.Title,
		Description:  w.Description,
		StartDate:    w.StartDate.Time,
		EndDate:      w.EndDate.Time,
		Status:       w.Status,
		Priority:     w.Priority,
		AlarmEnabled: w.AlarmEnabled,
		CreatedAt:    w.CreatedAt.Time,
		UpdatedAt:    w.UpdatedAt.Time,
	}
	if w.AlarmTime != nil && !w.AlarmTime.IsZero() {
		at := w.AlarmTime.Time
		s.AlarmTime = &at
	}
	return s
}

func toEntities(wires []scheduleWire) []entities.Schedule {
	out := make([]entities.Schedule, len(wires))
	for i, w := range wires {
		out[i] = w.toEntity()
	}
	return out
}

// inputWire mirrors entities.ScheduleInput with wire-format dates.
type inputWire struct {
	Title        string                  `json:"title"`
	Description  string                  `json:"description,omitempty"`
	StartDate    wireTime                `json:"startDate"`
	EndDate      wireTime                `json:"endDate"`
	Status       entities.ScheduleStatus `json:"status"`
	Priority     entities.Priority       `json:"priority"`
	AlarmTime    *wireTime               `json:"alarmTime,omitempty"`
	AlarmEnabled bool                    `json:"alarmEnabled,omitempty"`
}

func toInputWire(in entities.ScheduleInput) inputWire {
	w := inputWire{
		Title:        in.Title,
		Description:  in.Description,
		StartDate:    wireTime{in.StartDate},
		EndDate:      wireTime{in.EndDate},
		Status:       in.Status,
		Priority:     in.Priority,
		AlarmEnabled: in.AlarmEnabled,
	}
	if in.AlarmTime != nil {
		w.AlarmTime = &wireTime{*in.AlarmTime}
	}
	return w
}

// patchWire mirrors entities.SchedulePatch with wire-format dates.
type patchWire struct {
	Title        *string                  `json:"title,omitempty"`
	Description  *string                  `json:"description,omitempty"`
	StartDate    *wireTime                `json:"startDate,omitempty"`
	EndDate      *wireTime                `json:"endDate,omitempty"`
	Status       *entities.ScheduleStatus `json:"status,omitempty"`
	Priority     *entities.Priority       `json:"priority,omitempty"`
	AlarmTime    *wireTime                `json:"alarmTime,omitempty"`
	AlarmEnabled *bool                    `json:"alarmEnabled,omitempty"`
}

func toPatchWire(p entities.SchedulePatch) patchWire {
	w := patchWire{
		Title:        p.Title,
		Description:  p.Description,
		Status:       p.Status,
		Priority:     p.Priority,
		AlarmEnabled: p.AlarmEnabled,
	}
	if p.StartDate != nil {
		w.StartDate = &wireTime{*p.StartDate}
	}
	if p.EndDate != nil {
		w.EndDate = &wireTime{*p.EndDate}
	}
	if p.AlarmTime != nil {
		w.AlarmTime = &wireTime{*p.AlarmTime}
	}
	return w
}
