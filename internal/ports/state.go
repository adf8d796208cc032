package ports

import "github.com/scheduleworks/client/internal/domain/entities"

// Storage keys for durable client state.
const (
	KeyFilters       = "schedule_filters"
	KeyLastRefresh   = "schedule_last_refresh"
	KeyMockSchedules = "mock_schedules"
)

// KV is durable key-value persistence for client state. Get reports whether
// the key was present.
type KV interface {
	Get(key string, dest interface{}) (bool, error)
	Put(key string, value interface{}) error
	Delete(key string) error
}

// Filter is the active query. Empty fields mean "no constraint". Date is a
// local calendar day in YYYY-MM-DD form, matched against a schedule's start.
type Filter struct {
	Status entities.ScheduleStatus `json:"status"`
	Date   string                  `json:"date"`
	Search string                  `json:"search"`
}

// IsZero reports whether no predicate is active.
func (f Filter) IsZero() bool {
	return f.Status == "" && f.Date == "" && f.Search == ""
}
