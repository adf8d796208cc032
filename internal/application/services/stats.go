package services

import (
	"context"
	"time"

	"github.com/scheduleworks/client/internal/domain/entities"
)

// Stats summarizes the full schedule list, computed client-side.
type Stats struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	InProgress   int `json:"inProgress"`
	Completed    int `json:"completed"`
	Cancelled    int `json:"cancelled"`
	HighPriority int `json:"highPriority"`
	Overdue      int `json:"overdue"`
}

// Stats fetches the full list and tallies it. The active filter is ignored;
// stats always describe the whole backend.
func (l *Loader) Stats(ctx context.Context) (*Stats, error) {
	schedules, err := l.backend.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stats := &Stats{Total: len(schedules)}
	for i := range schedules {
		s := &schedules[i]
		switch s.Status {
		case entities.StatusPending:
			stats.Pending++
		case entities.StatusInProgress:
			stats.InProgress++
		case entities.StatusCompleted:
			stats.Completed++
		case entities.StatusCancelled:
			stats.Cancelled++
		}
		if s.Priority == entities.PriorityHigh {
			stats.HighPriority++
		}
		if s.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}
