package ports

import (
	"context"

	"github.com/scheduleworks/client/internal/domain/entities"
)

// Backend is the operation set every schedule backend must provide. The
// remote HTTP client, the local mock, and the dev server's Postgres store all
// satisfy it, so the loader never knows which one is active.
type Backend interface {
	ListAll(ctx context.Context) ([]entities.Schedule, error)
	GetByID(ctx context.Context, id int64) (*entities.Schedule, error)
	Search(ctx context.Context, query string) ([]entities.Schedule, error)
	ListByStatus(ctx context.Context, status entities.ScheduleStatus) ([]entities.Schedule, error)
	ListByDate(ctx context.Context, date string) ([]entities.Schedule, error)
	Create(ctx context.Context, input entities.ScheduleInput) (*entities.Schedule, error)
	Update(ctx context.Context, id int64, patch entities.SchedulePatch) (*entities.Schedule, error)
	Delete(ctx context.Context, id int64) error
}
