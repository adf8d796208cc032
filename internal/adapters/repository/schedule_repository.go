package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/ports"
)

// ScheduleRepositoryImpl is the Postgres-backed Backend used by the dev
// server's postgres storage mode.
type ScheduleRepositoryImpl struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *sqlx.DB) ports.Backend {
	return &ScheduleRepositoryImpl{db: db}
}

const scheduleColumns = `id, title, description, start_date, end_date, status, priority,
	alarm_time, alarm_enabled, created_at, updated_at`

func (r *ScheduleRepositoryImpl) ListAll(ctx context.Context) ([]entities.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules ORDER BY id`, scheduleColumns)

	schedules := make([]entities.Schedule, 0)
	if err := r.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE id = $1`, scheduleColumns)

	var schedule entities.Schedule
	err := r.db.GetContext(ctx, &schedule, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule by id: %w", err)
	}
	return &schedule, nil
}

func (r *ScheduleRepositoryImpl) Search(ctx context.Context, searchQuery string) ([]entities.Schedule, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM schedules
		WHERE title ILIKE '%%' || $1 || '%%' OR description ILIKE '%%' || $1 || '%%'
		ORDER BY id`, scheduleColumns)

	schedules := make([]entities.Schedule, 0)
	if err := r.db.SelectContext(ctx, &schedules, query, searchQuery); err != nil {
		return nil, fmt.Errorf("search schedules: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepositoryImpl) ListByStatus(ctx context.Context, status entities.ScheduleStatus) ([]entities.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE status = $1 ORDER BY id`, scheduleColumns)

	schedules := make([]entities.Schedule, 0)
	if err := r.db.SelectContext(ctx, &schedules, query, status); err != nil {
		return nil, fmt.Errorf("list schedules by status: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepositoryImpl) ListByDate(ctx context.Context, date string) ([]entities.Schedule, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("parse date filter: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE start_date::date = $1::date ORDER BY id`, scheduleColumns)

	schedules := make([]entities.Schedule, 0)
	if err := r.db.SelectContext(ctx, &schedules, query, date); err != nil {
		return nil, fmt.Errorf("list schedules by date: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepositoryImpl) Create(ctx context.Context, input entities.ScheduleInput) (*entities.Schedule, error) {
	query := `
		INSERT INTO schedules (title, description, start_date, end_date, status, priority, alarm_time, alarm_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	schedule := entities.Schedule{
		Title:        input.Title,
		Description:  input.Description,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Status:       input.Status,
		Priority:     input.Priority,
		AlarmTime:    input.AlarmTime,
		AlarmEnabled: input.AlarmEnabled,
	}

	err := r.db.QueryRowContext(ctx, query,
		input.Title, input.Description, input.StartDate, input.EndDate,
		input.Status, input.Priority, input.AlarmTime, input.AlarmEnabled,
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	return &schedule, nil
}

func (r *ScheduleRepositoryImpl) Update(ctx context.Context, id int64, patch entities.SchedulePatch) (*entities.Schedule, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(existing)

	query := `
		UPDATE schedules
		SET title = $2, description = $3, start_date = $4, end_date = $5,
			status = $6, priority = $7, alarm_time = $8, alarm_enabled = $9,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err = r.db.QueryRowContext(ctx, query,
		existing.ID, existing.Title, existing.Description, existing.StartDate, existing.EndDate,
		existing.Status, existing.Priority, existing.AlarmTime, existing.AlarmEnabled,
	).Scan(&existing.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	return existing, nil
}

func (r *ScheduleRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if rows == 0 {
		return entities.ErrScheduleNotFound
	}
	return nil
}
