package services

import (
	"context"
	"time"

	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
	"github.com/scheduleworks/client/internal/ports"
)

// Actions are the list-level mutations that bypass the form: deleting a
// record, flipping its status, and setting or clearing its alarm. Every
// success triggers a full reload so the backend stays the source of truth.
type Actions struct {
	backend ports.Backend
	loader  *Loader
	view    ports.View
	logger  *logger.Logger
}

// NewActions wires the action set.
func NewActions(backend ports.Backend, loader *Loader, view ports.View, log *logger.Logger) *Actions {
	return &Actions{
		backend: backend,
		loader:  loader,
		view:    view,
		logger:  log.WithComponent("actions"),
	}
}

// Delete removes a schedule and reloads.
func (a *Actions) Delete(ctx context.Context, id int64) error {
	if err := a.backend.Delete(ctx, id); err != nil {
		a.logger.Errorw("Failed to delete schedule", "schedule_id", id, "error", err)
		a.view.Notify(UserMessage(err), ports.SeverityError)
		return err
	}
	a.view.Notify(MsgDeleted, ports.SeveritySuccess)
	return a.loader.Reload(ctx)
}

// UpdateStatus is the status-only update path: a patch with just the status
// field set.
func (a *Actions) UpdateStatus(ctx context.Context, id int64, status entities.ScheduleStatus) error {
	patch := entities.SchedulePatch{Status: &status}
	if _, err := a.backend.Update(ctx, id, patch); err != nil {
		a.logger.Errorw("Failed to update schedule status", "schedule_id", id, "error", err)
		a.view.Notify(UserMessage(err), ports.SeverityError)
		return err
	}
	a.view.Notify(MsgUpdated, ports.SeveritySuccess)
	return a.loader.Reload(ctx)
}

// SetAlarm attaches or replaces the schedule's alarm through the ordinary
// update patch.
func (a *Actions) SetAlarm(ctx context.Context, id int64, alarmTime time.Time, enabled bool) error {
	patch := entities.SchedulePatch{
		AlarmTime:    &alarmTime,
		AlarmEnabled: &enabled,
	}
	if _, err := a.backend.Update(ctx, id, patch); err != nil {
		a.logger.Errorw("Failed to set alarm", "schedule_id", id, "error", err)
		a.view.Notify(UserMessage(err), ports.SeverityError)
		return err
	}
	a.view.Notify(MsgUpdated, ports.SeveritySuccess)
	return a.loader.Reload(ctx)
}

// ClearAlarm disables and removes the schedule's alarm.
func (a *Actions) ClearAlarm(ctx context.Context, id int64) error {
	disabled := false
	patch := entities.SchedulePatch{AlarmEnabled: &disabled}
	if _, err := a.backend.Update(ctx, id, patch); err != nil {
		a.logger.Errorw("Failed to clear alarm", "schedule_id", id, "error", err)
		a.view.Notify(UserMessage(err), ports.SeverityError)
		return err
	}
	a.view.Notify(MsgUpdated, ports.SeveritySuccess)
	return a.loader.Reload(ctx)
}
