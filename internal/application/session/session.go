package session

import (
	"context"
	"fmt"
	"time"

	"github.com/scheduleworks/client/internal/application/services"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
	"github.com/scheduleworks/client/internal/ports"
)

// Controller is the lifecycle glue around the loader: periodic refresh,
// resume-after-idle refresh, the top-level panic guard, and the alarm sweep.
// It subscribes to abstract events (refresh requested, session resumed) and
// exposes handler funcs; it knows nothing about key bindings or terminals.
type Controller struct {
	backend ports.Backend
	loader  *services.Loader
	form    *services.FormController
	store   ports.KV
	view    ports.View
	logger  *logger.Logger

	autoInterval time.Duration
	staleAfter   time.Duration

	notifiedAlarms map[int64]time.Time
}

// New wires a session controller.
func New(backend ports.Backend, loader *services.Loader, form *services.FormController, store ports.KV, view ports.View, autoInterval, staleAfter time.Duration, log *logger.Logger) *Controller {
	return &Controller{
		backend:        backend,
		loader:         loader,
		form:           form,
		store:          store,
		view:           view,
		logger:         log.WithComponent("session"),
		autoInterval:   autoInterval,
		staleAfter:     staleAfter,
		notifiedAlarms: make(map[int64]time.Time),
	}
}

// RefreshNow reloads and, on success, records the refresh timestamp.
func (c *Controller) RefreshNow(ctx context.Context) error {
	if err := c.loader.Reload(ctx); err != nil {
		return err
	}
	if err := c.store.Put(ports.KeyLastRefresh, time.Now().UnixMilli()); err != nil {
		c.logger.Warnw("Failed to record refresh time", "error", err)
	}
	return nil
}

// Resume refreshes only when the last successful refresh is older than the
// stale window, mirroring a tab becoming visible again.
func (c *Controller) Resume(ctx context.Context) error {
	var lastMillis int64
	ok, err := c.store.Get(ports.KeyLastRefresh, &lastMillis)
	if err != nil {
		c.logger.Warnw("Failed to read refresh time", "error", err)
	}
	if ok && time.Since(time.UnixMilli(lastMillis)) <= c.staleAfter {
		return nil
	}
	return c.RefreshNow(ctx)
}

// HandleNewSchedule is the abstract "new schedule requested" event.
func (c *Controller) HandleNewSchedule() {
	c.form.OpenForCreate()
}

// HandleRefresh is the abstract "refresh requested" event.
func (c *Controller) HandleRefresh(ctx context.Context) error {
	return c.RefreshNow(ctx)
}

// Run refreshes immediately, then keeps refreshing every autoInterval until
// the context is cancelled. Each tick also sweeps for due alarms.
func (c *Controller) Run(ctx context.Context) error {
	c.Guard(func() {
		if err := c.RefreshNow(ctx); err != nil {
			c.logger.Errorw("Initial refresh failed", "error", err)
		}
		c.sweepAlarms(ctx, time.Now())
	})

	ticker := time.NewTicker(c.autoInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Guard(func() {
				if err := c.RefreshNow(ctx); err != nil {
					c.logger.Errorw("Auto refresh failed", "error", err)
				}
				c.sweepAlarms(ctx, time.Now())
			})
		}
	}
}

// sweepAlarms notifies once per enabled alarm that has come due. It fetches
// the full list itself: alarms fire no matter what the active filter hides.
func (c *Controller) sweepAlarms(ctx context.Context, now time.Time) {
	schedules, err := c.backend.ListAll(ctx)
	if err != nil {
		c.logger.Warnw("Alarm sweep fetch failed", "error", err)
		return
	}
	for _, s := range schedules {
		if !s.AlarmEnabled || s.AlarmTime == nil || s.AlarmTime.After(now) {
			continue
		}
		if when, seen := c.notifiedAlarms[s.ID]; seen && when.Equal(*s.AlarmTime) {
			continue
		}
		c.notifiedAlarms[s.ID] = *s.AlarmTime
		c.view.Notify(fmt.Sprintf("Alarm: %s", s.Title), ports.SeverityInfo)
	}
}

// Guard runs fn and converts a panic into a generic notification instead of
// crashing the session.
func (c *Controller) Guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorw("Recovered from panic", "panic", r)
			c.view.Notify("An unexpected error occurred.", ports.SeverityError)
		}
	}()
	fn()
}
