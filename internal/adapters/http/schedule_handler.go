package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
	"github.com/scheduleworks/client/internal/ports"
)

// apiTime accepts both the canonical wire layout (timezone-stripped, second
// precision) and RFC 3339 in request bodies.
type apiTime struct {
	time.Time
}

func (t *apiTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parse time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// CreateScheduleRequest is the POST /schedules body.
type CreateScheduleRequest struct {
	Title        string                  `json:"title" validate:"required"`
	Description  string                  `json:"description"`
	StartDate    apiTime                 `json:"startDate"`
	EndDate      apiTime                 `json:"endDate"`
	Status       entities.ScheduleStatus `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Priority     entities.Priority       `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
	AlarmTime    *apiTime                `json:"alarmTime"`
	AlarmEnabled bool                    `json:"alarmEnabled"`
}

// UpdateScheduleRequest is the PUT /schedules/:id body; absent fields are
// left untouched.
type UpdateScheduleRequest struct {
	Title        *string                  `json:"title"`
	Description  *string                  `json:"description"`
	StartDate    *apiTime                 `json:"startDate"`
	EndDate      *apiTime                 `json:"endDate"`
	Status       *entities.ScheduleStatus `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Priority     *entities.Priority       `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	AlarmTime    *apiTime                 `json:"alarmTime"`
	AlarmEnabled *bool                    `json:"alarmEnabled"`
}

// ScheduleHandler serves the schedule wire contract over any Backend.
type ScheduleHandler struct {
	backend ports.Backend
	logger  *logger.Logger
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(backend ports.Backend, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		backend: backend,
		logger:  log.WithComponent("schedule_handler"),
	}
}

// Register mounts the schedule routes on the group.
func (h *ScheduleHandler) Register(g *echo.Group) {
	g.GET("/schedules", h.List)
	g.POST("/schedules", h.Create)
	g.GET("/schedules/search", h.Search)
	g.GET("/schedules/status/:status", h.ListByStatus)
	g.GET("/schedules/date/:date", h.ListByDate)
	g.GET("/schedules/:id", h.Get)
	g.PUT("/schedules/:id", h.Update)
	g.DELETE("/schedules/:id", h.Delete)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid schedule id")
	}
	return id, nil
}

// backendHTTPError maps backend failures onto wire status codes.
func backendHTTPError(err error) error {
	if errors.Is(err, entities.ErrScheduleNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "schedule not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func (h *ScheduleHandler) List(c echo.Context) error {
	schedules, err := h.backend.ListAll(c.Request().Context())
	if err != nil {
		h.logger.Errorw("List schedules failed", "error", err)
		return backendHTTPError(err)
	}
	return c.JSON(http.StatusOK, schedules)
}

func (h *ScheduleHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	schedule, err := h.backend.GetByID(c.Request().Context(), id)
	if err != nil {
		return backendHTTPError(err)
	}
	return c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	schedules, err := h.backend.Search(c.Request().Context(), query)
	if err != nil {
		h.logger.Errorw("Search schedules failed", "error", err, "query", query)
		return backendHTTPError(err)
	}
	return c.JSON(http.StatusOK, schedules)
}

func (h *ScheduleHandler) ListByStatus(c echo.Context) error {
	status, err := entities.ParseStatus(c.Param("status"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	schedules, err := h.backend.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return backendHTTPError(err)
	}
	return c.JSON(http.StatusOK, schedules)
}

func (h *ScheduleHandler) ListByDate(c echo.Context) error {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	schedules, err := h.backend.ListByDate(c.Request().Context(), date)
	if err != nil {
		return backendHTTPError(err)
	}
	return c.JSON(http.StatusOK, schedules)
}

func (h *ScheduleHandler) Create(c echo.Context) error {
	var req CreateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "startDate and endDate are required")
	}

	input := entities.ScheduleInput{
		Title:        req.Title,
		Description:  req.Description,
		StartDate:    req.StartDate.Time,
		EndDate:      req.EndDate.Time,
		Status:       req.Status,
		Priority:     req.Priority,
		AlarmEnabled: req.AlarmEnabled,
	}
	if req.AlarmTime != nil && !req.AlarmTime.IsZero() {
		input.AlarmTime = &req.AlarmTime.Time
	}

	schedule, err := h.backend.Create(c.Request().Context(), input)
	if err != nil {
		h.logger.Errorw("Create schedule failed", "error", err)
		return backendHTTPError(err)
	}
	return c.JSON(http.StatusCreated, schedule)
}

func (h *ScheduleHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req UpdateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patch := entities.SchedulePatch{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		AlarmEnabled: req.AlarmEnabled,
	}
	if req.StartDate != nil {
		patch.StartDate = &req.StartDate.Time
	}
	if req.EndDate != nil {
		patch.EndDate = &req.EndDate.Time
	}
	if req.AlarmTime != nil {
		patch.AlarmTime = &req.AlarmTime.Time
	}

	schedule, err := h.backend.Update(c.Request().Context(), id, patch)
	if err != nil {
		return backendHTTPError(err)
	}
	return c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.backend.Delete(c.Request().Context(), id); err != nil {
		return backendHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
