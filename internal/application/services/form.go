package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
	"github.com/scheduleworks/client/internal/ports"
)

// ErrSubmitInFlight is returned when a submission arrives while a previous
// one is still running.
var ErrSubmitInFlight = errors.New("submission already in flight")

// FormData holds the editable fields of the schedule form. Field order
// matters: validation reports the first failing field in declaration order,
// and only the first violation is surfaced.
type FormData struct {
	Title        string                  `validate:"required"`
	Description  string                  `validate:"-"`
	StartDate    time.Time               `validate:"required"`
	EndDate      time.Time               `validate:"required,gtfield=StartDate"`
	Status       entities.ScheduleStatus `validate:"required,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Priority     entities.Priority       `validate:"required,oneof=LOW MEDIUM HIGH"`
	AlarmTime    *time.Time              `validate:"-"`
	AlarmEnabled bool                    `validate:"-"`
}

// ValidationError is a single client-side form violation. It never reaches
// the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FormController runs the create-or-edit workflow. Create mode has no target
// id; edit mode targets a previously fetched record. Persistence goes through
// the backend, refresh through the loader.
type FormController struct {
	backend  ports.Backend
	loader   *Loader
	view     ports.View
	validate *validator.Validate
	logger   *logger.Logger

	mu         sync.Mutex
	open       bool
	editingID  *int64
	form       FormData
	focusField string
	submitting bool
}

// NewFormController wires a form controller.
func NewFormController(backend ports.Backend, loader *Loader, view ports.View, log *logger.Logger) *FormController {
	return &FormController{
		backend:  backend,
		loader:   loader,
		view:     view,
		validate: validator.New(),
		logger:   log.WithComponent("form"),
	}
}

// OpenForCreate opens the form with defaults and no target id.
func (f *FormController) OpenForCreate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editingID = nil
	f.form = FormData{
		Status:   entities.StatusPending,
		Priority: entities.PriorityMedium,
	}
	f.focusField = "title"
	f.open = true
}

// OpenForEdit fetches the record and populates the form. When the fetch
// fails the error is surfaced and the form does not open.
func (f *FormController) OpenForEdit(ctx context.Context, id int64) error {
	schedule, err := f.backend.GetByID(ctx, id)
	if err != nil {
		f.logger.Errorw("Failed to load schedule for editing", "schedule_id", id, "error", err)
		f.view.Notify(UserMessage(err), ports.SeverityError)
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.editingID = &schedule.ID
	f.form = FormData{
		Title:        schedule.Title,
		Description:  schedule.Description,
		StartDate:    schedule.StartDate,
		EndDate:      schedule.EndDate,
		Status:       schedule.Status,
		Priority:     schedule.Priority,
		AlarmTime:    schedule.AlarmTime,
		AlarmEnabled: schedule.AlarmEnabled,
	}
	f.focusField = "title"
	f.open = true
	return nil
}

// SetForm replaces the form's field values with presentation-layer input.
func (f *FormController) SetForm(data FormData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form = data
}

// Form returns the current field values.
func (f *FormController) Form() FormData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// IsOpen reports whether the form is open.
func (f *FormController) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// EditingID returns the edit target, or nil in create mode.
func (f *FormController) EditingID() *int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editingID
}

// FocusField names the field the presentation layer should focus, typically
// the one that failed validation last.
func (f *FormController) FocusField() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focusField
}

// Close discards unsaved edits and clears the target id.
func (f *FormController) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.editingID = nil
	f.form = FormData{}
}

// Submit validates and dispatches create or update depending on mode. On
// success the form closes and a full reload runs; on failure the form stays
// open. A submission already in flight refuses the duplicate.
func (f *FormController) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.submitting = true
	data := f.form
	editingID := f.editingID
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	if verr := f.validateForm(data); verr != nil {
		f.mu.Lock()
		f.focusField = verr.Field
		f.mu.Unlock()
		f.view.Notify(verr.Message, ports.SeverityError)
		return verr
	}

	var err error
	if editingID != nil {
		_, err = f.backend.Update(ctx, *editingID, fullPatch(data))
	} else {
		_, err = f.backend.Create(ctx, entities.ScheduleInput{
			Title:        data.Title,
			Description:  data.Description,
			StartDate:    data.StartDate,
			EndDate:      data.EndDate,
			Status:       data.Status,
			Priority:     data.Priority,
			AlarmTime:    data.AlarmTime,
			AlarmEnabled: data.AlarmEnabled,
		})
	}
	if err != nil {
		f.logger.Errorw("Form submission failed", "error", err)
		f.view.Notify(UserMessage(err), ports.SeverityError)
		return err
	}

	if editingID != nil {
		f.view.Notify(MsgUpdated, ports.SeveritySuccess)
	} else {
		f.view.Notify(MsgCreated, ports.SeveritySuccess)
	}
	f.Close()
	return f.loader.Reload(ctx)
}

// validateForm checks the ordered rules and maps the first violation to a
// targeted message. Returns nil when the form is valid.
func (f *FormController) validateForm(data FormData) *ValidationError {
	err := f.validate.Struct(data)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "title", Message: msgBadInput}
	}

	first := verrs[0]
	switch first.StructField() {
	case "Title":
		return &ValidationError{Field: "title", Message: "Please enter a title."}
	case "StartDate":
		return &ValidationError{Field: "startDate", Message: "Please select a start date."}
	case "EndDate":
		if first.Tag() == "gtfield" {
			return &ValidationError{Field: "endDate", Message: "The end date must be after the start date."}
		}
		return &ValidationError{Field: "endDate", Message: "Please select an end date."}
	case "Status":
		return &ValidationError{Field: "status", Message: fmt.Sprintf("Invalid status %q.", data.Status)}
	case "Priority":
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("Invalid priority %q.", data.Priority)}
	default:
		return &ValidationError{Field: "title", Message: msgBadInput}
	}
}

// fullPatch turns form data into a full-field replacement patch; edits always
// send every field.
func fullPatch(data FormData) entities.SchedulePatch {
	return entities.SchedulePatch{
		Title:        &data.Title,
		Description:  &data.Description,
		StartDate:    &data.StartDate,
		EndDate:      &data.EndDate,
		Status:       &data.Status,
		Priority:     &data.Priority,
		AlarmTime:    data.AlarmTime,
		AlarmEnabled: &data.AlarmEnabled,
	}
}
