package ports

import "github.com/scheduleworks/client/internal/domain/entities"

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// View is the narrow surface the core uses to talk to the presentation
// layer. The core calls these; it never reaches into presentation internals.
type View interface {
	Render(list []entities.Schedule, filter Filter)
	ShowLoading()
	ShowEmpty()
	Notify(message string, severity Severity)
}
