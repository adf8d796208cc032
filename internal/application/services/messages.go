package services

import (
	"errors"
	"net/http"

	"github.com/scheduleworks/client/internal/domain/entities"
)

// User-facing notification texts.
const (
	MsgCreated = "Schedule created successfully."
	MsgUpdated = "Schedule updated successfully."
	MsgDeleted = "Schedule deleted successfully."

	msgNetwork      = "A network error occurred. Please try again."
	msgServer       = "A server error occurred. Please contact the administrator."
	msgBadInput     = "Please check your input."
	msgNotFound     = "The requested schedule could not be found."
	msgUnauthorized = "You are not authorized to do that."
	msgUnknown      = "An unknown error occurred."
)

// UserMessage converts a backend failure into the text shown to the user.
// Well-known status codes get dedicated messages; anything else falls back to
// the backend-provided message, then to a generic one.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var backendErr *entities.BackendError
	switch {
	case errors.Is(err, entities.ErrNetwork):
		return msgNetwork
	case errors.As(err, &backendErr):
		switch backendErr.StatusCode {
		case http.StatusBadRequest:
			return msgBadInput
		case http.StatusUnauthorized:
			return msgUnauthorized
		case http.StatusNotFound:
			return msgNotFound
		case http.StatusInternalServerError:
			return msgServer
		default:
			if backendErr.Message != "" {
				return backendErr.Message
			}
			return msgUnknown
		}
	case errors.Is(err, entities.ErrScheduleNotFound):
		return msgNotFound
	default:
		return msgUnknown
	}
}
