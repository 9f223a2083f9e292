package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/phrazzld/duecall/internal/api/shared"
	"github.com/phrazzld/duecall/internal/domain"
	"github.com/phrazzld/duecall/internal/reminder"
	"github.com/phrazzld/duecall/internal/service/auth"
	"github.com/phrazzld/duecall/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, reminder.ErrRunInProgress):
		return http.StatusConflict

	case errors.Is(err, reminder.ErrStoreUnavailable),
		errors.Is(err, store.ErrUnavailable),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case store.IsNotFoundError(err):
		return http.StatusNotFound

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, reminder.ErrRunInProgress):
		return "A reminder run is already in progress"

	case errors.Is(err, reminder.ErrStoreUnavailable),
		errors.Is(err, store.ErrUnavailable):
		return "Task store unavailable"

	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return "Reminder run did not complete"

	case store.IsNotFoundError(err):
		return "Not found"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and a safe message, logging the
// redacted error. An empty message means GetSafeErrorMessage is used.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), message, err)
}
