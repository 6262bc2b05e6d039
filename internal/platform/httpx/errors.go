// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// RespondError maps domain error kinds to HTTP responses using RFC7807.
// Unknown errors stay opaque: the detail is never leaked to the caller.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrIllegalTransition):
		Problem(w, http.StatusUnprocessableEntity, "Illegal Transition", err.Error())
	case errors.Is(err, shared.ErrInvalidScan):
		Problem(w, http.StatusUnprocessableEntity, "Invalid Scan", err.Error())
	case errors.Is(err, shared.ErrOutsideGeofence):
		Problem(w, http.StatusUnprocessableEntity, "Outside Geofence", err.Error())
	case errors.Is(err, shared.ErrDuplicateCheckIn),
		errors.Is(err, shared.ErrDuplicateCheckOut),
		errors.Is(err, shared.ErrNotPending),
		errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrNoCheckIn):
		Problem(w, http.StatusUnprocessableEntity, "No Check-In", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
