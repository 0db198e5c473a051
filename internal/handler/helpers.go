package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"teamhub/internal/domain"
	"teamhub/internal/httputil"
)

// handleError converts domain errors to HTTP responses. Anything unmapped is
// logged and reported as a generic 500 so internals never reach the client.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(),
			map[string]interface{}{"resource_type": conflictErr.ResourceType, "existing_id": conflictErr.ResourceID})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", httputil.GetUserID(r),
			"error", err,
		)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PathParam reads a UUID path segment, writing a 400 when it is malformed
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	raw := r.PathValue(name)
	if _, err := parseUUID(raw); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, label+" must be a valid UUID")
		return "", false
	}
	return raw, true
}

// parseUUID validates s and returns its canonical form
func parseUUID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// decode parses the JSON body, writing a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := httputil.ParseJSON(w, r, dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// HandleCreateConflict answers a duplicate create with the existing resource and 409
func HandleCreateConflict[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fetchFn func(id string) (*T, error)) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) && conflictErr.ResourceID != "" {
		existing, fetchErr := fetchFn(conflictErr.ResourceID)
		if fetchErr != nil {
			handleError(w, r, logger, fetchErr)
			return
		}
		httputil.RespondJSON(w, http.StatusConflict, existing)
		return
	}

	handleError(w, r, logger, err)
}
