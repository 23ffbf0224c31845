package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrCaseNotFound),
		domain.IsKind(err, domain.ErrCourtNotFound),
		domain.IsKind(err, domain.ErrDisplayEntryNotFound),
		domain.IsKind(err, domain.ErrUploadNotFound),
		domain.IsKind(err, domain.ErrStagedFileNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrAlreadyDisplayed):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrStagedFileUnreadable):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorBody never carries more than the error kind, except for input
// errors whose text is written for the client.
func publicErrorBody(err error, status int) map[string]string {
	switch {
	case status == http.StatusInternalServerError:
		return map[string]string{"error": "internal server error"}
	case domain.IsKind(err, domain.ErrInvalidInput):
		return map[string]string{"error": err.Error()}
	case domain.IsKind(err, domain.ErrForbidden):
		return map[string]string{"error": "no court assigned to your account"}
	case domain.IsKind(err, domain.ErrStagedFileNotFound):
		return map[string]string{"error": domain.ErrStagedFileNotFound.Error(), "reason": "not_found"}
	case domain.IsKind(err, domain.ErrStagedFileUnreadable):
		return map[string]string{"error": domain.ErrStagedFileUnreadable.Error(), "reason": "unreadable"}
	}
	for _, kind := range []error{
		domain.ErrUnauthorized,
		domain.ErrCaseNotFound,
		domain.ErrCourtNotFound,
		domain.ErrDisplayEntryNotFound,
		domain.ErrUploadNotFound,
		domain.ErrAlreadyDisplayed,
		domain.ErrTemporary,
	} {
		if domain.IsKind(err, kind) {
			return map[string]string{"error": kind.Error()}
		}
	}
	return map[string]string{"error": http.StatusText(status)}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, publicErrorBody(err, status))
}
