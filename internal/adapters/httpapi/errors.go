package httpapi

import (
	"errors"
	"net/http"

	"heritagecore/internal/blob"
	"heritagecore/internal/core"
	"heritagecore/internal/media"
	"heritagecore/pkg/domain"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the error body.
const (
	codeBadRequest   = "BAD_REQUEST"
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeNotFound     = "NOT_FOUND"
	codeConflict     = "CONFLICT"
	codeLocked       = "LOCKED"
	codeTooLarge     = "PAYLOAD_TOO_LARGE"
	codeUnprocessed  = "UNPROCESSABLE"
	codeUnavailable  = "NOT_IMPLEMENTED"
	codeInternal     = "INTERNAL_ERROR"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code       string             `json:"code"`
	Error      string             `json:"error"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorBody{Code: code, Error: message})
}

func statusFor(err error) (int, string) {
	var violation domain.RuleViolationError
	switch {
	case errors.Is(err, domain.ErrNoSession):
		return http.StatusUnauthorized, codeUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, domain.ErrLocked):
		return http.StatusLocked, codeLocked
	case errors.Is(err, domain.ErrUnknownVillage),
		errors.Is(err, domain.ErrUnknownTab),
		errors.Is(err, domain.ErrUnknownRelation),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, blob.ErrInvalidKey):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, domain.ErrNoChallenge), errors.Is(err, blob.ErrExists):
		return http.StatusConflict, codeConflict
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, domain.ErrInvalidMediaType), errors.As(err, &violation):
		return http.StatusUnprocessableEntity, codeUnprocessed
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, codeTooLarge
	case errors.Is(err, core.ErrMediaDisabled):
		return http.StatusNotImplemented, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	body := ErrorBody{Code: code, Error: err.Error()}
	var violation domain.RuleViolationError
	if errors.As(err, &violation) {
		body.Violations = violation.Result.Violations
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		body.Error = "internal server error"
	}
	c.JSON(status, body)
}
