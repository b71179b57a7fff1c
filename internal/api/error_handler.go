package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/unibague-gradework/orion-program/internal/api/metrics"
	"github.com/unibague-gradework/orion-program/internal/core/auth"
	"github.com/unibague-gradework/orion-program/internal/core/domain"
)

const serviceName = "orion-program"

// Error kinds exposed in the envelope. The boundary maps error kind to
// status; nothing downstream ever inspects message text.
const (
	kindInvalidData    = "INVALID_PROGRAM_DATA"
	kindProgramMissing = "PROGRAM_NOT_FOUND"
	kindAreaMissing    = "EDUCATIONAL_AREA_NOT_FOUND"
	kindDuplicate      = "DUPLICATE_PROGRAM"
	kindUnauthorized   = "AUTHENTICATION_REQUIRED"
	kindForbidden      = "ACCESS_DENIED"
	kindInternal       = "INTERNAL_ERROR"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Service   string    `json:"service"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps the typed
// domain and auth errors to their HTTP statuses, logs unexpected errors
// server-side, and renders the structured envelope.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, kind, msg := resolveError(err, log, c)

		switch status {
		case http.StatusUnauthorized:
			metrics.AuthFailuresTotal.WithLabelValues("unauthenticated").Inc()
		case http.StatusForbidden:
			metrics.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
		}

		_ = c.JSON(status, errorResponse{
			Error:     kind,
			Message:   msg,
			Timestamp: time.Now().UTC(),
			Path:      c.Request().URL.Path,
			Status:    status,
			Service:   serviceName,
		})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind := kindInternal
		switch he.Code {
		case http.StatusBadRequest:
			kind = kindInvalidData
		case http.StatusUnauthorized:
			kind = kindUnauthorized
		case http.StatusForbidden:
			kind = kindForbidden
		case http.StatusNotFound:
			kind = "NOT_FOUND"
		case http.StatusMethodNotAllowed:
			kind = "METHOD_NOT_ALLOWED"
		}
		return he.Code, kind, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, auth.ErrAuthenticationRequired):
		return http.StatusUnauthorized, kindUnauthorized, "authentication required"
	case errors.Is(err, auth.ErrAuthorizationDenied):
		return http.StatusForbidden, kindForbidden, err.Error()
	case errors.Is(err, domain.ErrInvalidProgramData):
		return http.StatusBadRequest, kindInvalidData, err.Error()
	case errors.Is(err, domain.ErrProgramNotFound):
		return http.StatusNotFound, kindProgramMissing, err.Error()
	case errors.Is(err, domain.ErrEducationalAreaNotFound):
		return http.StatusNotFound, kindAreaMissing, err.Error()
	case errors.Is(err, domain.ErrDuplicateProgram):
		return http.StatusConflict, kindDuplicate, err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, kindInternal, "internal server error"
}
