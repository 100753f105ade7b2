package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitly/auth"
	"github.com/raushankrgupta/fitly/store"
	"github.com/raushankrgupta/fitly/utils"
)

const (
	ErrValidation          = "validation_error"
	ErrNotFound            = "not_found"
	ErrUnauthorized        = "unauthorized"
	ErrForbidden           = "forbidden"
	ErrConflict            = "conflict"
	ErrUpstream            = "upstream_error"
	ErrUpstreamUnavailable = "upstream_unavailable"
	ErrInternal            = "internal_error"
)

// duplicate email stays a 400, which is what existing clients expect
var errorStatusMap = map[string]int{
	ErrValidation:          http.StatusBadRequest,
	ErrNotFound:            http.StatusNotFound,
	ErrUnauthorized:        http.StatusUnauthorized,
	ErrForbidden:           http.StatusForbidden,
	ErrConflict:            http.StatusBadRequest,
	ErrUpstream:            http.StatusInternalServerError,
	ErrUpstreamUnavailable: http.StatusServiceUnavailable,
	ErrInternal:            http.StatusInternalServerError,
}

func statusForError(code string) int {
	if status, ok := errorStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// classify maps a domain error to its error code and the message the client sees
func classify(err error) (code, message string) {
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		return ErrValidation, "Please provide all required fields"
	case errors.Is(err, auth.ErrPasswordTooLong):
		return ErrValidation, "Password must be at most 72 bytes"
	case errors.Is(err, auth.ErrEmailTaken):
		return ErrConflict, "User already exists"
	case errors.Is(err, auth.ErrUserNotFound):
		return ErrValidation, "User not found"
	case errors.Is(err, auth.ErrInvalidPassword):
		return ErrValidation, "Invalid password"
	case errors.Is(err, auth.ErrNoAccountForEmail):
		return ErrNotFound, "No account found with this email"
	case errors.Is(err, auth.ErrInvalidOrExpiredReset):
		return ErrValidation, "Invalid or expired reset token"
	case errors.Is(err, auth.ErrNoToken):
		return ErrUnauthorized, "Not authorized, no token provided"
	case errors.Is(err, auth.ErrTokenExpired):
		return ErrUnauthorized, "Token expired, please log in again"
	case errors.Is(err, auth.ErrTokenInvalid):
		return ErrUnauthorized, "Invalid token"
	case errors.Is(err, auth.ErrAccountGone):
		return ErrUnauthorized, "User not found, authorization denied"
	case errors.Is(err, auth.ErrUpstreamUnavailable):
		return ErrUpstreamUnavailable, "Service temporarily unavailable, please try again"
	case errors.Is(err, auth.ErrIdentityRejected):
		return ErrUpstream, "Google authentication failed"
	case errors.Is(err, auth.ErrUpstream):
		return ErrUpstream, "Upstream service failed"
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound, "User not found"
	default:
		return ErrInternal, "Internal server error"
	}
}

// respondServiceError logs err in full and answers with its client message.
// For upstream and internal failures the fallback message is used instead,
// so provider details never reach the client.
func respondServiceError(w http.ResponseWriter, logger *strings.Builder, err error, fallback string) {
	code, message := classify(err)
	utils.AddToLogMessage(logger, fmt.Sprintf("error=%v code=%s", err, code))
	if fallback != "" && (code == ErrUpstream || code == ErrInternal) {
		message = fallback
	}
	utils.RespondError(w, logger, message, statusForError(code))
}
