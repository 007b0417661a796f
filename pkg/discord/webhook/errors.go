package webhook

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Class classifies remote webhook operation failures.
type Class string

const (
	ClassAuthDenied  Class = "auth_denied"
	ClassNotFound    Class = "not_found"
	ClassRateLimited Class = "rate_limited"
	ClassUnavailable Class = "discord_unavailable"
	ClassUnknown     Class = "unknown"
)

// APIError provides structured classification for remote operation failures.
type APIError struct {
	Operation  string
	StatusCode int
	Class      Class
	Temporary  bool
	Cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return "webhook API error"
	}

	statusLabel := "status unknown"
	if e.StatusCode > 0 {
		statusLabel = fmt.Sprintf("status %d", e.StatusCode)
	}

	var base string
	switch e.Class {
	case ClassAuthDenied:
		base = fmt.Sprintf("%s denied (%s: invalid token or missing permission)", e.Operation, statusLabel)
	case ClassNotFound:
		base = fmt.Sprintf("%s failed (%s: webhook or message not found)", e.Operation, statusLabel)
	case ClassRateLimited:
		base = fmt.Sprintf("%s failed (%s: rate limited; temporary)", e.Operation, statusLabel)
	case ClassUnavailable:
		base = fmt.Sprintf("%s failed (%s: Discord API unavailable; temporary)", e.Operation, statusLabel)
	default:
		base = fmt.Sprintf("%s failed (%s)", e.Operation, statusLabel)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func wrapAPIError(operation string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr != nil && restErr.Response != nil {
		status := restErr.Response.StatusCode
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &APIError{Operation: operation, StatusCode: status, Class: ClassAuthDenied, Cause: err}
		case http.StatusNotFound:
			return &APIError{Operation: operation, StatusCode: status, Class: ClassNotFound, Cause: err}
		case http.StatusTooManyRequests:
			return &APIError{Operation: operation, StatusCode: status, Class: ClassRateLimited, Temporary: true, Cause: err}
		default:
			if status >= 500 && status < 600 {
				return &APIError{Operation: operation, StatusCode: status, Class: ClassUnavailable, Temporary: true, Cause: err}
			}
			return &APIError{Operation: operation, StatusCode: status, Class: ClassUnknown, Cause: err}
		}
	}

	if strings.Contains(strings.ToLower(err.Error()), "rate limit") {
		return &APIError{Operation: operation, StatusCode: http.StatusTooManyRequests, Class: ClassRateLimited, Temporary: true, Cause: err}
	}
	return &APIError{Operation: operation, Class: ClassUnknown, Cause: err}
}
