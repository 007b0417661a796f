package send

import (
	"fmt"
	"time"
)

// Class labels the failure modes a delivery can surface.
type Class string

const (
	ClassTransport   Class = "transport"
	ClassRemoteAPI   Class = "remote_api"
	ClassRateLimited Class = "rate_limited"
)

// TransportError reports a network-level failure where no response was
// received at all.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	return fmt.Sprintf("webhook delivery failed: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *TransportError) DeliveryClass() Class { return ClassTransport }

// RemoteAPIError reports a non-2xx response from Discord (or the relay),
// carrying whatever body came back.
type RemoteAPIError struct {
	Status  int
	Message string
	Body    any
}

func (e *RemoteAPIError) Error() string {
	if e == nil {
		return "remote API error"
	}
	if e.Message != "" {
		return fmt.Sprintf("Discord API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("Discord API error (status %d)", e.Status)
}

func (e *RemoteAPIError) DeliveryClass() Class { return ClassRemoteAPI }

// RateLimitedError reports an HTTP 429 with the retry hint Discord supplied,
// or the configured fallback when the Retry-After header was absent.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e == nil {
		return "rate limited"
	}
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) DeliveryClass() Class { return ClassRateLimited }
