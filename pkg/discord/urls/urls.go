// Package urls classifies and decomposes the two Discord URL shapes the
// composer accepts: webhook endpoint URLs and message permalinks. Matching
// is all-or-nothing against anchored patterns; no trimming or normalization
// is applied.
package urls

import "regexp"

var (
	webhookURLPattern = regexp.MustCompile(`^https://(discord\.com|ptb\.discord\.com|canary\.discord\.com)/api/webhooks/(\d+)/([a-zA-Z0-9_-]+)$`)
	messageURLPattern = regexp.MustCompile(`^https://discord\.com/channels/(\d+)/(\d+)/(\d+)$`)
)

// Error messages
const (
	ErrWebhookURLRequired = "webhook URL is required"
	ErrInvalidWebhookURL  = "invalid webhook URL format"
	ErrMessageURLRequired = "Discord message URL is required"
	ErrInvalidMessageURL  = "invalid Discord message URL"
)

// ValidationKind distinguishes a missing URL from a malformed one.
type ValidationKind string

const (
	ValidationKindMissing   ValidationKind = "missing"
	ValidationKindMalformed ValidationKind = "malformed"
)

// ValidationError reports why a URL was rejected.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "url validation error"
	}
	return e.Message
}

// WebhookRef holds the structural identifiers of a webhook endpoint URL.
type WebhookRef struct {
	ID    string
	Token string
}

// MessageRef holds the structural identifiers of a message permalink.
type MessageRef struct {
	GuildID   string
	ChannelID string
	MessageID string
}

// ValidateWebhookURL returns nil when url is a well-formed webhook endpoint
// URL on one of the three accepted hosts.
func ValidateWebhookURL(url string) error {
	if url == "" {
		return &ValidationError{Kind: ValidationKindMissing, Message: ErrWebhookURLRequired}
	}
	if !webhookURLPattern.MatchString(url) {
		return &ValidationError{Kind: ValidationKindMalformed, Message: ErrInvalidWebhookURL}
	}
	return nil
}

// ValidateMessageURL returns nil when url is a well-formed message permalink.
func ValidateMessageURL(url string) error {
	if url == "" {
		return &ValidationError{Kind: ValidationKindMissing, Message: ErrMessageURLRequired}
	}
	if !messageURLPattern.MatchString(url) {
		return &ValidationError{Kind: ValidationKindMalformed, Message: ErrInvalidMessageURL}
	}
	return nil
}

// ParseWebhookURL extracts the webhook ID and token from a webhook endpoint
// URL. It returns nil when the URL does not match; callers either validate
// first or treat nil as the failure signal.
func ParseWebhookURL(url string) *WebhookRef {
	m := webhookURLPattern.FindStringSubmatch(url)
	if m == nil {
		return nil
	}
	return &WebhookRef{ID: m[2], Token: m[3]}
}

// ParseMessageURL extracts the guild, channel and message IDs from a message
// permalink. It returns nil when the URL does not match.
func ParseMessageURL(url string) *MessageRef {
	m := messageURLPattern.FindStringSubmatch(url)
	if m == nil {
		return nil
	}
	return &MessageRef{GuildID: m[1], ChannelID: m[2], MessageID: m[3]}
}
