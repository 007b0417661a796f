// Package send delivers assembled webhook bodies. JSON bodies are routed
// through the local relay, which performs the real call server-side and so
// sidesteps the browser CORS restriction on cross-origin JSON posts.
// Multipart bodies go straight to the webhook endpoint; Discord permits
// cross-origin form submissions, and routing file uploads through the relay
// would only double the transfer.
package send

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/small-frappuccino/hookcast/pkg/discord/message"
)

// DefaultRetryAfterFallback is used when a 429 response carries no usable
// Retry-After header.
const DefaultRetryAfterFallback = 5 * time.Second

// HeaderWebhookURL carries the target endpoint to the relay so the browser
// never sets a custom header on a cross-origin request.
const HeaderWebhookURL = "webhook-url"

// ResponseSummary is the successful outcome of a delivery.
type ResponseSummary struct {
	Status int
	// Body is the decoded JSON response when Discord returned one, or the
	// raw text otherwise.
	Body any
}

// Sender pushes assembled payloads to their destination. It performs no
// retries at any level; every failure is surfaced for manual re-attempt.
type Sender struct {
	client             *http.Client
	relayURL           string
	retryAfterFallback time.Duration
}

// Option configures a Sender.
type Option func(*Sender)

// WithHTTPClient replaces the HTTP client used for deliveries.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) { s.client = c }
}

// WithRetryAfterFallback sets the retry hint reported for 429 responses
// that carry no Retry-After header.
func WithRetryAfterFallback(d time.Duration) Option {
	return func(s *Sender) {
		if d > 0 {
			s.retryAfterFallback = d
		}
	}
}

// NewSender creates a Sender that forwards JSON deliveries through the
// relay endpoint at relayURL.
func NewSender(relayURL string, opts ...Option) *Sender {
	s := &Sender{
		client:             http.DefaultClient,
		relayURL:           relayURL,
		retryAfterFallback: DefaultRetryAfterFallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver posts an assembled body for the given webhook URL and classifies
// the outcome.
func (s *Sender) Deliver(ctx context.Context, webhookURL string, a *message.Assembled) (*ResponseSummary, error) {
	if a == nil {
		return nil, fmt.Errorf("deliver: nil assembled payload")
	}

	target := s.relayURL
	if a.Multipart {
		target = webhookURL
	}
	return s.post(ctx, target, webhookURL, a)
}

// DeliverDirect posts an assembled body straight to the webhook endpoint,
// skipping the relay. The relay itself uses this for the server-side leg of
// a forwarded JSON send, where no origin restriction applies.
func (s *Sender) DeliverDirect(ctx context.Context, webhookURL string, a *message.Assembled) (*ResponseSummary, error) {
	if a == nil {
		return nil, fmt.Errorf("deliver: nil assembled payload")
	}
	return s.post(ctx, webhookURL, webhookURL, a)
}

func (s *Sender) post(ctx context.Context, target, webhookURL string, a *message.Assembled) (*ResponseSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(a.Body))
	if err != nil {
		return nil, fmt.Errorf("deliver: build request: %w", err)
	}
	req.Header.Set("Content-Type", a.ContentType)
	if !a.Multipart && target != webhookURL {
		req.Header.Set(HeaderWebhookURL, webhookURL)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	return s.classify(resp)
}

func (s *Sender) classify(resp *http.Response) (*ResponseSummary, error) {
	body := decodeBody(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{RetryAfter: s.retryAfter(resp)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteAPIError{
			Status:  resp.StatusCode,
			Message: remoteMessage(body),
			Body:    body,
		}
	}

	return &ResponseSummary{Status: resp.StatusCode, Body: body}, nil
}

func (s *Sender) retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return s.retryAfterFallback
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil || seconds < 0 {
		return s.retryAfterFallback
	}
	return time.Duration(seconds * float64(time.Second))
}

// decodeBody parses a response body as JSON when possible and keeps the raw
// text otherwise. An unreadable or empty body decodes to nil.
func decodeBody(r io.Reader) any {
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err == nil {
		return decoded
	}
	return string(data)
}

// remoteMessage pulls a human-readable message out of a decoded error body.
func remoteMessage(body any) string {
	obj, ok := body.(map[string]any)
	if !ok {
		if text, ok := body.(string); ok {
			return text
		}
		return ""
	}
	if msg, ok := obj["message"].(string); ok {
		return msg
	}
	return ""
}
