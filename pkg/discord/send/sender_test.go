package send

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/small-frappuccino/hookcast/pkg/discord/message"
)

func jsonBody(t *testing.T, content string) *message.Assembled {
	t.Helper()
	a, err := message.Assemble(message.Message{Content: content})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return a
}

func multipartBody(t *testing.T) *message.Assembled {
	t.Helper()
	a, err := message.Assemble(message.Message{
		Content: "hi",
		Files:   []message.File{{Name: "f.txt", Data: []byte("x")}},
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return a
}

func TestDeliverSuccess(t *testing.T) {
	var gotHeader string
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(HeaderWebhookURL)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"Webhook sent successfully"}`))
	}))
	defer relay.Close()

	sender := NewSender(relay.URL)
	summary, err := sender.Deliver(context.Background(), "https://discord.com/api/webhooks/1/token", jsonBody(t, "hello"))
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if summary.Status != http.StatusOK {
		t.Errorf("status = %d", summary.Status)
	}
	if gotHeader != "https://discord.com/api/webhooks/1/token" {
		t.Errorf("webhook-url header = %q", gotHeader)
	}
	body, ok := summary.Body.(map[string]any)
	if !ok || body["success"] != true {
		t.Errorf("body = %#v", summary.Body)
	}
}

func TestDeliverMultipartGoesDirect(t *testing.T) {
	relayHit := false
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayHit = true
	}))
	defer relay.Close()

	var gotContentType string
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if r.Header.Get(HeaderWebhookURL) != "" {
			t.Error("multipart deliveries must not carry the relay header")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer direct.Close()

	sender := NewSender(relay.URL)
	summary, err := sender.Deliver(context.Background(), direct.URL, multipartBody(t))
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if summary.Status != http.StatusNoContent {
		t.Errorf("status = %d", summary.Status)
	}
	if relayHit {
		t.Error("multipart delivery went through the relay")
	}
	if gotContentType == "" || gotContentType[:20] != "multipart/form-data;" {
		t.Errorf("content type = %q", gotContentType)
	}
}

func TestDeliverRateLimited(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter string
		want       time.Duration
	}{
		{name: "header present", retryAfter: "7", want: 7 * time.Second},
		{name: "fractional header", retryAfter: "0.5", want: 500 * time.Millisecond},
		{name: "header absent", retryAfter: "", want: DefaultRetryAfterFallback},
		{name: "garbled header", retryAfter: "soon", want: DefaultRetryAfterFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"message":"You are being rate limited."}`))
			}))
			defer server.Close()

			sender := NewSender(server.URL)
			_, err := sender.Deliver(context.Background(), "https://discord.com/api/webhooks/1/t", jsonBody(t, "x"))

			var rle *RateLimitedError
			if !errors.As(err, &rle) {
				t.Fatalf("error = %v, want *RateLimitedError", err)
			}
			if rle.RetryAfter != tt.want {
				t.Errorf("retry after = %s, want %s", rle.RetryAfter, tt.want)
			}
		})
	}
}

func TestDeliverRetryAfterFallbackIsConfigurable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	sender := NewSender(server.URL, WithRetryAfterFallback(9*time.Second))
	_, err := sender.Deliver(context.Background(), "https://discord.com/api/webhooks/1/t", jsonBody(t, "x"))

	var rle *RateLimitedError
	if !errors.As(err, &rle) {
		t.Fatalf("error = %v, want *RateLimitedError", err)
	}
	if rle.RetryAfter != 9*time.Second {
		t.Errorf("retry after = %s, want 9s", rle.RetryAfter)
	}
}

func TestDeliverRemoteAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "json error body",
			status:      http.StatusBadRequest,
			body:        `{"message":"Cannot send an empty message","code":50006}`,
			wantMessage: "Cannot send an empty message",
		},
		{
			name:        "plain text body",
			status:      http.StatusBadGateway,
			body:        "upstream unavailable",
			wantMessage: "upstream unavailable",
		},
		{
			name:   "empty body",
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			sender := NewSender(server.URL)
			_, err := sender.Deliver(context.Background(), "https://discord.com/api/webhooks/1/t", jsonBody(t, "x"))

			var rerr *RemoteAPIError
			if !errors.As(err, &rerr) {
				t.Fatalf("error = %v, want *RemoteAPIError", err)
			}
			if rerr.Status != tt.status {
				t.Errorf("status = %d, want %d", rerr.Status, tt.status)
			}
			if rerr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", rerr.Message, tt.wantMessage)
			}
		})
	}
}

func TestDeliverTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	sender := NewSender(server.URL)
	_, err := sender.Deliver(context.Background(), "https://discord.com/api/webhooks/1/t", jsonBody(t, "x"))

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if terr.Unwrap() == nil {
		t.Error("transport error should carry its cause")
	}
}
