package urls

import (
	"errors"
	"testing"
)

func TestValidateWebhookURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantErr  bool
		wantKind ValidationKind
	}{
		{
			name: "canonical host",
			url:  "https://discord.com/api/webhooks/123456789/abcDEF-123_456",
		},
		{
			name: "ptb host",
			url:  "https://ptb.discord.com/api/webhooks/1/token",
		},
		{
			name: "canary host",
			url:  "https://canary.discord.com/api/webhooks/1/token",
		},
		{
			name:     "empty",
			url:      "",
			wantErr:  true,
			wantKind: ValidationKindMissing,
		},
		{
			name:     "http scheme",
			url:      "http://discord.com/api/webhooks/1/token",
			wantErr:  true,
			wantKind: ValidationKindMalformed,
		},
		{
			name:     "unknown host",
			url:      "https://example.com/api/webhooks/1/token",
			wantErr:  true,
			wantKind: ValidationKindMalformed,
		},
		{
			name:     "non-numeric id",
			url:      "https://discord.com/api/webhooks/abc/token",
			wantErr:  true,
			wantKind: ValidationKindMalformed,
		},
		{
			name:     "token with invalid characters",
			url:      "https://discord.com/api/webhooks/1/to ken",
			wantErr:  true,
			wantKind: ValidationKindMalformed,
		},
		{
			name:     "trailing slash",
			url:      "https://discord.com/api/webhooks/1/token/",
			wantErr:  true,
			wantKind: ValidationKindMalformed,
		},
		{
			name:     "leading whitespace is not tolerated",
			url:      " https://discord.com/api/webhooks/1/token",
			wantErr:  true,
			wantKind: ValidationKindMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWebhookURL(tt.url)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateWebhookURL(%q) = %v, want nil", tt.url, err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateWebhookURL(%q) = %v, want *ValidationError", tt.url, err)
			}
			if verr.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", verr.Kind, tt.wantKind)
			}
		})
	}
}

func TestValidateMessageURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantErr  bool
		wantKind ValidationKind
	}{
		{
			name: "valid permalink",
			url:  "https://discord.com/channels/1/2/3",
		},
		{
			name:     "empty",
			url:      "",
			wantErr:  true,
			wantKind: ValidationKindMissing,
		},
		{
			name:     "ptb host is not accepted for permalinks",
			url:      "https://ptb.discord.com/channels/1/2/3",
			wantErr:  true,
			wantKind: ValidationKindMalformed,
		},
		{
			name:     "missing segment",
			url:      "https://discord.com/channels/1/2",
			wantErr:  true,
			wantKind: ValidationKindMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageURL(tt.url)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateMessageURL(%q) = %v, want nil", tt.url, err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateMessageURL(%q) = %v, want *ValidationError", tt.url, err)
			}
			if verr.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", verr.Kind, tt.wantKind)
			}
		})
	}
}

func TestParseWebhookURL(t *testing.T) {
	ref := ParseWebhookURL("https://discord.com/api/webhooks/123456789/abcDEF-123_456")
	if ref == nil {
		t.Fatal("ParseWebhookURL returned nil for a valid URL")
	}
	if ref.ID != "123456789" {
		t.Errorf("ID = %q, want %q", ref.ID, "123456789")
	}
	if ref.Token != "abcDEF-123_456" {
		t.Errorf("Token = %q, want %q", ref.Token, "abcDEF-123_456")
	}

	if got := ParseWebhookURL("https://discord.com/api/webhooks/broken"); got != nil {
		t.Errorf("ParseWebhookURL on malformed URL = %+v, want nil", got)
	}
}

func TestParseMessageURL(t *testing.T) {
	ref := ParseMessageURL("https://discord.com/channels/1/2/3")
	if ref == nil {
		t.Fatal("ParseMessageURL returned nil for a valid URL")
	}
	if ref.GuildID != "1" || ref.ChannelID != "2" || ref.MessageID != "3" {
		t.Errorf("got %+v, want {1 2 3}", ref)
	}

	if got := ParseMessageURL("https://discord.com/channels/1/2/x"); got != nil {
		t.Errorf("ParseMessageURL on malformed URL = %+v, want nil", got)
	}
}
