package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/hookcast/pkg/discord/markdown"
	"github.com/small-frappuccino/hookcast/pkg/discord/message"
	"github.com/small-frappuccino/hookcast/pkg/discord/send"
	"github.com/small-frappuccino/hookcast/pkg/discord/urls"
	"github.com/small-frappuccino/hookcast/pkg/discord/webhook"
	"github.com/small-frappuccino/hookcast/pkg/logging"
	"github.com/small-frappuccino/hookcast/pkg/storage"
)

// maxRelayBodySize bounds forwarded JSON bodies. Attachment uploads never
// pass through the relay, so anything near this size is not a legitimate
// send.
const maxRelayBodySize = 1 << 20

// handleSendWebhook forwards a pre-assembled JSON payload to Discord. The
// target URL travels in a header so the composer's fetch stays a simple
// cross-origin-safe POST to the relay.
func (s *Server) handleSendWebhook(w http.ResponseWriter, r *http.Request) {
	webhookURL := r.Header.Get(send.HeaderWebhookURL)
	if webhookURL == "" {
		writeError(w, http.StatusBadRequest, "No webhook URL provided")
		return
	}
	if err := urls.ValidateWebhookURL(webhookURL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRelayBodySize))
	if err != nil || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	summary, err := s.sender.DeliverDirect(r.Context(), webhookURL, &message.Assembled{
		Body:        body,
		ContentType: "application/json",
	})
	s.recordDelivery(webhookURL, false, body, summary, err)
	if err != nil {
		s.writeDeliveryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "Webhook sent successfully",
		Data:    summary.Body,
	})
}

func (s *Server) writeDeliveryError(w http.ResponseWriter, err error) {
	var transportErr *send.TransportError
	if errors.As(err, &transportErr) {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Network error: %v", transportErr.Unwrap()))
		return
	}

	var rateErr *send.RateLimitedError
	if errors.As(err, &rateErr) {
		writeError(w, http.StatusTooManyRequests,
			fmt.Sprintf("You are being rate limited. Please try again later (retry after %s)", rateErr.RetryAfter))
		return
	}

	var remoteErr *send.RemoteAPIError
	if errors.As(err, &remoteErr) {
		writeJSON(w, remoteErr.Status, apiResponse{
			Success: false,
			Message: fmt.Sprintf("Discord API error: %d", remoteErr.Status),
			Data:    remoteErr.Body,
		})
		return
	}

	writeError(w, http.StatusInternalServerError, err.Error())
}

// recordDelivery feeds the delivery metric and, when a history store is
// configured, persists the attempt. History failures are logged, never
// surfaced; recording is best-effort.
func (s *Server) recordDelivery(webhookURL string, multipart bool, payload []byte, summary *send.ResponseSummary, deliveryErr error) {
	outcome := "success"
	status := 0
	errText := ""
	if summary != nil {
		status = summary.Status
	}
	if deliveryErr != nil {
		errText = deliveryErr.Error()
		outcome = "error"
		var remoteErr *send.RemoteAPIError
		var rateErr *send.RateLimitedError
		switch {
		case errors.As(deliveryErr, &rateErr):
			outcome = "rate_limited"
			status = http.StatusTooManyRequests
		case errors.As(deliveryErr, &remoteErr):
			status = remoteErr.Status
		}
	}
	deliveriesTotal.WithLabelValues(outcome).Inc()

	if s.history == nil {
		return
	}
	webhookID := ""
	if ref := urls.ParseWebhookURL(webhookURL); ref != nil {
		webhookID = ref.ID
	}
	rec := storage.DeliveryRecord{
		WebhookID:  webhookID,
		Multipart:  multipart,
		StatusCode: status,
		Success:    deliveryErr == nil,
		Error:      errText,
		Payload:    string(payload),
	}
	if err := s.history.RecordDelivery(rec); err != nil {
		logging.ErrorWithErr("record delivery history", err)
	}
}

type urlRequest struct {
	URL       string          `json:"url"`
	Token     string          `json:"token,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	MessageID string          `json:"messageId,omitempty"`
	Content   string          `json:"content,omitempty"`
	Embeds    json.RawMessage `json:"embeds,omitempty"`
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*urlRequest, bool) {
	var req urlRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRelayBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return nil, false
	}
	return &req, true
}

// writeWebhookError maps classified metadata-operation failures onto the
// response envelope.
func writeWebhookError(w http.ResponseWriter, err error) {
	var verr *urls.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}

	var merr *message.ValidationError
	if errors.As(err, &merr) {
		writeError(w, http.StatusBadRequest, merr.Message)
		return
	}

	var apiErr *webhook.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		writeError(w, status, apiErr.Error())
		return
	}

	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) requireSession(w http.ResponseWriter) bool {
	if s.session == nil {
		writeError(w, http.StatusServiceUnavailable, "Discord session not configured")
		return false
	}
	return true
}

func (s *Server) handleWebhookInfo(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if !s.requireSession(w) {
		return
	}

	info, err := webhook.FetchInfo(r.Context(), s.session, req.URL)
	if err != nil {
		writeWebhookError(w, err)
		return
	}
	writeSuccess(w, info)
}

func (s *Server) handleWebhookMessages(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if !s.requireSession(w) {
		return
	}

	messages, err := webhook.FetchRecentMessages(r.Context(), s.session, req.URL, req.Limit)
	if err != nil {
		writeWebhookError(w, err)
		return
	}
	writeSuccess(w, messages)
}

// handleFetchMessage loads a message by permalink to prefill the composer.
// Without any bot token it answers with a sample payload so the load flow
// can be exercised against a fresh install.
func (s *Server) handleFetchMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if err := urls.ValidateMessageURL(req.URL); err != nil {
		writeWebhookError(w, err)
		return
	}

	session := s.session
	if req.Token != "" {
		var err error
		session, err = discordgo.New("Bot " + req.Token)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid bot token")
			return
		}
	}
	// Reading arbitrary channel messages needs bot auth. Without it the
	// composer still gets a representative payload to load.
	if session == nil || session.Token == "" {
		writeSuccess(w, samplePrefillPayload())
		return
	}

	payload, err := webhook.FetchChannelMessage(r.Context(), session, req.URL)
	if err != nil {
		writeWebhookError(w, err)
		return
	}
	writeSuccess(w, payload)
}

func samplePrefillPayload() *message.Payload {
	return &message.Payload{
		Content: "This is a sample message loaded from a Discord URL",
		Embeds: []message.Embed{{
			Title:       "Sample Embed",
			Description: "This is a sample embed loaded from a Discord message",
			Color:       "#4B5563",
		}},
	}
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if req.MessageID == "" {
		writeError(w, http.StatusBadRequest, "Message ID is required")
		return
	}
	if !s.requireSession(w) {
		return
	}

	edited, err := webhook.EditMessage(r.Context(), s.session, req.URL, req.MessageID, req.Content, req.Embeds)
	if err != nil {
		writeWebhookError(w, err)
		return
	}
	writeSuccess(w, edited)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if req.MessageID == "" {
		writeError(w, http.StatusBadRequest, "Message ID is required")
		return
	}
	if !s.requireSession(w) {
		return
	}

	if err := webhook.DeleteMessage(r.Context(), s.session, req.URL, req.MessageID); err != nil {
		writeWebhookError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRelayBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	writeSuccess(w, map[string]string{"html": markdown.Render(req.Text)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "Delivery history not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	records, err := s.history.RecentDeliveries(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w, records)
}
