// Package server is the relay HTTP layer: it forwards composer sends to
// Discord server-side (sidestepping browser CORS limits on JSON posts) and
// exposes the metadata read-through endpoints the composer UI uses.
package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/small-frappuccino/hookcast/pkg/discord/send"
	"github.com/small-frappuccino/hookcast/pkg/storage"
)

// Server handles the relay API. The history store and the Discord session
// are both optional; endpoints that need a missing dependency report it
// instead of panicking.
type Server struct {
	session *discordgo.Session
	sender  *send.Sender
	history *storage.Store
}

// Option configures a Server.
type Option func(*Server)

// WithSession provides the discordgo session used for metadata operations.
func WithSession(session *discordgo.Session) Option {
	return func(s *Server) { s.session = session }
}

// WithHistory provides the delivery history store.
func WithHistory(history *storage.Store) Option {
	return func(s *Server) { s.history = history }
}

// WithRetryAfterFallback sets the retry hint used for 429 responses that
// carry no Retry-After header.
func WithRetryAfterFallback(d time.Duration) Option {
	return func(s *Server) {
		s.sender = send.NewSender("", send.WithRetryAfterFallback(d))
	}
}

// WithSender replaces the delivery sender, for callers that need a tuned
// HTTP client.
func WithSender(sender *send.Sender) Option {
	return func(s *Server) { s.sender = sender }
}

// New creates a relay server.
func New(opts ...Option) *Server {
	s := &Server{
		sender: send.NewSender(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/send-webhook", s.handleSendWebhook).Methods(http.MethodPost)
	api.HandleFunc("/webhook-info", s.handleWebhookInfo).Methods(http.MethodPost)
	api.HandleFunc("/webhook-messages", s.handleWebhookMessages).Methods(http.MethodPost)
	api.HandleFunc("/fetch-message", s.handleFetchMessage).Methods(http.MethodPost)
	api.HandleFunc("/edit-webhook-message", s.handleEditMessage).Methods(http.MethodPost)
	api.HandleFunc("/delete-webhook-message", s.handleDeleteMessage).Methods(http.MethodPost)
	api.HandleFunc("/preview", s.handlePreview).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
