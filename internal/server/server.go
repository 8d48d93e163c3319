package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/youmna-rabie/chat-relay/internal/config"
	"github.com/youmna-rabie/chat-relay/internal/relay"
	"github.com/youmna-rabie/chat-relay/internal/types"
)

const statusText = "chat relay is running"

// Server is the HTTP front of the relay. It accepts chat platform webhooks
// on the configured token path and answers each with the relay's result.
type Server struct {
	cfg     *config.Config
	channel types.Channel
	relay   *relay.Relay
	router  chi.Router
	logger  *slog.Logger
}

// NewServer creates a Server wired with the given dependencies.
func NewServer(cfg *config.Config, channel types.Channel, rl *relay.Relay, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		channel: channel,
		relay:   rl,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(logger))
	r.Use(Recovery(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}))

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/", s.handleStatus)
	r.Get("/health", s.handleStatus)
	r.Post("/"+cfg.Server.TokenPath, s.handleWebhook)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer returns an *http.Server listening on the configured host:port.
func (s *Server) HTTPServer() *http.Server {
	addr := net.JoinHostPort(s.cfg.Server.Host, fmt.Sprintf("%d", s.cfg.Server.Port))
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// handleWebhook processes POST /{token_path}.
// Pipeline: validate request → parse body → relay → respond.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.channel.ValidateRequest(r); err != nil {
		s.respond(w, relay.InvalidRequest(err))
		return
	}

	payload, err := s.channel.ParseRequest(r)
	if err != nil {
		s.respond(w, relay.InvalidRequest(err))
		return
	}

	s.respond(w, s.relay.Handle(r.Context(), payload))
}

func (s *Server) respond(w http.ResponseWriter, res relay.Result) {
	writeJSON(w, res.Status, res.Body())
}

// handleStatus answers liveness probes without touching any dependency.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": statusText})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("no route for %s", r.URL.Path))
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]relay.ErrorBody{
		"error": {Code: relay.CodeInvalidRequest, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
