package chi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/domain"
	logpkg "github.com/kailas-cloud/studyplan/internal/logger"
	healthuc "github.com/kailas-cloud/studyplan/internal/usecase/health"
)

const (
	// SessionHeader carries the session id in both directions.
	SessionHeader = "X-Session-ID"
	tokensHeader  = "X-LLM-Tokens"

	maxBodyBytes = 64 << 10

	msgNoMessage       = "No message provided"
	msgGenerateFailed  = "Error generating response"
	msgSessionStoreErr = "Session store unavailable"
)

//go:embed static/index.html
var staticFS embed.FS

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ChatService is the conversation use case consumed by the handlers.
type ChatService interface {
	Handle(ctx context.Context, sessionID, message string) (string, error)
	Reset(ctx context.Context, sessionID string) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	chat          ChatService
	health        HealthChecker
	usage         UsageReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(chat ChatService, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{chat: chat, health: health, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyMessage, http.StatusBadRequest, msgNoMessage),
		sentinelHandler(domain.ErrSessionStore, http.StatusServiceUnavailable, msgSessionStoreErr),
	}
	return s
}

type chatRequest struct {
	Message   *string `json:"message"`
	SessionID string  `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, _ *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		s.logger.Error("read embedded page", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgGenerateFailed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgNoMessage)
		return
	}
	if req.Message == nil || strings.TrimSpace(*req.Message) == "" {
		writeError(w, http.StatusBadRequest, msgNoMessage)
		return
	}

	sessionID := resolveSessionID(req.SessionID, r.Header.Get(SessionHeader))
	w.Header().Set(SessionHeader, sessionID)

	ctx := logpkg.WithFields(r.Context(), zap.String("session_id", sessionID))
	ctx, usage := domain.NewContextWithUsage(ctx)
	reply, err := s.chat.Handle(ctx, sessionID, *req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if usage.Calls > 0 {
		w.Header().Set(tokensHeader, strconv.Itoa(usage.TotalTokens))
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}

// ResetSession handles DELETE /api/sessions/{id}.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !sessionIDPattern.MatchString(id) {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return
	}
	if err := s.chat.Reset(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// resolveSessionID prefers the body, then the header. Malformed ids are replaced.
func resolveSessionID(fromBody, fromHeader string) string {
	for _, id := range []string{fromBody, fromHeader} {
		id = strings.TrimSpace(id)
		if sessionIDPattern.MatchString(id) {
			return id
		}
	}
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func sentinelHandler(sentinel error, status int, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			s.logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgGenerateFailed)
}
