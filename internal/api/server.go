// Package api exposes the cooker over a small JSON REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chaz8081/gocirculate/internal/anova"
	"github.com/chaz8081/gocirculate/internal/ble"
)

// Cooker is the subset of the command set the API needs.
// *anova.Controller implements it.
type Cooker interface {
	Status(ctx context.Context) (string, error)
	ReadTemp(ctx context.Context) (string, error)
	ReadSetTemp(ctx context.Context) (string, error)
	ReadUnit(ctx context.Context) (string, error)
	SetTemp(ctx context.Context, degrees float64) (string, error)
	Start(ctx context.Context) (string, error)
	Stop(ctx context.Context) (string, error)
}

var _ Cooker = (*anova.Controller)(nil)

// Server serves the REST API.
type Server struct {
	cooker         Cooker
	streamInterval time.Duration
	upgrader       websocket.Upgrader
}

// NewServer creates a Server. streamInterval is the push period of the
// temperature stream; non-positive values default to 5s.
func NewServer(cooker Cooker, streamInterval time.Duration) *Server {
	if streamInterval <= 0 {
		streamInterval = 5 * time.Second
	}
	return &Server{
		cooker:         cooker,
		streamInterval: streamInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // LAN appliance, no browser session to protect
			},
		},
	}
}

// Routes returns the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/temp", s.handleGetTemp)
	r.Post("/temp", s.handleSetTemp)
	r.Post("/start", s.handleStart)
	r.Post("/stop", s.handleStop)
	r.Get("/temp/stream", s.handleTempStream)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.", "", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.", "", "")
	})
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	status, err := s.cooker.Status(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"anova_status": status})
}

func (s *Server) handleGetTemp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current, err := s.cooker.ReadTemp(ctx)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	target, err := s.cooker.ReadSetTemp(ctx)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	unit, err := s.cooker.ReadUnit(ctx)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"current_temp": current,
		"set_temp":     target,
		"unit":         unit,
	})
}

func (s *Server) handleSetTemp(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request.", "invalid_body", "send a JSON object like {\"temp\": 60.5}")
		return
	}
	temp, err := parseTempField(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_body", "send a JSON object like {\"temp\": 60.5}")
		return
	}

	set, err := s.cooker.SetTemp(r.Context(), temp)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"set_temp": set})
}

// parseTempField reads the "temp" field as a number or a numeric string.
func parseTempField(body map[string]any) (float64, error) {
	raw, ok := body["temp"]
	if !ok {
		return 0, errors.New("missing field: temp")
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("temp is not a number: %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("temp is not a number: %v", raw)
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	status, err := s.cooker.Start(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	status, err := s.cooker.Stop(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	SubCode string `json:"sub_code,omitempty"`
	Action  string `json:"action,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, subCode, action string) {
	writeJSON(w, status, errorResponse{
		Status:  status,
		Message: message,
		SubCode: subCode,
		Action:  action,
	})
}

// writeCoreError maps a command failure to the error envelope.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("cooker command failed", "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()), "error", err)

	switch {
	case errors.Is(err, anova.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_argument", "")
	case errors.Is(err, ble.ErrCommandTimeout):
		writeError(w, http.StatusInternalServerError, err.Error(), "command_timeout",
			"the command may or may not have been applied; check state and retry")
	case errors.Is(err, ble.ErrConnect):
		writeError(w, http.StatusInternalServerError, err.Error(), "connect_failed",
			"check that the cooker is powered on, in range and not connected elsewhere")
	case errors.Is(err, ble.ErrLinkWrite):
		writeError(w, http.StatusInternalServerError, err.Error(), "link_write", "retry the request")
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), "", "")
	}
}

type requestIDKey struct{}

// RequestIDFrom returns the request id stored by the requestID middleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID tags every request with an X-Request-ID, reusing the client's
// when present, and logs the request once served.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "request_id", id, "duration", time.Since(start))
	})
}
