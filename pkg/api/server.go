// Package api exposes arrangement sessions over HTTP.
//
// A client uploads a scene (the TOML format of pkg/scene) to open a
// session, then drives it with the same operations the editor UI uses:
// move, resize, cut, group transforms and snap rebuilds. Every response
// carries the engine's result, so a rejected drag returns the prior
// placement together with the rejection reason.
//
// # Routes
//
//	GET    /health
//	POST   /sessions                              open a session from a TOML scene
//	GET    /sessions/{id}                         current arrangement (JSON)
//	GET    /sessions/{id}/scene                   current scene (TOML)
//	DELETE /sessions/{id}                         close a session
//	POST   /sessions/{id}/ops                     run one scripted operation, e.g. insert-space
//	POST   /sessions/{id}/items/{name}/{action}   move, resize-start, resize-end, cut
//	POST   /sessions/{id}/groups/{name}/{action}  move, drag, resize-start, resize-end, cut
//	GET    /sessions/{id}/occupancy               ?track=&start=&end=
//	GET    /sessions/{id}/snap                    ?frame=
//	GET    /sessions/{id}/groups                  group tree as DOT, or SVG with ?format=svg
//
// # Status Codes
//
// Committed and unchanged results return 200. Rejections return the
// status of their error code: 409 for collisions, 423 for locked tracks,
// 422 for bounds, duration, crop and unsupported operations, 404 for
// unknown items and groups. Malformed requests return 400.
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/cutline/pkg/buildinfo"
	"github.com/matzehuels/cutline/pkg/errors"
	"github.com/matzehuels/cutline/pkg/observability"
	"github.com/matzehuels/cutline/pkg/session"
)

// DefaultMaxBody caps request bodies, scenes included.
const DefaultMaxBody = 1 << 20

// Server serves the session API.
type Server struct {
	store   session.Store
	logger  *log.Logger
	ttl     time.Duration
	maxBody int64
}

// Option configures a Server.
type Option func(*Server)

// WithTTL sets the idle lifetime of new sessions.
func WithTTL(d time.Duration) Option {
	return func(s *Server) { s.ttl = d }
}

// WithMaxBody sets the request body limit in bytes.
func WithMaxBody(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// NewServer creates a server over store. A nil logger discards output.
func NewServer(store session.Store, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		store:   store,
		logger:  logger,
		ttl:     session.DefaultTTL,
		maxBody: DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler. Extra middlewares run after the
// built-in request ID, recovery and logging middlewares.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Post("/sessions", s.handleCreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleDeleteSession)
		r.Get("/scene", s.handleGetScene)
		r.Post("/ops", s.handleOp)
		r.Post("/items/{name}/{action}", s.handleItemAction)
		r.Post("/groups/{name}/{action}", s.handleGroupAction)
		r.Get("/occupancy", s.handleOccupancy)
		r.Get("/snap", s.handleSnap)
		r.Get("/groups", s.handleGroups)
	})
	return r
}

// observe logs each request and reports it to the server hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "took", d,
			"request_id", middleware.GetReqID(r.Context()))
		observability.Server().OnRequest(r.Context(), r.Method, route, status, d)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "cutline",
		"build":   buildinfo.Get(),
	})
}

// =============================================================================
// Response Helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, `{"error":{"code":"INTERNAL_ERROR","message":"encode response"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: errors.UserMessage(err)},
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case "":
		return http.StatusOK
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidScene, errors.ErrCodeInvalidName:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeCollision:
		return http.StatusConflict
	case errors.ErrCodeLockedTrack:
		return http.StatusLocked
	case errors.ErrCodeOutOfBounds, errors.ErrCodeDurationTooSmall, errors.ErrCodeInvalidCrop, errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
