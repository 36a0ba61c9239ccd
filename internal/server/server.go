// Package server exposes the library resolver over HTTP.
//
// Routes:
//
//	POST /v1/list   body: {"library": "...", "version": "...", "renderView": false}
//	POST /v1        body: {"type": "list", ...}   command dispatch
//	GET  /healthz
//
// Resolution failures are reported with status 200 and {"success": false};
// only undecodable requests get a 4xx status.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	liberrors "github.com/codebender/eratosthenes/pkg/errors"
	"github.com/codebender/eratosthenes/pkg/library"
	"github.com/codebender/eratosthenes/pkg/observability"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Lister is the resolver capability the server needs.
type Lister interface {
	List(ctx context.Context, req library.Request) library.Response
}

// Server is the HTTP front end.
type Server struct {
	lister Lister
	logger *log.Logger
	router chi.Router
}

// New creates a Server. A nil logger selects log.Default().
func New(lister Lister, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{lister: lister, logger: logger}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/", s.handleCommand)
		r.Post("/list", s.handleList)
	})
	return r
}

// command is a dispatched request. Type selects the handler; the remaining
// fields are the handler's payload.
type command struct {
	Type string `json:"type"`
	library.Request
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd command
	if !decode(w, r, &cmd) {
		return
	}
	switch cmd.Type {
	case "list":
		s.list(w, r, cmd.Request)
	default:
		writeJSON(w, http.StatusOK, library.Failure(
			liberrors.New(liberrors.ErrCodeUnsupported, "Unknown command type %q.", cmd.Type)))
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var req library.Request
	if !decode(w, r, &req) {
		return
	}
	s.list(w, r, req)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, req library.Request) {
	resp := s.lister.List(r.Context(), req)
	if !resp.Success {
		s.logger.Info("list failed",
			"request_id", requestIDFrom(r.Context()),
			"library", req.Library,
			"version", req.Version,
			"code", resp.Code)
	}
	writeJSON(w, http.StatusOK, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, library.Failure(
			liberrors.Wrap(liberrors.ErrCodeInvalidInput, err, "Malformed request body.")))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type ctxKey int

const requestIDKey ctxKey = 0

// requestID propagates an incoming X-Request-ID or assigns a new UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
		s.logger.Info("request",
			"request_id", requestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

// HTTPServer builds an http.Server for addr with the given timeouts.
func (s *Server) HTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
}
