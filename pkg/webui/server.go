// Package webui provides the HTTP API for browsing and editing skills and
// optionally serves the browser UI's static files. The API is backed
// directly by a skills.Store; nothing is cached between requests.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/skills"
	"github.com/jingkaihe/skillforge/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxUploadSize bounds multipart import requests
const DefaultMaxUploadSize int64 = 32 << 20

var tracer = telemetry.Tracer("skillforge.webui")

// Server represents the web UI server
type Server struct {
	router *mux.Router
	store  *skills.Store
	config *ServerConfig
	server *http.Server
}

// ServerConfig holds the configuration for the web server
type ServerConfig struct {
	Host string
	Port int
	// StaticDir, when set, is served for all non-API paths.
	StaticDir     string
	MaxUploadSize int64
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}

	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.MaxUploadSize < 0 {
		return errors.Errorf("max upload size cannot be negative, got %d", c.MaxUploadSize)
	}

	return nil
}

// NewServer creates a new web UI server backed by store
func NewServer(config *ServerConfig, store *skills.Store) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}
	if store == nil {
		return nil, errors.New("skill store is required")
	}
	if config.MaxUploadSize == 0 {
		config.MaxUploadSize = DefaultMaxUploadSize
	}

	s := &Server{
		router: mux.NewRouter().UseEncodedPath(),
		store:  store,
		config: config,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all the HTTP routes. Literal segments under
// /api/skills/ (move, files, file, preview) are registered before the
// variable skill routes, and file-scoped routes always carry the
// collection-or-sentinel segment.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", s.handleVersion).Methods("GET")

	api.HandleFunc("/collections", s.handleListCollections).Methods("GET")
	api.HandleFunc("/collections", s.handleCreateCollection).Methods("POST")
	api.HandleFunc("/collections/{name}", s.handleDeleteCollection).Methods("DELETE")

	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills", s.handleCreateSkill).Methods("POST")
	api.HandleFunc("/skills/move", s.handleMoveSkill).Methods("POST")

	api.HandleFunc("/skills/files/{collection}/{skill}", s.handleListFiles).Methods("GET")
	api.HandleFunc("/skills/file/{collection}/{skill}/{path:.+}", s.handleReadFile).Methods("GET")
	api.HandleFunc("/skills/file/{collection}/{skill}/{path:.+}", s.handleWriteFile).Methods("PUT")
	api.HandleFunc("/skills/file/{collection}/{skill}/{path:.+}", s.handleDeleteFile).Methods("DELETE")
	api.HandleFunc("/skills/preview/{collection}/{skill}/{path:.+}", s.handlePreviewFile).Methods("GET")

	for _, pattern := range []string{"/skills/{skill}", "/skills/{collection}/{skill}"} {
		api.HandleFunc(pattern, s.handleDownloadSkill).Methods("GET")
		api.HandleFunc(pattern, s.handleUpdateSkill).Methods("PUT")
		api.HandleFunc(pattern, s.handleDeleteSkill).Methods("DELETE")
	}

	if s.config.StaticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}

	s.router.Use(s.tracingMiddleware)
	s.router.Use(s.loggingMiddleware)
}

// Handler returns the root HTTP handler, including CORS handling for
// requests that match no route such as preflight OPTIONS.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.router)
}

// loggingMiddleware attaches a request-scoped logger and logs each request
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := logger.WithFields(logger.WithComponent(r.Context(), "webui"), logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(ctx))

		logger.G(ctx).WithFields(logrus.Fields{
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// tracingMiddleware opens one span per request named after the route template
func (s *Server) tracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				name = tpl
			}
		}

		ctx, span := tracer.Start(r.Context(), r.Method+" "+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", name),
			),
		)
		defer span.End()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rw.statusCode))
		if rw.statusCode >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
		}
	})
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// pathVar returns a percent-decoded route variable. The router matches on
// the encoded path, so each slash-separated piece is decoded on its own and
// an encoded "%2F" inside a piece becomes a path separator after decoding.
func pathVar(r *http.Request, name string) (string, error) {
	raw := mux.Vars(r)[name]
	if raw == "" {
		return "", nil
	}

	parts := strings.Split(raw, "/")
	for i, part := range parts {
		decoded, err := url.PathUnescape(part)
		if err != nil {
			return "", &skills.Error{Kind: skills.KindBadRequest, Message: fmt.Sprintf("invalid %s in path", name), Err: err}
		}
		parts[i] = decoded
	}
	return strings.Join(parts, "/"), nil
}

// decodeJSON reads a JSON request body into v
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &skills.Error{Kind: skills.KindBadRequest, Message: "invalid JSON body", Err: err}
	}
	return nil
}

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(r.Context()).WithError(err).Error("failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	if err != nil {
		entry := logger.G(r.Context()).WithError(err).WithField("status", statusCode)
		if statusCode >= http.StatusInternalServerError {
			entry.Error(message)
			telemetry.RecordError(r.Context(), err)
		} else {
			entry.Warn(message)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(r.Context()).WithError(err).Error("failed to encode error response")
	}
}

// writeStoreError maps a store error onto its HTTP status
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorResponse(w, r, statusForKind(skills.KindOf(err)), skills.MessageOf(err), err)
}

func statusForKind(kind skills.Kind) int {
	switch kind {
	case skills.KindNotFound:
		return http.StatusNotFound
	case skills.KindConflict:
		return http.StatusConflict
	case skills.KindNotEmpty, skills.KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeSuccess(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, r, http.StatusOK, map[string]any{"success": true})
}

// Start starts the web server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.Handler(),
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"address":    address,
		"skills_dir": s.store.Root(),
	}).Info("starting web server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "web server failed")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop stops the web server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
