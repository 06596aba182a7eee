// Package server provides the HTTP server for the blinktalk board.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/ayusman/blinktalk/internal/app"
	"github.com/ayusman/blinktalk/internal/log"
	"github.com/ayusman/blinktalk/internal/server/api"
	"github.com/ayusman/blinktalk/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Hub       *Hub
	Logger    *slog.Logger
}

// Server represents the HTTP server for the blinktalk application.
type Server struct {
	config Config
	router *httprouter.Router
	start  time.Time
	logger *slog.Logger

	mu   sync.Mutex
	http *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = log.Component("server")
	}
	s := &Server{
		config: config,
		router: httprouter.New(),
		start:  time.Now(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.GET("/api/health", s.handleHealth)

	if a := s.config.App; a != nil {
		tracking := api.NewTrackingHandler(a)
		r.GET("/api/status", tracking.Status)
		r.POST("/api/tracking/start", tracking.Start)
		r.POST("/api/tracking/stop", tracking.Stop)
		r.PUT("/api/screen", tracking.Screen)

		sel := api.NewSelectionHandler(a.Selection())
		r.GET("/api/selection", sel.Get)
		r.POST("/api/selection/:command", sel.Command)
		r.POST("/api/select/:id", sel.Select)

		cal := api.NewCalibrationHandler(a)
		r.GET("/api/calibration", cal.Get)
		r.POST("/api/calibration/quick", cal.Quick)
		r.POST("/api/calibration/start", cal.Start)
		r.POST("/api/calibration/record", cal.Record)
		r.DELETE("/api/calibration", cal.Reset)

		voc := api.NewVocabularyHandler(a)
		r.GET("/api/vocabulary", voc.Get)
		r.PUT("/api/vocabulary", voc.Put)

		r.Handler(http.MethodGet, "/api/stream", NewStreamHandler(a))
	}

	if s.config.Store != nil {
		utt := api.NewUtteranceHandler(s.config.Store)
		r.GET("/api/utterances", utt.List)
		r.GET("/api/utterances/:id", utt.Get)
	}

	if s.config.Hub != nil {
		r.Handler(http.MethodGet, "/api/events", s.config.Hub)
	}

	// Everything else is the board UI.
	if s.config.StaticDir != "" {
		r.NotFound = http.FileServer(http.Dir(s.config.StaticDir))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on addr and blocks until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes the event hub and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
