package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/lacquerai/jsonedit/internal/editor"
	"github.com/lacquerai/jsonedit/internal/i18n"
	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/store"
)

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	EnableMetrics   bool
	EnableCORS      bool
	SchemaDir       string
	StoreDir        string
	Editor          editor.Config
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            8080,
		EnableMetrics:   true,
		EnableCORS:      true,
		Editor:          editor.DefaultConfig(),
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server hosts editor sessions over HTTP and WebSocket.
type Server struct {
	config     *Config
	schemas    *schema.Registry
	store      *store.Store
	strings    *i18n.Table
	dispatcher *editor.Dispatcher
	manager    *SessionManager
	server     *http.Server
	upgrader   websocket.Upgrader

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// Option customizes a Server.
type Option func(*Server)

// WithRegistry sends the server metrics to reg instead of the default
// prometheus registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registerer = reg
		s.gatherer = reg
	}
}

// WithStore uses st for field documents.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithSchemas uses reg instead of loading Config.SchemaDir.
func WithSchemas(reg *schema.Registry) Option {
	return func(s *Server) { s.schemas = reg }
}

// WithStrings uses t for every message the sessions produce.
func WithStrings(t *i18n.Table) Option {
	return func(s *Server) { s.strings = t }
}

// New creates a new jsonedit server
func New(config *Config, opts ...Option) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	server := &Server{
		config:     config,
		dispatcher: editor.NewDispatcher(),
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return config.EnableCORS // Allow all origins if CORS enabled
			},
		},
	}
	for _, opt := range opts {
		opt(server)
	}

	if server.strings == nil {
		server.strings = i18n.New()
	}
	if server.schemas == nil {
		server.schemas = schema.NewRegistry()
	}
	if server.store == nil {
		st, err := store.New(config.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open field store: %w", err)
		}
		server.store = st
	}

	return server, nil
}

// initializeManager initializes the session manager if not already set
func (s *Server) initializeManager() {
	if s.manager == nil {
		s.manager = NewSessionManagerWithRegistry(s.registerer)
	}
}

// LoadSchemas loads every schema file under Config.SchemaDir.
func (s *Server) LoadSchemas() error {
	if s.config.SchemaDir == "" {
		return nil
	}

	log.Info().Str("dir", s.config.SchemaDir).Msg("Loading schemas...")
	if err := s.schemas.LoadDir(s.config.SchemaDir); err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}
	return nil
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	s.initializeManager()

	router := mux.NewRouter()

	// Apply CORS middleware to all routes if enabled
	if s.config.EnableCORS {
		router.Use(s.corsMiddleware)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.loggingMiddleware)

	// Schema endpoints
	api.HandleFunc("/schemas", s.listSchemas).Methods("GET")
	api.HandleFunc("/schemas/{name}", s.getSchema).Methods("GET")

	// Field endpoints
	api.HandleFunc("/fields", s.listFields).Methods("GET")
	api.HandleFunc("/fields/{id}/open", s.openField).Methods("POST")
	api.HandleFunc("/fields/{id}/save", s.saveField).Methods("POST")
	api.HandleFunc("/fields/{id}/cancel", s.cancelField).Methods("POST")
	api.HandleFunc("/fields/{id}/value", s.fieldValue).Methods("GET")
	api.HandleFunc("/fields/{id}/stream", s.streamField).Methods("GET")

	api.HandleFunc("/validate", s.validateDocument).Methods("POST")

	// Handle OPTIONS for CORS preflight
	if s.config.EnableCORS {
		api.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}

	if s.config.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	router.HandleFunc("/health", s.healthCheck)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	log.Info().
		Str("addr", addr).
		Int("schemas", s.schemas.Count()).
		Str("store", s.store.Dir()).
		Bool("metrics", s.config.EnableMetrics).
		Msg("Starting jsonedit server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Info().Msg("Shutting down server...")
	if s.manager != nil {
		s.manager.Close()
	}
	s.dispatcher.Close()
	return s.server.Shutdown(ctx)
}

// StartWithGracefulShutdown starts the server and handles graceful shutdown
func (s *Server) StartWithGracefulShutdown() error {
	if err := s.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer shutdownCancel()

		if err := s.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}

		cancel()
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutdown complete")
	return nil
}

// GetAddr returns the server address
func (s *Server) GetAddr() string {
	if s.server != nil && s.config.Port == 0 {
		return s.server.Addr
	}
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// GetSchemaCount returns the number of loaded schemas
func (s *Server) GetSchemaCount() int {
	return s.schemas.Count()
}
