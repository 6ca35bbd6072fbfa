// Package http implements the JSON API of the study dashboard: the dashboard
// and program read models, CRUD endpoints for modules, exam results and
// enrollments, and health probes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studytrack/study-dashboard/internal/application/command"
	"github.com/studytrack/study-dashboard/internal/application/query"
	"github.com/studytrack/study-dashboard/internal/domain/study"
	"github.com/studytrack/study-dashboard/internal/interface/http/handlers"
	"github.com/studytrack/study-dashboard/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// MaxBodyBytes - maximum size of request bodies.
	MaxBodyBytes int64

	// RequestTimeout - deadline attached to each request context (0 = none).
	RequestTimeout time.Duration

	// EnableCORS - enable CORS headers.
	EnableCORS bool

	// AllowedOrigins - allowed origins for CORS.
	AllowedOrigins []string

	// RateLimitPerMinute - requests per minute per IP (0 = disabled).
	RateLimitPerMinute int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxHeaderBytes:     1 << 20, // 1 MB
		MaxBodyBytes:       64 << 10,
		RequestTimeout:     10 * time.Second,
		EnableCORS:         true,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 120,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	// Query Handlers (CQRS Read Side)
	Dashboard *query.GetDashboardHandler
	Program   *query.GetProgramHandler
	Listings  *query.ListingHandler

	// Command Handlers (CQRS Write Side)
	CreateModule     *command.CreateModuleHandler
	UpdateModule     *command.UpdateModuleHandler
	DeleteModule     *command.DeleteModuleHandler
	CreateExamResult *command.CreateExamResultHandler
	UpdateExamResult *command.UpdateExamResultHandler
	DeleteExamResult *command.DeleteExamResultHandler
	CreateEnrollment *command.CreateEnrollmentHandler
	UpdateEnrollment *command.UpdateEnrollmentHandler
	DeleteEnrollment *command.DeleteEnrollmentHandler

	// Logger
	Logger *logger.Logger

	// Health Check Dependencies
	HealthChecker handlers.HealthChecker

	// RateLimiter overrides the in-process limiter (e.g. the Redis store).
	RateLimiter RateLimiter
}

// NewDependencies wires every query and command handler to one gateway.
func NewDependencies(gateway study.Gateway, settings query.DashboardSettings) Dependencies {
	return Dependencies{
		Dashboard:        query.NewGetDashboardHandler(gateway, settings),
		Program:          query.NewGetProgramHandler(gateway),
		Listings:         query.NewListingHandler(gateway),
		CreateModule:     command.NewCreateModuleHandler(gateway),
		UpdateModule:     command.NewUpdateModuleHandler(gateway),
		DeleteModule:     command.NewDeleteModuleHandler(gateway),
		CreateExamResult: command.NewCreateExamResultHandler(gateway),
		UpdateExamResult: command.NewUpdateExamResultHandler(gateway),
		DeleteExamResult: command.NewDeleteExamResultHandler(gateway),
		CreateEnrollment: command.NewCreateEnrollmentHandler(gateway),
		UpdateEnrollment: command.NewUpdateEnrollmentHandler(gateway),
		DeleteEnrollment: command.NewDeleteEnrollmentHandler(gateway),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	logger     *logger.Logger

	// Middleware state
	rateLimiter RateLimiter
	ownLimiter  *MemoryRateLimiter

	// Server state
	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger,
	}

	if s.logger == nil {
		s.logger = logger.Default()
	}
	if s.deps.HealthChecker == nil {
		s.deps.HealthChecker = handlers.NewNoopHealthChecker()
	}

	switch {
	case deps.RateLimiter != nil:
		s.rateLimiter = deps.RateLimiter
	case config.RateLimitPerMinute > 0:
		s.ownLimiter = NewMemoryRateLimiter(config.RateLimitPerMinute, time.Minute)
		s.rateLimiter = s.ownLimiter
	}

	s.setupRoutes()
	s.handler = s.buildMiddlewareChain(s.router)

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.handler,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth) // Kubernetes alias
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /live", s.handleLive)
	s.router.HandleFunc("GET /{$}", s.handleRoot)

	// ─────────────────────────────────────────────────────────────────────────
	// API v1 - Read Models
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/dashboard", s.handleGetDashboard)
	s.router.HandleFunc("GET /api/v1/program", s.handleGetProgram)
	s.router.HandleFunc("GET /api/v1/semesters", s.handleListSemesters)

	// ─────────────────────────────────────────────────────────────────────────
	// API v1 - Modules & Exam Results
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/modules", s.handleListModules)
	s.router.HandleFunc("POST /api/v1/modules", s.handleCreateModule)
	s.router.HandleFunc("GET /api/v1/modules/{code}", s.handleGetModule)
	s.router.HandleFunc("PATCH /api/v1/modules/{code}", s.handleUpdateModule)
	s.router.HandleFunc("DELETE /api/v1/modules/{code}", s.handleDeleteModule)
	s.router.HandleFunc("GET /api/v1/modules/{code}/exam-results", s.handleListExamResults)
	s.router.HandleFunc("POST /api/v1/modules/{code}/exam-results", s.handleCreateExamResult)
	s.router.HandleFunc("PATCH /api/v1/exam-results/{id}", s.handleUpdateExamResult)
	s.router.HandleFunc("DELETE /api/v1/exam-results/{id}", s.handleDeleteExamResult)

	// ─────────────────────────────────────────────────────────────────────────
	// API v1 - Enrollments
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/enrollments", s.handleListEnrollments)
	s.router.HandleFunc("POST /api/v1/enrollments", s.handleCreateEnrollment)
	s.router.HandleFunc("PATCH /api/v1/enrollments/{semester}/{code}/{kind}", s.handleUpdateEnrollment)
	s.router.HandleFunc("DELETE /api/v1/enrollments/{semester}/{code}/{kind}", s.handleDeleteEnrollment)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN
// ══════════════════════════════════════════════════════════════════════════════

// buildMiddlewareChain wraps the router with all middleware.
func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last middleware wraps first)
	inner := []handlers.MiddlewareFunc{
		handlers.SecurityHeadersMiddleware,
		handlers.NoCacheMiddleware,
	}
	if s.config.MaxBodyBytes > 0 {
		inner = append(inner, handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes))
	}
	h := handlers.ChainHandler(handler, inner...)

	// Storage deadline
	if s.config.RequestTimeout > 0 {
		h = s.timeoutMiddleware(h)
	}

	// Logging middleware
	h = s.loggingMiddleware(h)

	// Recovery middleware (must be early to catch panics)
	h = s.recoveryMiddleware(h)

	// Rate limiting middleware
	if s.rateLimiter != nil {
		h = s.rateLimitMiddleware(h)
	}

	// CORS middleware
	if s.config.EnableCORS {
		h = s.corsMiddleware(h)
	}

	// Request ID middleware
	h = s.requestIDMiddleware(h)

	return h
}

// requestIDMiddleware adds a unique request ID to each request.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		ctx = logger.WithContext(ctx, s.logger.WithRequestID(requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs all HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.requestLogger(r).Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Latency(time.Since(start)),
			logger.String("ip", getClientIP(r)),
		)
	})
}

// requestLogger returns the logger tagged with the request id, or the server
// logger outside the request-id middleware.
func (s *Server) requestLogger(r *http.Request) *logger.Logger {
	return logger.FromContext(r.Context(), s.logger)
}

// timeoutMiddleware bounds the time a handler may spend in storage.
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.requestLogger(r).Error("panic recovered",
					logger.Any("error", err),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
				)
				writeJSONError(w, r, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowed := false
		for _, o := range s.config.AllowedOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Add("Vary", "Origin")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware implements per-IP rate limiting. Limiter failures are
// logged and the request is let through.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)

		allowed, err := s.rateLimiter.Allow(r.Context(), ip)
		if err != nil {
			s.requestLogger(r).Warn("rate limiter unavailable", logger.Err(err), logger.String("ip", ip))
			allowed = true
		}
		if !allowed {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, r, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, please try again later", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.ownLimiter != nil {
		s.ownLimiter.Stop()
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER TYPES AND FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// getRequestID extracts the request ID from context.
func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}
