package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/khanhnv2901/endpoint-analyzer/internal/analyzer"
	"github.com/khanhnv2901/endpoint-analyzer/internal/api/middleware"
	"github.com/khanhnv2901/endpoint-analyzer/internal/checker"
	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/clock"
	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/endpoint-analyzer/internal/shared/errors"
)

// Error types reported in the error envelope.
const (
	ErrorTypeValidation       = "VALIDATION_ERROR"
	ErrorTypeNotFound         = "NOT_FOUND"
	ErrorTypeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrorTypeUnauthorized     = "UNAUTHORIZED"
	ErrorTypeRateLimited      = "RATE_LIMITED"
	ErrorTypeInternal         = "INTERNAL_ERROR"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Analyzer runs one endpoint analysis.
type Analyzer interface {
	Analyze(ctx context.Context, target string) (*analyzer.Report, error)
}

type Config struct {
	Analyzer     Analyzer
	AllowPrivate bool // accept loopback and private targets
	AuthToken    string
	Version      string
	Logger       *zap.Logger
	Clock        clock.Clock
	CORSOrigins  []string // Allowed CORS origins (empty = allow all)
	RateLimit    int      // Requests per second per IP (0 = disabled)
	RateBurst    int      // Burst size for rate limiter
	// TrustForwarded takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustForwarded bool
}

type Server struct {
	cfg      Config
	router   chi.Router
	limiters *rateLimiterMap
	started  time.Time
}

type analyzeRequest struct {
	URL interface{} `json:"url"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success   bool        `json:"success"`
	URL       string      `json:"url,omitempty"`
	Error     errorDetail `json:"error"`
	Timestamp string      `json:"timestamp,omitempty"`
}

type healthResponse struct {
	Status  string  `json:"status"`
	Service string  `json:"service"`
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime"`
}

func NewServer(cfg Config) *Server {
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	clk := clock.OrReal(cfg.Clock)
	cfg.Clock = clk
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = cfg.RateLimit
	}

	srv := &Server{
		cfg:      cfg,
		limiters: newRateLimiterMap(clk),
		started:  clk.Now(),
	}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	if s.cfg.TrustForwarded {
		r.Use(chimw.RealIP)
	}
	// RequestID -> Recover -> Logging -> RateLimit -> CORS -> Auth -> Handler
	r.Use(middleware.RequestID, s.withRecover, s.withLogging, s.withRateLimit, s.corsHandler())
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)
		r.With(s.withAuth).Post("/analyze", s.handleAnalyze)
	})

	// Unversioned aliases
	r.Get("/health", s.handleHealth)
	r.With(s.withAuth).Post("/analyze", s.handleAnalyze)

	s.router = r
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBodyBytes)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		msg := "Request body must be valid JSON"
		if errors.As(err, &tooLarge) {
			msg = fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit)
		}
		s.validationError(w, msg)
		return
	}

	raw, ok := req.URL.(string)
	if !ok {
		s.validationError(w, sharedErrors.ErrEmptyURL.Error())
		return
	}
	target, err := checker.ValidateURL(raw, s.cfg.AllowPrivate)
	if err != nil {
		s.validationError(w, err.Error())
		return
	}

	if s.cfg.Analyzer == nil {
		s.internalError(w, r, target, errors.New("analyzer not configured"))
		return
	}

	// The probe runs to completion even if the client goes away.
	report, err := s.cfg.Analyzer.Analyze(context.WithoutCancel(r.Context()), target)
	if err != nil {
		s.internalError(w, r, target, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: constants.ServiceName,
		Version: s.cfg.Version,
		Uptime:  clock.Since(s.cfg.Clock, s.started).Seconds(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Analyzer == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, ErrorTypeInternal, errors.New("analyzer not configured"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, ErrorTypeNotFound,
		fmt.Errorf("Route %s %s not found", r.Method, r.URL.Path))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, ErrorTypeMethodNotAllowed,
		fmt.Errorf("Method %s not allowed for %s", r.Method, r.URL.Path))
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.requestLogger(r).Error("handler_panic", zap.Any("panic", rec), zap.Stack("stack"))
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error: errorDetail{Type: ErrorTypeInternal, Message: "An unexpected server error occurred"},
			})
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip rate limiting if disabled
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := clientAddr(r)
		limiter := s.limiters.getLimiter(clientIP, s.cfg.RateLimit, s.cfg.RateBurst)
		if !limiter.Allow() {
			s.requestLogger(r).Warn("rate_limit_exceeded", zap.String("client_ip", clientIP))
			w.Header().Set("Retry-After", "1")
			s.writeError(w, r, http.StatusTooManyRequests, ErrorTypeRateLimited, errors.New("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsHandler() func(http.Handler) http.Handler {
	if len(s.cfg.CORSOrigins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Auth-Token", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         3600,
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.cfg.Clock.Now()

		// Create a response writer wrapper to capture status code
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		if s.cfg.Logger != nil {
			s.cfg.Logger.Info("http_request",
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", clock.Since(s.cfg.Clock, start)),
				zap.Int64("bytes", lrw.bytesWritten),
			)
		}
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		// Use constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, ErrorTypeUnauthorized, errors.New("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

// writeJSON encodes payload with two-space indentation.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, errType string, err error) {
	// Sanitize error messages to prevent information disclosure
	msg := err.Error()

	// For 5xx errors, return generic message and log details server-side
	if status >= 500 {
		s.requestLogger(r).Error("internal_server_error",
			zap.Error(err),
			zap.Int("status", status),
		)
		msg = "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: errorDetail{Type: errType, Message: msg}})
}

func (s *Server) validationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:     errorDetail{Type: ErrorTypeValidation, Message: msg},
		Timestamp: s.timestamp(),
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, target string, err error) {
	s.requestLogger(r).Error("analysis_failed", zap.String("url", target), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		URL:       target,
		Error:     errorDetail{Type: ErrorTypeInternal, Message: "An unexpected error occurred during analysis"},
		Timestamp: s.timestamp(),
	})
}

func (s *Server) timestamp() string {
	return s.cfg.Clock.Now().UTC().Format(timestampLayout)
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}

	return s.cfg.Logger.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

// clientAddr returns the host part of RemoteAddr. Forwarding headers only
// count when TrustForwarded has mounted RealIP ahead of the limiter.
func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
