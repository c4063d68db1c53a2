package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"entrate/internal/cache"
	"entrate/internal/log"
	"entrate/internal/services"
	appweb "entrate/web"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// appMetrics tracks application counters exposed at /metrics.
type appMetrics struct {
	requestsTotal  int64
	recordsCreated int64
	recordsDeleted int64
	startedAt      time.Time
}

// Server serves the income dashboard: the form page, HTMX partials and the
// chart data endpoints. All record mutations go through the record service.
type Server struct {
	http.Server
	templates *template.Template
	records   *services.RecordService

	rateLimiter *rateLimiter
	security    *securityMetrics
	metrics     appMetrics

	// Chart payloads are rebuilt on every dashboard refresh otherwise; a
	// small TTL cache absorbs the HTMX refresh bursts.
	chartCache   *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, records *services.RecordService) *Server {
	s := &Server{
		records:      records,
		rateLimiter:  newRateLimiter(),
		security:     &securityMetrics{},
		chartCache:   cache.NewLRUCache[[]byte](8, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.metrics.startedAt = time.Now()

	s.cacheManager.Register(s.chartCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Handle("/static/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Tiny cache for static assets
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/", s.withSecurityHeaders(s.handleIndex))
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Post("/records", s.withSecurityHeaders(s.handleCreateRecord))
	r.Post("/records/delete", s.withSecurityHeaders(s.handleDeleteRecord))
	r.Delete("/records/{id}", s.withSecurityHeaders(s.handleDeleteRecordByID))

	// UI partials
	r.Get("/ui/records", s.withSecurityHeaders(s.handleRecordsTable))
	r.Get("/ui/overview", s.withSecurityHeaders(s.handleOverview))
	r.Get("/ui/charts", s.withSecurityHeaders(s.handleChartsSection))
	r.Get("/charts/{chartType}", s.withSecurityHeaders(s.handleChartData))

	s.Addr = addr
	s.Handler = r

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}

		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateCharts drops every cached chart payload. Called after each
// mutation so the next fetch reflects the new record set.
func (s *Server) invalidateCharts() {
	s.chartCache.Purge()
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.metrics.requestsTotal, 1)

		clientIP := extractClientIP(r)

		// Generate request ID for tracing
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.security) {
			slog.WarnContext(ctx, "Suspicious request detected",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		// Rate limit mutations only; dashboard polling stays unthrottled.
		if (r.Method == http.MethodPost || r.Method == http.MethodDelete) && !s.rateLimiter.allow(clientIP, s.security) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com https://cdn.plot.ly 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Create a custom response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
