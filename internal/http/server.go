package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bevute/internal/cache"
	applog "bevute/internal/log"
	"bevute/internal/middleware/ratelimit"
	"bevute/internal/middleware/security"
	"bevute/internal/middleware/trace"
	"bevute/internal/services"
	appweb "bevute/web"
)

// appMetrics tracks application-level counters exposed on /metrics.
type appMetrics struct {
	totalSaves  int64
	cacheHits   int64
	cacheMisses int64
	uptime      time.Time
}

// Server serves the catalog, daily log, and statistics views. Month and
// year views are cached; a day save invalidates every cached window the
// day falls into.
type Server struct {
	http.Server
	templates *template.Template
	drinks    *services.DrinkService
	records   *services.RecordService

	rateLimiter *ratelimit.Limiter
	secHeaders  *security.HeadersMiddleware
	tracer      *trace.Middleware
	structLog   *applog.StructuredLogger

	monthCache *cache.LRUCache[monthView]
	yearCache  *cache.LRUCache[yearView]
	cacheMgr   *cache.Manager

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, drinks *services.DrinkService, records *services.RecordService) *Server {
	mux := http.NewServeMux()

	appLogger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentHTTP})

	s := &Server{
		drinks:      drinks,
		records:     records,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		secHeaders:  security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		tracer:      trace.NewMiddleware(extractClientIP),
		structLog:   applog.NewStructuredLogger(appLogger),
		monthCache:  cache.NewLRUCache[monthView](100, 5*time.Minute),
		yearCache:   cache.NewLRUCache[yearView](20, 5*time.Minute),
		cacheMgr:    cache.NewManager(),
		appMetrics:  &appMetrics{uptime: time.Now()},
	}
	s.cacheMgr.Register(s.monthCache)
	s.cacheMgr.Register(s.yearCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// Catalog
	mux.HandleFunc("/ui/drinks", s.handleDrinksPartial)
	mux.HandleFunc("/drinks", s.limitWrites(s.handleCreateDrink))
	mux.HandleFunc("/drinks/update", s.limitWrites(s.handleUpdateDrink))
	mux.HandleFunc("/drinks/delete", s.limitWrites(s.handleDeleteDrink))
	mux.HandleFunc("/drinks/reorder", s.limitWrites(s.handleReorderDrinks))

	// Daily log
	mux.HandleFunc("/ui/day", s.handleDayPartial)
	mux.HandleFunc("/day", s.limitWrites(s.handleSaveDay))

	// Statistics
	mux.HandleFunc("/ui/month", s.handleMonthPartial)
	mux.HandleFunc("/ui/year", s.handleYearPartial)
	mux.HandleFunc("/api/calendar", s.handleCalendarJSON)

	s.Server = http.Server{
		Addr:    addr,
		Handler: applog.Middleware(appLogger)(s.secHeaders.Middleware(s.tracer.Middleware(mux))),
	}

	return s
}

// limitWrites applies per-client rate limiting to mutating handlers.
func (s *Server) limitWrites(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		if !s.rateLimiter.Allow(clientIP) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
