package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"diapertrack/internal/core"
	applog "diapertrack/internal/log"
	"diapertrack/internal/metrics"
	"diapertrack/internal/middleware/ratelimit"
	"diapertrack/internal/middleware/security"
	"diapertrack/internal/middleware/trace"
	"diapertrack/internal/services"
	appweb "diapertrack/web"
)

// Deps are the collaborators the web UI needs. Brands defaults to Store and
// Ready defaults to a no-op check.
type Deps struct {
	Store     core.Store
	Brands    core.BrandRegistry
	Purchases *services.PurchaseService
	Exports   *services.ExportService
	Ready     func(ctx context.Context) error
	Metrics   *metrics.Metrics
	Logger    *applog.Logger
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server

	store     core.Store
	brands    core.BrandRegistry
	purchases *services.PurchaseService
	exports   *services.ExportService
	ready     func(ctx context.Context) error
	metrics   *metrics.Metrics
	logger    *applog.Logger

	pages    map[string]*template.Template
	limiter  *ratelimit.Limiter
	clientIP *security.ClientIP
	started  time.Time
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("http server: store is required")
	}
	if deps.Brands == nil {
		deps.Brands = deps.Store
	}
	if deps.Purchases == nil {
		cache, _ := deps.Brands.(services.BrandCache)
		deps.Purchases = services.NewPurchaseService(deps.Store, cache, deps.Metrics)
	}
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:     deps.Store,
		brands:    deps.Brands,
		purchases: deps.Purchases,
		exports:   deps.Exports,
		ready:     deps.Ready,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		pages:     pages,
		limiter:   ratelimit.NewLimiter(deps.RateLimit),
		clientIP:  security.NewClientIP(),
		started:   time.Now(),
		now:       time.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var observer trace.Observer
	if s.metrics != nil {
		observer = s.metrics
	}
	tracer := trace.NewMiddleware(s.logger, s.clientIP.Extract, observer)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.clientIP.Extract, nil)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(limit(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServerFS(sub))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.Handle("GET /{$}", s.form(s.handleIndex))

	mux.Handle("GET /add", s.form(s.handleAddForm))
	mux.Handle("POST /add", s.form(s.handleAddPurchase))
	mux.Handle("GET /history", s.form(s.handleHistory))
	mux.Handle("POST /delete_purchase/{id}", s.form(s.handleDeletePurchase))
	mux.Handle("POST /purchase/{id}/open_box", s.form(s.handleOpenBox))

	mux.Handle("GET /brands", s.form(s.handleBrands))
	mux.Handle("POST /brands", s.form(s.handleAddBrand))
	mux.Handle("POST /brands/edit/{id}", s.form(s.handleEditBrand))
	mux.Handle("POST /brands/delete/{id}", s.form(s.handleDeleteBrand))
	mux.HandleFunc("GET /api/brands", s.handleAPIBrands)

	mux.HandleFunc("GET /export/pdf", s.handleExportPDF)
	mux.HandleFunc("GET /export/excel", s.handleExportExcel)
	mux.Handle("POST /exports", s.form(s.handleEnqueueExport))
}

// form applies CSRF protection per route. Wrapping the whole mux would clone
// the request before the mux records the matched pattern for metrics.
func (s *Server) form(h http.HandlerFunc) http.Handler {
	return security.CSRF(s.handleCSRFFailure)(h)
}

func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "CSRF validation failed",
		applog.FieldPath, r.URL.Path)
	http.Error(w, "Invalid or missing form token. Reload the page and try again.", http.StatusForbidden)
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
