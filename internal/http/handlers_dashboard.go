package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"diapertrack/internal/core"
	applog "diapertrack/internal/log"
	"diapertrack/internal/report"
)

const recentPurchases = 5

type dashboardPage struct {
	page
	Stats  core.Statistics
	Recent []report.Row
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rep, err := report.Load(r.Context(), s.store, s.now())
	if err != nil {
		s.serverError(w, r, "Dashboard load failed", err)
		return
	}

	s.render(w, r, "index.html", http.StatusOK, dashboardPage{
		page:   s.newPage(w, r, "Dashboard", "dashboard"),
		Stats:  rep.Stats,
		Recent: rep.Recent(recentPurchases),
	})
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady verifies templates and the storage connection.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{"templates": "ok", "storage": "ok"}

	if len(s.pages) != len(pageNames) {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	}
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		}
	}
	if s.exports.Enabled() {
		checks["exports"] = "enabled"
	} else {
		checks["exports"] = "disabled"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleAPIBrands(w http.ResponseWriter, r *http.Request) {
	names, err := s.brands.ListBrandNames(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Brand list failed",
			applog.FieldOperation, applog.OpList,
			applog.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load brands"})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// serverError logs err and answers with a generic 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	applog.FromContext(r.Context()).ErrorContext(r.Context(), msg, applog.FieldError, err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
