package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"diapertrack/internal/export"
	applog "diapertrack/internal/log"
	"diapertrack/internal/middleware/trace"
	"diapertrack/internal/report"
	"diapertrack/internal/services"
)

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, export.FormatPDF)
}

func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, export.FormatXLSX)
}

// serveExport renders the whole ledger synchronously as a download.
func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, format export.Format) {
	now := s.now()
	rep, err := report.Load(r.Context(), s.store, now)
	if err != nil {
		s.serverError(w, r, "Export report load failed", err)
		return
	}

	var buf bytes.Buffer
	switch format {
	case export.FormatPDF:
		err = export.WritePDF(&buf, rep)
	default:
		err = export.WriteXLSX(&buf, rep)
	}
	if err != nil {
		s.serverError(w, r, "Export render failed", err)
		return
	}
	s.metrics.ExportGenerated(string(format))

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Export generated",
		applog.FieldFormat, format,
		applog.FieldOperation, applog.OpExport,
		"rows", len(rep.Rows),
		"bytes", buf.Len())

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(format, now)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleEnqueueExport queues a background export. JSON clients get 202 with
// the job id, browsers are redirected back to the dashboard.
func (s *Server) handleEnqueueExport(w http.ResponseWriter, r *http.Request) {
	format := r.PostFormValue("format")
	req, err := s.exports.Enqueue(r.Context(), format, trace.GetRequestID(r.Context()))
	wantsJSON := strings.Contains(r.Header.Get("Accept"), "application/json")

	if err != nil {
		status, msg := http.StatusServiceUnavailable, "Could not queue the export. Please try again later."
		switch {
		case errors.Is(err, services.ErrExportsDisabled):
			msg = "Background exports are not configured."
		case errors.Is(err, export.ErrUnknownFormat):
			status, msg = http.StatusUnprocessableEntity, "Unknown export format."
		default:
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Export enqueue failed",
				applog.FieldFormat, format,
				applog.FieldOperation, applog.OpEnqueue,
				applog.FieldError, err)
		}
		if wantsJSON {
			writeJSON(w, status, map[string]string{"error": msg})
			return
		}
		redirectWithFlash(w, r, "/", flashError, msg)
		return
	}

	if wantsJSON {
		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": req.JobID, "format": req.Format})
		return
	}
	redirectWithFlash(w, r, "/", flashSuccess, "Export queued (job "+req.JobID[:8]+").")
}
