package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"diapertrack/internal/amqp"
	"diapertrack/internal/export"
	"diapertrack/internal/metrics"
	"diapertrack/internal/report"
	"diapertrack/internal/sheets"
)

// ExportWorker renders queued export requests. File formats land in dir,
// gsheet requests are mirrored through the publisher.
type ExportWorker struct {
	source    report.Source
	publisher sheets.ReportPublisher
	dir       string
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewExportWorker(source report.Source, publisher sheets.ReportPublisher, dir string, m *metrics.Metrics) *ExportWorker {
	return &ExportWorker{
		source:    source,
		publisher: publisher,
		dir:       dir,
		metrics:   m,
		now:       time.Now,
	}
}

// HandleExportRequest processes a single export request from AMQP.
// Requests that can never succeed are marked with amqp.ErrPermanent.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, req *amqp.ExportRequest) error {
	slog.InfoContext(ctx, "Processing export request",
		"job_id", req.JobID,
		"format", req.Format,
		"request_id", req.RequestID)

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", amqp.ErrPermanent, err)
	}

	start := time.Now()
	ref, err := w.Render(ctx, format)
	if err != nil {
		if errors.Is(err, errNoPublisher) {
			return fmt.Errorf("%w: %v", amqp.ErrPermanent, err)
		}
		return fmt.Errorf("render %s export: %w", format, err)
	}

	slog.InfoContext(ctx, "Export completed",
		"job_id", req.JobID,
		"format", format,
		"ref", ref,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

var errNoPublisher = errors.New("google sheets publishing is not configured")

// Render builds a fresh report and writes it in the given format.
// It returns the written file path or the remote sheet reference.
func (w *ExportWorker) Render(ctx context.Context, format export.Format) (string, error) {
	if format == export.FormatGSheet && w.publisher == nil {
		return "", errNoPublisher
	}

	now := w.now()
	rep, err := report.Load(ctx, w.source, now)
	if err != nil {
		return "", err
	}

	var ref string
	switch format {
	case export.FormatGSheet:
		ref, err = w.publisher.Publish(ctx, rep)
	case export.FormatPDF:
		ref, err = w.writeFile(export.FileName(format, now), func(f *os.File) error {
			return export.WritePDF(f, rep)
		})
	case export.FormatXLSX:
		ref, err = w.writeFile(export.FileName(format, now), func(f *os.File) error {
			return export.WriteXLSX(f, rep)
		})
	default:
		return "", fmt.Errorf("%w: %q", export.ErrUnknownFormat, format)
	}
	if err != nil {
		return "", err
	}

	w.metrics.ExportGenerated(string(format))
	return ref, nil
}

// writeFile renders into a temp file in the export directory and renames it
// into place so readers never see a partial document.
func (w *ExportWorker) writeFile(name string, render func(*os.File) error) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := render(tmp); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return path, nil
}
