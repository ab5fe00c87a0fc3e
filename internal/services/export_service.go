package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"diapertrack/internal/amqp"
	"diapertrack/internal/export"
	"diapertrack/internal/metrics"
)

// ErrExportsDisabled is returned by Enqueue when no broker is configured.
var ErrExportsDisabled = errors.New("async exports are not configured")

// ExportPublisher is the broker side of ExportService. *amqp.Client satisfies it.
type ExportPublisher interface {
	PublishExportRequest(ctx context.Context, req *amqp.ExportRequest) error
}

type ExportService struct {
	publisher ExportPublisher
	metrics   *metrics.Metrics
}

// NewExportService builds the job dispatcher. A nil publisher disables queuing.
func NewExportService(publisher ExportPublisher, m *metrics.Metrics) *ExportService {
	return &ExportService{
		publisher: publisher,
		metrics:   m,
	}
}

func (s *ExportService) Enabled() bool {
	return s != nil && s.publisher != nil
}

// Enqueue validates the format and publishes an export job for the worker.
func (s *ExportService) Enqueue(ctx context.Context, format, requestID string) (*amqp.ExportRequest, error) {
	if !s.Enabled() {
		return nil, ErrExportsDisabled
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	req := amqp.NewExportRequest(string(f), requestID)
	if err := s.publisher.PublishExportRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("publish export request: %w", err)
	}

	s.metrics.ExportQueued(string(f))
	slog.InfoContext(ctx, "Export job queued",
		"job_id", req.JobID,
		"format", req.Format)
	return req, nil
}
