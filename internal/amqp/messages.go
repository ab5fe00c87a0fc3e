package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExportRequest asks the worker to render the current ledger in one format.
// The worker reads the data itself, so the message stays small.
type ExportRequest struct {
	JobID       string    `json:"job_id"`
	Format      string    `json:"format"`
	RequestID   string    `json:"request_id,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewExportRequest(format, requestID string) *ExportRequest {
	return &ExportRequest{
		JobID:       uuid.NewString(),
		Format:      strings.ToLower(strings.TrimSpace(format)),
		RequestID:   requestID,
		RequestedAt: time.Now().UTC(),
	}
}

func (m *ExportRequest) Validate() error {
	if _, err := uuid.Parse(m.JobID); err != nil {
		return fmt.Errorf("invalid job id %q: %w", m.JobID, err)
	}
	if m.Format == "" {
		return errors.New("missing export format")
	}
	return nil
}

func (m *ExportRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportRequestFromJSON(data []byte) (*ExportRequest, error) {
	var msg ExportRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
