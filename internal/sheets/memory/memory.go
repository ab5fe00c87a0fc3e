package memory

import (
	"context"
	"fmt"
	"sync"

	"diapertrack/internal/report"
	"diapertrack/internal/sheets"
)

// Publisher keeps the last published tables in memory.
type Publisher struct {
	mu        sync.Mutex
	summary   [][]any
	purchases [][]any
	published int
}

var _ sheets.ReportPublisher = (*Publisher)(nil)

func New() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(_ context.Context, rep *report.Report) (string, error) {
	summary, purchases := sheets.Tables(rep)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary, p.purchases = summary, purchases
	p.published++
	return fmt.Sprintf("mem:%d", p.published), nil
}

// Snapshot returns copies of the last published sheets.
func (p *Publisher) Snapshot() (summary, purchases [][]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]any(nil), p.summary...), append([][]any(nil), p.purchases...)
}

func (p *Publisher) Published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}
