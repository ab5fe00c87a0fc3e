// Package report assembles a read-only snapshot of the ledger for the
// dashboard, history page and exporters.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"diapertrack/internal/core"
)

// Source is the subset of the data-access contract a report reads.
type Source interface {
	core.PurchaseLedger
	core.OpeningTracker
	core.StatisticsReader
}

type Row struct {
	Purchase core.Purchase
	Openings []core.BoxOpening
}

func (r Row) TotalDiapers() int { return r.Purchase.TotalDiapers() }

func (r Row) CostPerDiaper() decimal.Decimal { return r.Purchase.CostPerDiaper() }

func (r Row) OpenedCount() int { return core.CountOpened(r.Openings) }

// OpenedLabel renders "opened/boxes", e.g. "1/2".
func (r Row) OpenedLabel() string {
	return fmt.Sprintf("%d/%d", r.OpenedCount(), r.Purchase.NumBoxes)
}

// FirstSealed returns the lowest-numbered unopened box, if any.
func (r Row) FirstSealed() (core.BoxOpening, bool) {
	for _, o := range r.Openings {
		if !o.IsOpened() {
			return o, true
		}
	}
	return core.BoxOpening{}, false
}

type Report struct {
	GeneratedAt time.Time
	Stats       core.Statistics
	Rows        []Row // ledger order: newest first
}

// Load reads statistics, purchases and openings concurrently.
func Load(ctx context.Context, src Source, now time.Time) (*Report, error) {
	var (
		stats     core.Statistics
		purchases []core.Purchase
		openings  map[int64][]core.BoxOpening
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = src.ComputeStatistics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		purchases, err = src.ListPurchases(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		openings, err = src.ListAllOpenings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}

	rows := make([]Row, len(purchases))
	for i, p := range purchases {
		rows[i] = Row{Purchase: p, Openings: openings[p.ID]}
	}
	return &Report{GeneratedAt: now, Stats: stats, Rows: rows}, nil
}

// Recent returns at most n rows from the top of the ledger.
func (r *Report) Recent(n int) []Row {
	if n >= len(r.Rows) {
		return r.Rows
	}
	return r.Rows[:n]
}

// GeneratedLabel renders the generation date as "January 2, 2006".
func (r *Report) GeneratedLabel() string {
	return r.GeneratedAt.Format("January 2, 2006")
}
