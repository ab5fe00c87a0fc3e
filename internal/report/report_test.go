package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diapertrack/internal/core"
)

type stubSource struct {
	core.PurchaseLedger
	core.OpeningTracker
	stats     core.Statistics
	purchases []core.Purchase
	openings  map[int64][]core.BoxOpening
	err       error
}

func (s *stubSource) ComputeStatistics(context.Context) (core.Statistics, error) {
	return s.stats, nil
}

func (s *stubSource) ListPurchases(context.Context) ([]core.Purchase, error) {
	return s.purchases, s.err
}

func (s *stubSource) ListAllOpenings(context.Context) (map[int64][]core.BoxOpening, error) {
	return s.openings, nil
}

func TestLoad(t *testing.T) {
	src := &stubSource{
		stats: core.NewStatistics(2, 3, 224, core.Money{Cents: 3500}),
		purchases: []core.Purchase{
			{ID: 2, Date: core.NewDate(2024, 2, 15), NumBoxes: 1, DiapersPerBox: 40, Brand: "Luvs", Cost: core.Money{Cents: 1001}},
			{ID: 1, Date: core.NewDate(2024, 1, 15), NumBoxes: 2, DiapersPerBox: 92, Brand: "Pampers", Cost: core.Money{Cents: 2499}},
		},
		openings: map[int64][]core.BoxOpening{
			1: {
				{ID: 10, PurchaseID: 1, BoxNumber: 1, DateOpened: core.NewDate(2024, 1, 20)},
				{ID: 11, PurchaseID: 1, BoxNumber: 2},
			},
		},
	}
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	rep, err := Load(context.Background(), src, now)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 2)

	assert.Equal(t, "March 5, 2024", rep.GeneratedLabel())
	assert.Equal(t, int64(224), rep.Stats.TotalDiapers)

	luvs, pampers := rep.Rows[0], rep.Rows[1]
	assert.Equal(t, "0/1", luvs.OpenedLabel())
	assert.Empty(t, luvs.Openings)
	assert.Equal(t, "1/2", pampers.OpenedLabel())
	assert.Equal(t, 184, pampers.TotalDiapers())
	assert.Equal(t, "$0.1358", core.FormatPerUnit(pampers.CostPerDiaper()))

	sealed, ok := pampers.FirstSealed()
	require.True(t, ok)
	assert.Equal(t, int64(11), sealed.ID)

	assert.Len(t, rep.Recent(1), 1)
	assert.Len(t, rep.Recent(5), 2)
}

func TestLoad_PropagatesErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := Load(context.Background(), &stubSource{err: boom}, time.Now())
	assert.ErrorIs(t, err, boom)
}
