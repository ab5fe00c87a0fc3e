package services

import (
	"context"
	"fmt"
	"log/slog"

	"diapertrack/internal/core"
	"diapertrack/internal/metrics"
)

// BrandCache is notified when a purchase may have added a brand.
type BrandCache interface {
	Invalidate()
}

// PurchaseService orchestrates purchase writes across the store, the brand cache and metrics.
type PurchaseService struct {
	store   core.Store
	brands  BrandCache
	metrics *metrics.Metrics
}

func NewPurchaseService(store core.Store, brands BrandCache, m *metrics.Metrics) *PurchaseService {
	return &PurchaseService{
		store:   store,
		brands:  brands,
		metrics: m,
	}
}

// Record saves a purchase with its box openings. A non-zero opened date is
// applied to box 1 right after the purchase is created.
func (s *PurchaseService) Record(ctx context.Context, np core.NewPurchase, opened core.Date) (int64, error) {
	id, err := s.store.AddPurchase(ctx, np)
	if err != nil {
		return 0, fmt.Errorf("record purchase: %w", err)
	}

	s.metrics.PurchaseRecorded()
	if s.brands != nil {
		s.brands.Invalidate()
	}

	if opened.IsEmpty() {
		return id, nil
	}

	openings, err := s.store.ListOpenings(ctx, id)
	if err != nil {
		return id, fmt.Errorf("list openings for purchase %d: %w", id, err)
	}
	for _, o := range openings {
		if o.BoxNumber != 1 {
			continue
		}
		if err := s.store.SetOpenedDate(ctx, o.ID, opened); err != nil {
			return id, fmt.Errorf("open first box: %w", err)
		}
		s.metrics.BoxOpened()
		slog.InfoContext(ctx, "First box opened on purchase",
			"purchase_id", id,
			"date_opened", opened.String())
		break
	}
	return id, nil
}

// OpenBox sets or clears the opened date of one box of a purchase.
// Openings that belong to another purchase are reported as core.ErrNotFound.
func (s *PurchaseService) OpenBox(ctx context.Context, purchaseID, openingID int64, d core.Date) error {
	openings, err := s.store.ListOpenings(ctx, purchaseID)
	if err != nil {
		return fmt.Errorf("list openings for purchase %d: %w", purchaseID, err)
	}

	found := false
	for _, o := range openings {
		if o.ID == openingID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("opening %d of purchase %d: %w", openingID, purchaseID, core.ErrNotFound)
	}

	if err := s.store.SetOpenedDate(ctx, openingID, d); err != nil {
		return fmt.Errorf("set opened date: %w", err)
	}
	if !d.IsEmpty() {
		s.metrics.BoxOpened()
	}
	return nil
}

func (s *PurchaseService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeletePurchase(ctx, id); err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	s.metrics.PurchaseDeleted()
	return nil
}
