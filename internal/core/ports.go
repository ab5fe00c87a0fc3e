package core

import "context"

// Data-access contract consumed by the web UI, exporters and the CLI.
type (
	BrandRegistry interface {
		ListBrands(ctx context.Context) ([]Brand, error)
		ListBrandNames(ctx context.Context) ([]string, error)
		AddBrand(ctx context.Context, name string) error
		UpdateBrand(ctx context.Context, id int64, name string) error
		DeleteBrand(ctx context.Context, id int64) error
	}

	PurchaseLedger interface {
		AddPurchase(ctx context.Context, p NewPurchase) (int64, error)
		ListPurchases(ctx context.Context) ([]Purchase, error)
		GetPurchase(ctx context.Context, id int64) (Purchase, error)
		DeletePurchase(ctx context.Context, id int64) error
	}

	OpeningTracker interface {
		ListOpenings(ctx context.Context, purchaseID int64) ([]BoxOpening, error)
		// ListAllOpenings groups openings by purchase id, each list ordered by box number.
		ListAllOpenings(ctx context.Context) (map[int64][]BoxOpening, error)
		SetOpenedDate(ctx context.Context, openingID int64, d Date) error
	}

	StatisticsReader interface {
		ComputeStatistics(ctx context.Context) (Statistics, error)
	}

	// Store is the full data-access contract.
	Store interface {
		BrandRegistry
		PurchaseLedger
		OpeningTracker
		StatisticsReader
	}
)
