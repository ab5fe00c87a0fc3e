package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"diapertrack/internal/core"
	"diapertrack/internal/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print ledger totals",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register the default brand list",
	Long:  `Seed adds the common diaper brands to the brand list, skipping names already saved.`,
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

type statsJSON struct {
	TotalPurchases   int64  `json:"total_purchases"`
	TotalBoxes       int64  `json:"total_boxes"`
	TotalDiapers     int64  `json:"total_diapers"`
	TotalCost        string `json:"total_cost"`
	AvgCostPerDiaper string `json:"avg_cost_per_diaper"`
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := be.Store.ComputeStatistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("compute statistics: %w", err)
	}

	if jsonOutput {
		return printJSON(statsJSON{
			TotalPurchases:   stats.TotalPurchases,
			TotalBoxes:       stats.TotalBoxes,
			TotalDiapers:     stats.TotalDiapers,
			TotalCost:        stats.TotalCost.Decimal().StringFixed(2),
			AvgCostPerDiaper: stats.AvgCostPerDiaper.StringFixed(3),
		})
	}

	w := newTable()
	fmt.Fprintf(w, "Purchases:\t%s\n", core.FormatCount(stats.TotalPurchases))
	fmt.Fprintf(w, "Boxes:\t%s\n", core.FormatCount(stats.TotalBoxes))
	fmt.Fprintf(w, "Diapers:\t%s\n", core.FormatCount(stats.TotalDiapers))
	fmt.Fprintf(w, "Total spent:\t%s\n", stats.TotalCost)
	fmt.Fprintf(w, "Avg per diaper:\t%s\n", core.FormatPerUnit(stats.AvgCostPerDiaper))
	return w.Flush()
}

func runSeed(cmd *cobra.Command, args []string) error {
	added, err := be.Store.Seed(cmd.Context(), storage.DefaultBrands)
	if err != nil {
		return fmt.Errorf("seed brands: %w", err)
	}
	be.Brands.Invalidate()
	fmt.Printf("Added %d of %d default brands\n", added, len(storage.DefaultBrands))
	return nil
}
