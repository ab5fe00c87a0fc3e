package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"diapertrack/internal/core"
	"diapertrack/internal/report"
)

var purchasesCmd = &cobra.Command{
	Use:     "purchases",
	Aliases: []string{"purchase"},
	Short:   "Record, list and delete purchases",
}

var purchasesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List purchases, newest first",
	Args:  cobra.NoArgs,
	RunE:  runPurchasesList,
}

var purchasesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a purchase",
	Long: `Add records a purchase and creates one sealed box per purchased box.
With --opened the first box is marked opened on that date.`,
	Example: `  diaperctl purchases add --brand "Pampers Swaddlers" --size "Size 2" --boxes 2 --per-box 84 --cost 49.98`,
	Args:    cobra.NoArgs,
	RunE:    runPurchasesAdd,
}

var purchasesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a purchase and its box openings",
	Args:  cobra.ExactArgs(1),
	RunE:  runPurchasesDelete,
}

var purchasesOpenCmd = &cobra.Command{
	Use:   "open <purchase-id> <box-number>",
	Short: "Set the date a box was opened",
	Args:  cobra.ExactArgs(2),
	RunE:  runPurchasesOpen,
}

var (
	addFlags  purchaseFlags
	listLimit int
	openDate  string
	openClear bool
)

func init() {
	purchasesCmd.AddCommand(purchasesListCmd)
	purchasesCmd.AddCommand(purchasesAddCmd)
	purchasesCmd.AddCommand(purchasesDeleteCmd)
	purchasesCmd.AddCommand(purchasesOpenCmd)

	purchasesListCmd.Flags().IntVar(&listLimit, "limit", 0, "show at most this many purchases (0 for all)")

	f := purchasesAddCmd.Flags()
	f.StringVar(&addFlags.Date, "date", "", "purchase date YYYY-MM-DD (default today)")
	f.StringVar(&addFlags.Brand, "brand", "", "brand name")
	f.StringVar(&addFlags.Size, "size", string(core.Size1), "diaper size, e.g. Newborn or \"Size 3\"")
	f.IntVar(&addFlags.Boxes, "boxes", 1, "number of boxes")
	f.IntVar(&addFlags.PerBox, "per-box", core.DiapersPerBoxPresets[0], "diapers per box")
	f.StringVar(&addFlags.Cost, "cost", "", "total cost, e.g. 24.99")
	f.StringVar(&addFlags.Opened, "opened", "", "date the first box was opened YYYY-MM-DD")
	_ = purchasesAddCmd.MarkFlagRequired("brand")
	_ = purchasesAddCmd.MarkFlagRequired("cost")

	purchasesOpenCmd.Flags().StringVar(&openDate, "date", "", "date opened YYYY-MM-DD (default today)")
	purchasesOpenCmd.Flags().BoolVar(&openClear, "clear", false, "clear the opened date")
}

// purchaseFlags holds the raw add flags until they are validated.
type purchaseFlags struct {
	Date   string
	Brand  string
	Size   string
	Boxes  int
	PerBox int
	Cost   string
	Opened string
}

func (f purchaseFlags) toPurchase(today core.Date) (core.NewPurchase, core.Date, error) {
	var np core.NewPurchase

	date := today
	if f.Date != "" {
		d, err := core.ParseDate(f.Date)
		if err != nil {
			return np, core.Date{}, err
		}
		date = d
	}
	size, err := core.ParseSize(f.Size)
	if err != nil {
		return np, core.Date{}, err
	}
	cents, err := core.ParseDecimalToCents(f.Cost)
	if err != nil {
		return np, core.Date{}, err
	}

	var opened core.Date
	if f.Opened != "" {
		if opened, err = core.ParseDate(f.Opened); err != nil {
			return np, core.Date{}, err
		}
	}

	np = core.NewPurchase{
		Date:          date,
		NumBoxes:      f.Boxes,
		DiapersPerBox: f.PerBox,
		Brand:         f.Brand,
		Size:          size,
		Cost:          core.Money{Cents: cents},
	}
	np.Normalize()
	if err := np.Validate(); err != nil {
		return np, core.Date{}, err
	}
	return np, opened, nil
}

type purchaseJSON struct {
	ID            int64         `json:"id"`
	Date          string        `json:"date"`
	Brand         string        `json:"brand"`
	Size          string        `json:"size,omitempty"`
	NumBoxes      int           `json:"num_boxes"`
	DiapersPerBox int           `json:"diapers_per_box"`
	TotalDiapers  int           `json:"total_diapers"`
	Cost          string        `json:"cost"`
	CostPerDiaper string        `json:"cost_per_diaper"`
	Boxes         []openingJSON `json:"boxes"`
}

type openingJSON struct {
	ID         int64  `json:"id"`
	BoxNumber  int    `json:"box_number"`
	DateOpened string `json:"date_opened,omitempty"`
}

func toPurchaseJSON(r report.Row) purchaseJSON {
	p := r.Purchase
	out := purchaseJSON{
		ID:            p.ID,
		Date:          p.Date.String(),
		Brand:         p.Brand,
		Size:          p.Size.String(),
		NumBoxes:      p.NumBoxes,
		DiapersPerBox: p.DiapersPerBox,
		TotalDiapers:  r.TotalDiapers(),
		Cost:          p.Cost.Decimal().StringFixed(2),
		CostPerDiaper: r.CostPerDiaper().StringFixed(4),
		Boxes:         make([]openingJSON, 0, len(r.Openings)),
	}
	for _, o := range r.Openings {
		oj := openingJSON{ID: o.ID, BoxNumber: o.BoxNumber}
		if o.IsOpened() {
			oj.DateOpened = o.DateOpened.String()
		}
		out.Boxes = append(out.Boxes, oj)
	}
	return out
}

func runPurchasesList(cmd *cobra.Command, args []string) error {
	rep, err := report.Load(cmd.Context(), be.Store, time.Now())
	if err != nil {
		return err
	}
	rows := rep.Rows
	if listLimit > 0 {
		rows = rep.Recent(listLimit)
	}

	if jsonOutput {
		out := make([]purchaseJSON, 0, len(rows))
		for _, r := range rows {
			out = append(out, toPurchaseJSON(r))
		}
		return printJSON(out)
	}

	if len(rows) == 0 {
		fmt.Println("No purchases recorded.")
		return nil
	}
	w := newTable()
	fmt.Fprintln(w, "ID\tDATE\tBRAND\tSIZE\tBOXES\tDIAPERS\tCOST\tPER DIAPER\tOPENED")
	for _, r := range rows {
		p := r.Purchase
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d x %d\t%s\t%s\t%s\t%s\n",
			p.ID, p.Date, p.Brand, sizeOrDash(p.Size),
			p.NumBoxes, p.DiapersPerBox,
			core.FormatCount(int64(r.TotalDiapers())),
			p.Cost, core.FormatPerUnit(r.CostPerDiaper()),
			r.OpenedLabel())
	}
	return w.Flush()
}

func runPurchasesAdd(cmd *cobra.Command, args []string) error {
	np, opened, err := addFlags.toPurchase(core.Today())
	if err != nil {
		return err
	}
	id, err := be.Purchases.Record(cmd.Context(), np, opened)
	if err != nil {
		if id == 0 {
			return err
		}
		return fmt.Errorf("purchase %d saved but the opened date was not: %w", id, err)
	}

	if jsonOutput {
		return printJSON(map[string]int64{"id": id})
	}
	fmt.Printf("Purchase %d added: %d x %d %s %s for %s\n",
		id, np.NumBoxes, np.DiapersPerBox, np.Brand, np.Size, np.Cost)
	return nil
}

func runPurchasesDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := be.Purchases.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("Purchase %d deleted\n", id)
	return nil
}

func runPurchasesOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	purchaseID, err := parseID(args[0])
	if err != nil {
		return err
	}
	boxNumber, err := parseID(args[1])
	if err != nil {
		return fmt.Errorf("invalid box number %q", args[1])
	}

	d := core.Today()
	switch {
	case openClear:
		d = core.Date{}
	case openDate != "":
		if d, err = core.ParseDate(openDate); err != nil {
			return err
		}
	}

	openings, err := be.Store.ListOpenings(ctx, purchaseID)
	if err != nil {
		return err
	}
	var target *core.BoxOpening
	for i := range openings {
		if int64(openings[i].BoxNumber) == boxNumber {
			target = &openings[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("box %d of purchase %d: %w", boxNumber, purchaseID, core.ErrNotFound)
	}

	if err := be.Purchases.OpenBox(ctx, purchaseID, target.ID, d); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("purchase %d has no box %d", purchaseID, boxNumber)
		}
		return err
	}
	fmt.Printf("Box %d of purchase %d opened: %s\n", boxNumber, purchaseID, dateOrDash(d))
	return nil
}
