package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"diapertrack/internal/backend"
	"diapertrack/internal/export"
	"diapertrack/internal/worker"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an Excel, PDF or Google Sheets report",
	Long: `Export renders the current ledger. xlsx and pdf files are written to --out
(default $EXPORT_DIR); gsheet publishes to the configured spreadsheet.
With --queue the job is handed to the export worker over AMQP instead.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var (
	exportFormat string
	exportOut    string
	exportQueue  bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(export.FormatXLSX), "xlsx, pdf or gsheet")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output directory (default $EXPORT_DIR)")
	exportCmd.Flags().BoolVar(&exportQueue, "queue", false, "enqueue the export for the worker instead of rendering here")
}

// needsBroker reports whether cmd publishes to AMQP.
func needsBroker(cmd *cobra.Command) bool {
	return cmd == exportCmd && exportQueue
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	if exportQueue {
		req, err := be.Exports.Enqueue(ctx, string(format), uuid.NewString())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]string{"job_id": req.JobID, "format": req.Format})
		}
		fmt.Printf("Export %s queued as job %s\n", req.Format, req.JobID)
		return nil
	}

	publisher, err := backend.NewPublisher(ctx, cfg)
	if err != nil {
		return fmt.Errorf("google sheets: %w", err)
	}
	dir := cfg.ExportDir
	if exportOut != "" {
		dir = exportOut
	}

	ref, err := worker.NewExportWorker(be.Store, publisher, dir, nil).Render(ctx, format)
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}

	if jsonOutput {
		return printJSON(map[string]string{"format": string(format), "ref": ref})
	}
	fmt.Println(ref)
	return nil
}
