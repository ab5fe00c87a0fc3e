// Command diaperctl manages the diaper purchase ledger from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"diapertrack/internal/backend"
	"diapertrack/internal/cli"
	"diapertrack/internal/config"
	applog "diapertrack/internal/log"
)

var (
	// dbPath overrides SQLITE_DB_PATH when set by --db.
	dbPath string

	// jsonOutput switches listings to JSON.
	jsonOutput bool

	// verbose logs at LOG_LEVEL instead of warnings only.
	verbose bool

	cfg *config.Config
	be  *backend.Backend
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "diaperctl",
	Short: "diaperctl manages the diaper purchase ledger",
	Long: `diaperctl reads and edits the same SQLite ledger the web UI uses:
purchases, box openings, saved brands, statistics and exports.`,
	SilenceUsage:      true,
	PersistentPreRunE: initBackend,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeBackend()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: $SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at LOG_LEVEL instead of warnings only")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(brandsCmd)
	rootCmd.AddCommand(purchasesCmd)
	rootCmd.AddCommand(exportCmd)
}

// initBackend loads configuration, opens and migrates the ledger.
func initBackend(cmd *cobra.Command, args []string) error {
	cli.LoadEnvFile()

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.SQLiteDBPath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := applog.ParseLevel("warn")
	if verbose {
		level = applog.ParseLevel(cfg.LogLevel)
	}
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: applog.ComponentCLI,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	queue := needsBroker(cmd)
	be, err = backend.New(ctx, cfg, logger, backend.Options{AMQP: queue, RequireAMQP: queue})
	if err != nil {
		return err
	}
	return nil
}

func closeBackend() error {
	if be != nil {
		return be.Close()
	}
	return nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Long: `Migrate applies the versioned base schema and the additive upgrades
(size column, box-opening backfill). Running it again is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Migration already ran in initBackend.
		fmt.Printf("Database ready: %s\n", be.Store.Path())
		return nil
	},
}
