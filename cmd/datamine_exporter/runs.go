package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/datamine-exporter/internal/config"
	"github.com/jonathan/datamine-exporter/internal/db"
	"github.com/jonathan/datamine-exporter/internal/observability"
	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show export runs stored in the database",
	Long: `Lists the export runs of a spreadsheet that were stored with --db-url.

With --run, prints the sheets stored by that run; adding --sheet prints the sheet's
records as JSON.`,
	RunE: runRuns,
}

var (
	runsDatabaseURL string
	runsID          string
	runsSheet       string
	runsLimit       int
)

func init() {
	runsCmd.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	runsCmd.Flags().StringVar(&runsID, "run", "", "Run ID to inspect")
	runsCmd.Flags().StringVar(&runsSheet, "sheet", "", "Sheet title to print (requires --run)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	cfg, err := loadConfig(cmd, func(cfg *config.Config) {
		if flags.Changed("db-url") {
			cfg.DatabaseURL = runsDatabaseURL
		}
	})
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("--db-url must be provided (via flag, config or %s)", config.EnvDatabaseURL)
	}
	if runsSheet != "" && runsID == "" {
		return fmt.Errorf("--sheet requires --run")
	}

	var runID uuid.UUID
	if runsID != "" {
		runID, err = uuid.Parse(runsID)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", runsID, err)
		}
	} else if cfg.SpreadsheetID == "" {
		return fmt.Errorf("--spreadsheet-id or --run must be provided")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)

	if runsID == "" {
		runs, err := database.ListRuns(ctx, cfg.SpreadsheetID, runsLimit)
		if err != nil {
			return err
		}
		printer.PrintRuns(cfg.SpreadsheetID, runs)
		return nil
	}

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	if runsSheet == "" {
		sheets, err := database.ListSheets(ctx, runID)
		if err != nil {
			return err
		}
		printer.PrintRun(run, sheets)
		return nil
	}

	records, err := database.GetSheetRecords(ctx, runID, runsSheet)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*spreadsheet.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	_, _ = fmt.Fprintln(out, string(data))
	return nil
}
