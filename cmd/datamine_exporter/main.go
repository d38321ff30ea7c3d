// Package main provides the datamine_exporter CLI, which exports a Google spreadsheet
// to per-sheet JSON files.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "datamine_exporter",
	Short: "Export a Google spreadsheet to JSON records",
	Long: `datamine_exporter downloads a spreadsheet with its grid data, turns every sheet into
records keyed by normalized column titles, enriches records across sheets and writes the
result as JSON, with optional workbook, image and database outputs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	rootConfigPath    string
	rootSpreadsheetID string
	rootAPIKey        string
	rootCacheDir      string
	rootRefresh       bool
	rootVerbose       bool
)

func init() {
	// Config file flag (processed first)
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	rootCmd.PersistentFlags().StringVarP(&rootSpreadsheetID, "spreadsheet-id", "s", "", "Spreadsheet ID (defaults to DATAMINE_SPREADSHEET_ID env var)")
	rootCmd.PersistentFlags().StringVar(&rootAPIKey, "api-key", "", "Google API key (defaults to DATAMINE_API_KEY or GOOGLE_API_KEY env var)")
	rootCmd.PersistentFlags().StringVar(&rootCacheDir, "cache-dir", "", "Directory for the downloaded spreadsheet (default \"cache\")")
	rootCmd.PersistentFlags().BoolVar(&rootRefresh, "refresh", false, "Download the spreadsheet even when it is cached")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
