package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/datamine-exporter/internal/config"
	"github.com/jonathan/datamine-exporter/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every sheet to JSON",
	Long: `Loads the spreadsheet (from the cache when present), builds records for every sheet,
enriches the target sheet and writes <export-dir>/<sheet>.json plus manifest.json.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runExport,
}

var (
	exportDir         string
	exportImages      bool
	exportImagesDir   string
	exportConcurrency int
	exportWorkbook    string
	exportUniqueIDs   string
	exportDatabaseURL string
	exportNoEnrich    bool
	exportStrict      bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "", "Export directory (default \"export\")")
	exportCmd.Flags().BoolVar(&exportImages, "images", false, "Download images referenced by records")
	exportCmd.Flags().StringVar(&exportImagesDir, "images-dir", "", "Image directory (default \"export/images\")")
	exportCmd.Flags().IntVar(&exportConcurrency, "concurrency", 0, "Image downloads in flight (default 10)")
	exportCmd.Flags().StringVar(&exportWorkbook, "workbook", "", "Also write an xlsx workbook to this path")
	exportCmd.Flags().StringVar(&exportUniqueIDs, "unique-ids", "", "Also write the unique entry id listing to this path")
	exportCmd.Flags().BoolVar(&exportNoEnrich, "no-enrich", false, "Skip cross-sheet enrichment")
	exportCmd.Flags().BoolVar(&exportStrict, "strict", false, "Fail when a record references a missing sheet")

	// Database URL for record persistence
	exportCmd.Flags().StringVar(&exportDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	cfg, err := resolveConfig(cmd, func(cfg *config.Config) {
		if flags.Changed("out") {
			cfg.ExportDir = exportDir
		}
		if flags.Changed("images") {
			cfg.DownloadImages = exportImages
		}
		if flags.Changed("images-dir") {
			cfg.ImagesDir = exportImagesDir
		}
		if flags.Changed("concurrency") {
			cfg.ImageConcurrency = exportConcurrency
		}
		if flags.Changed("workbook") {
			cfg.Workbook = exportWorkbook
		}
		if flags.Changed("unique-ids") {
			cfg.UniqueIDsFile = exportUniqueIDs
		}
		if flags.Changed("db-url") {
			cfg.DatabaseURL = exportDatabaseURL
		}
		if flags.Changed("no-enrich") {
			cfg.Enrichment.Disabled = exportNoEnrich
		}
		if flags.Changed("strict") {
			cfg.Enrichment.Strict = exportStrict
		}
	})
	if err != nil {
		return err
	}

	opts := runOptions(cmd, cfg)
	result, err := pipeline.Run(cmd.Context(), opts)
	if result != nil && result.Manifest != "" {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Exported %d sheets to %s\n", len(result.Files), cfg.ExportDir)
		if cfg.DownloadImages {
			_, _ = fmt.Fprintf(out, "Images: %d downloaded, %d skipped, %d failed\n",
				result.Images.Downloaded, result.Images.Skipped, result.Images.Failed)
		}
		_, _ = fmt.Fprintf(out, "Manifest: %s\n", result.Manifest)
	}
	return err
}
