package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/datamine-exporter/internal/pipeline"
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List the sheet titles of the spreadsheet",
	RunE:  runSheets,
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
}

func runSheets(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}

	doc, err := pipeline.LoadSpreadsheet(cmd.Context(), runOptions(cmd, cfg))
	if err != nil {
		return err
	}
	for _, sheet := range doc.Sheets() {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), sheet.Title())
	}
	return nil
}
