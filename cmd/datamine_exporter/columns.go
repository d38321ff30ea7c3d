package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/datamine-exporter/internal/observability"
	"github.com/jonathan/datamine-exporter/internal/pipeline"
	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Print the normalized column titles of a sheet",
	RunE:  runColumns,
}

var columnsSheet string

func init() {
	columnsCmd.Flags().StringVar(&columnsSheet, "sheet", "Recipes", "Sheet title")

	rootCmd.AddCommand(columnsCmd)
}

func runColumns(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}

	doc, err := pipeline.LoadSpreadsheet(cmd.Context(), runOptions(cmd, cfg))
	if err != nil {
		return err
	}
	sheet, ok := doc.FindSheet(columnsSheet)
	if !ok {
		return fmt.Errorf("sheet %q: %w", columnsSheet, spreadsheet.ErrSheetNotFound)
	}
	titles, err := sheet.ColumnTitles()
	if err != nil {
		return err
	}

	columns := make([]string, len(titles))
	for i, title := range titles {
		columns[i] = spreadsheet.NormalizeColumnName(title)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintColumns(sheet.Title(), columns)
	return nil
}
