package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/datamine-exporter/internal/config"
	"github.com/jonathan/datamine-exporter/internal/export"
	"github.com/jonathan/datamine-exporter/internal/pipeline"
)

var uniqueIDsCmd = &cobra.Command{
	Use:   "unique-ids",
	Short: "Write the unique entry id of every record, grouped by sheet",
	RunE:  runUniqueIDs,
}

var (
	uniqueIDsOut    string
	uniqueIDsPrefix string
	uniqueIDsSuffix string
)

func init() {
	uniqueIDsCmd.Flags().StringVarP(&uniqueIDsOut, "out", "o", "export/unique_entry_ids.txt", "Output file")
	uniqueIDsCmd.Flags().StringVar(&uniqueIDsPrefix, "id-prefix", "", "Text written before every id")
	uniqueIDsCmd.Flags().StringVar(&uniqueIDsSuffix, "id-suffix", "", "Text written after every id")

	rootCmd.AddCommand(uniqueIDsCmd)
}

func runUniqueIDs(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	cfg, err := resolveConfig(cmd, func(cfg *config.Config) {
		if flags.Changed("id-prefix") {
			cfg.IDPrefix = uniqueIDsPrefix
		}
		if flags.Changed("id-suffix") {
			cfg.IDSuffix = uniqueIDsSuffix
		}
	})
	if err != nil {
		return err
	}

	ds, err := pipeline.LoadDataset(cmd.Context(), runOptions(cmd, cfg))
	if err != nil {
		return err
	}
	format := export.IDFormat{Prefix: cfg.IDPrefix, Suffix: cfg.IDSuffix}
	if err := export.WriteUniqueEntryIDs(uniqueIDsOut, ds, format); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", uniqueIDsOut)
	return nil
}
