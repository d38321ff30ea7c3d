package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testSpreadsheetID = "sheet-123"

const fixtureJSON = `{
  "sheets": [
    {
      "properties": {"title": "Recipes"},
      "data": [{"rowData": [
        {"values": [
          {"effectiveValue": {"stringValue": "Name"}},
          {"effectiveValue": {"stringValue": "Category"}},
          {"effectiveValue": {"stringValue": "Unique Entry ID"}}
        ]},
        {"values": [
          {"effectiveValue": {"stringValue": "Fish Pie"}},
          {"effectiveValue": {"stringValue": "Food"}},
          {"effectiveValue": {"stringValue": "r-1"}}
        ]}
      ]}]
    },
    {
      "properties": {"title": "Food"},
      "data": [{"rowData": [
        {"values": [
          {"effectiveValue": {"stringValue": "Name"}},
          {"effectiveValue": {"stringValue": "Filename"}}
        ]},
        {"values": [
          {"effectiveValue": {"stringValue": "Fish Pie"}},
          {"effectiveValue": {"stringValue": "fishpie"}}
        ]}
      ]}]
    }
  ]
}`

// writeCache stores the fixture where the CLI looks for a cached spreadsheet and
// returns the cache directory.
func writeCache(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, testSpreadsheetID), []byte(fixtureJSON), 0644))
	return dir
}

// resetFlags restores every flag to its default, since commands and flag variables
// are package globals shared between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command in-process and returns its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	// Keep the tests independent of the developer's environment.
	t.Setenv("DATAMINE_SPREADSHEET_ID", "")
	t.Setenv("DATABASE_URL", "")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}
