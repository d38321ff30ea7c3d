package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/datamine-exporter/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an exported file against its JSON Schema",
	Long: `Validates an exported sheet file (or, with --manifest, an export manifest) against the
embedded JSON Schema. --schema validates against a schema file instead.`,
	RunE:  runValidate,
}

var (
	validateFile     string
	validateManifest bool
	validateSchema   string
)

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Path to the exported JSON file (required)")
	validateCmd.Flags().BoolVar(&validateManifest, "manifest", false, "Validate as an export manifest")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Path to a JSON Schema file to validate against")

	if err := validateCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	validate := schemas.ValidateSheetFile
	switch {
	case validateSchema != "":
		validate = func(path string) error { return schemas.ValidateJSON(validateSchema, path) }
	case validateManifest:
		validate = schemas.ValidateManifestFile
	}

	err := validate(validateFile)
	if err == nil {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
		return nil
	}

	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), validationErr.Error())
		return fmt.Errorf("validation failed for %s", validateFile)
	}
	return err
}
