// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
)

// Default values
const (
	DefaultCacheDir         = "cache"
	DefaultExportDir        = "export"
	DefaultImagesDir        = "export/images"
	DefaultImageConcurrency = 10
)

// Environment variables consulted when a value is not configured.
const (
	EnvAPIKey        = "DATAMINE_API_KEY"
	EnvGoogleAPIKey  = "GOOGLE_API_KEY"
	EnvSpreadsheetID = "DATAMINE_SPREADSHEET_ID"
	EnvDatabaseURL   = "DATABASE_URL"
)

// EnrichmentConfig configures the cross-sheet join. Empty fields use defaults.
type EnrichmentConfig struct {
	TargetSheet     string `json:"target_sheet,omitempty"`      // Sheet whose records get the new field
	SourceField     string `json:"source_field,omitempty"`      // Field matched against the join field
	ForeignKeyField string `json:"foreign_key_field,omitempty"` // Field naming the sheet to look in
	JoinField       string `json:"join_field,omitempty"`        // Field of the looked-up sheet to match
	ValueField      string `json:"value_field,omitempty"`       // Field collected from matching records
	OutputField     string `json:"output_field,omitempty"`      // New field on the target records
	Strict          bool   `json:"strict,omitempty"`            // Fail on references to missing sheets
	Disabled        bool   `json:"disabled,omitempty"`          // Skip enrichment entirely
}

// Spec converts the configuration to an enrichment spec.
func (e EnrichmentConfig) Spec() spreadsheet.EnrichSpec {
	return spreadsheet.EnrichSpec{
		TargetSheet:     e.TargetSheet,
		SourceField:     e.SourceField,
		ForeignKeyField: e.ForeignKeyField,
		JoinField:       e.JoinField,
		ValueField:      e.ValueField,
		OutputField:     e.OutputField,
	}
}

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Source
	APIKey         string `json:"api_key,omitempty"`                                             // Google API key
	SpreadsheetID  string `json:"spreadsheet_id,omitempty" validate:"omitempty,excludesall=/\\"` // Spreadsheet to export
	SheetsEndpoint string `json:"sheets_endpoint,omitempty" validate:"omitempty,url"`            // Sheets API base URL override
	CacheDir       string `json:"cache_dir,omitempty"`                                           // Directory of cached downloads
	Refresh        bool   `json:"refresh,omitempty"`                                             // Ignore the cached download

	// Output
	ExportDir     string `json:"export_dir,omitempty"`                                   // Per-sheet JSON files
	Workbook      string `json:"workbook,omitempty" validate:"omitempty,endswith=.xlsx"` // Optional xlsx workbook path
	UniqueIDsFile string `json:"unique_ids_file,omitempty"`                              // Optional unique entry id listing
	IDPrefix      string `json:"id_prefix,omitempty"`                                    // Prefix for listed ids
	IDSuffix      string `json:"id_suffix,omitempty"`                                    // Suffix for listed ids
	DatabaseURL   string `json:"database_url,omitempty"`                                 // PostgreSQL connection URL

	// Images
	DownloadImages   bool   `json:"download_images,omitempty"`                            // Fetch images referenced by records
	ImagesDir        string `json:"images_dir,omitempty"`                                 // Root directory for images
	ImageConcurrency int    `json:"image_concurrency,omitempty" validate:"gte=0,lte=100"` // Downloads in flight

	Enrichment EnrichmentConfig `json:"enrichment,omitempty"`

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		CacheDir:         DefaultCacheDir,
		ExportDir:        DefaultExportDir,
		ImagesDir:        DefaultImagesDir,
		ImageConcurrency: DefaultImageConcurrency,
		Enrichment: EnrichmentConfig{
			TargetSheet:     "Recipes",
			SourceField:     "name",
			ForeignKeyField: "category",
			JoinField:       "name",
			ValueField:      "filename",
			OutputField:     "filenames",
		},
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.UniqueIDsFile != "" && c.UniqueIDsFile == c.Workbook {
		return fmt.Errorf("config error: 'unique_ids_file' and 'workbook' must differ")
	}

	e := c.Enrichment
	if !e.Disabled && e.OutputField != "" && e.OutputField == e.SourceField {
		return fmt.Errorf("config error: enrichment 'output_field' would overwrite 'source_field'")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.SpreadsheetID, defaults.SpreadsheetID)
	fill(&result.SheetsEndpoint, defaults.SheetsEndpoint)
	fill(&result.CacheDir, defaults.CacheDir)
	fill(&result.ExportDir, defaults.ExportDir)
	fill(&result.Workbook, defaults.Workbook)
	fill(&result.UniqueIDsFile, defaults.UniqueIDsFile)
	fill(&result.IDPrefix, defaults.IDPrefix)
	fill(&result.IDSuffix, defaults.IDSuffix)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.ImagesDir, defaults.ImagesDir)

	fill(&result.Enrichment.TargetSheet, defaults.Enrichment.TargetSheet)
	fill(&result.Enrichment.SourceField, defaults.Enrichment.SourceField)
	fill(&result.Enrichment.ForeignKeyField, defaults.Enrichment.ForeignKeyField)
	fill(&result.Enrichment.JoinField, defaults.Enrichment.JoinField)
	// A configured output field without a value field collects the output field itself.
	if result.Enrichment.OutputField == "" {
		fill(&result.Enrichment.ValueField, defaults.Enrichment.ValueField)
	}
	fill(&result.Enrichment.OutputField, defaults.Enrichment.OutputField)

	// Int fields: use default if zero
	if result.ImageConcurrency == 0 {
		result.ImageConcurrency = defaults.ImageConcurrency
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv fills the API key, spreadsheet id and database URL from the
// environment when they are still empty.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if c.APIKey == "" {
		c.APIKey = getenv(EnvAPIKey)
	}
	if c.APIKey == "" {
		c.APIKey = getenv(EnvGoogleAPIKey)
	}
	if c.SpreadsheetID == "" {
		c.SpreadsheetID = getenv(EnvSpreadsheetID)
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv(EnvDatabaseURL)
	}
}
