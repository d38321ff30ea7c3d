package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"spreadsheet_id": "1AbCdEf",
		"export_dir": "out",
		"download_images": true,
		"image_concurrency": 4,
		"enrichment": {"target_sheet": "Crafts", "strict": true},
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "1AbCdEf", cfg.SpreadsheetID)
	assert.Equal(t, "out", cfg.ExportDir)
	assert.True(t, cfg.DownloadImages)
	assert.Equal(t, 4, cfg.ImageConcurrency)
	assert.Equal(t, "Crafts", cfg.Enrichment.TargetSheet)
	assert.True(t, cfg.Enrichment.Strict)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", DefaultConfig(), ""},
		{"negative concurrency", Config{ImageConcurrency: -1}, "ImageConcurrency"},
		{"too much concurrency", Config{ImageConcurrency: 500}, "ImageConcurrency"},
		{"workbook extension", Config{Workbook: "out.csv"}, "Workbook"},
		{"spreadsheet id with slash", Config{SpreadsheetID: "a/b"}, "SpreadsheetID"},
		{"bad endpoint", Config{SheetsEndpoint: "not a url"}, "SheetsEndpoint"},
		{"same output files", Config{Workbook: "x.xlsx", UniqueIDsFile: "x.xlsx"}, "must differ"},
		{
			"output overwrites source",
			Config{Enrichment: EnrichmentConfig{SourceField: "name", OutputField: "name"}},
			"overwrite",
		},
		{
			"disabled enrichment is not checked",
			Config{Enrichment: EnrichmentConfig{SourceField: "name", OutputField: "name", Disabled: true}},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{
		ExportDir:  "custom",
		Enrichment: EnrichmentConfig{OutputField: "images"},
	}

	merged := cfg.MergeWithDefaults(DefaultConfig())

	assert.Equal(t, "custom", merged.ExportDir)
	assert.Equal(t, DefaultCacheDir, merged.CacheDir)
	assert.Equal(t, DefaultImagesDir, merged.ImagesDir)
	assert.Equal(t, DefaultImageConcurrency, merged.ImageConcurrency)
	assert.Equal(t, "Recipes", merged.Enrichment.TargetSheet)
	assert.Equal(t, "images", merged.Enrichment.OutputField)
	assert.Empty(t, merged.Enrichment.ValueField, "value field falls back to the output field")
	assert.Equal(t, "images", merged.Enrichment.Spec().OutputField)

	// Original is untouched
	assert.Empty(t, cfg.CacheDir)
}

func TestMergeWithDefaults_EnrichmentValueField(t *testing.T) {
	tests := []struct {
		name       string
		enrichment EnrichmentConfig
		wantValue  string
		wantOutput string
	}{
		{"nothing set", EnrichmentConfig{}, "filename", "filenames"},
		{"only output set", EnrichmentConfig{OutputField: "image"}, "", "image"},
		{"both set", EnrichmentConfig{OutputField: "images", ValueField: "image"}, "image", "images"},
		{"only value set", EnrichmentConfig{ValueField: "image"}, "image", "filenames"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Enrichment: tt.enrichment}
			merged := cfg.MergeWithDefaults(DefaultConfig())
			assert.Equal(t, tt.wantValue, merged.Enrichment.ValueField)
			assert.Equal(t, tt.wantOutput, merged.Enrichment.OutputField)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvGoogleAPIKey:  "google-key",
		EnvSpreadsheetID: "env-sheet",
		EnvDatabaseURL:   "postgres://localhost/db",
	}
	getenv := func(k string) string { return env[k] }

	cfg := Config{SpreadsheetID: "configured"}
	cfg.ApplyEnv(getenv)

	assert.Equal(t, "google-key", cfg.APIKey)
	assert.Equal(t, "configured", cfg.SpreadsheetID)
	assert.Equal(t, "postgres://localhost/db", cfg.DatabaseURL)

	env[EnvAPIKey] = "datamine-key"
	cfg = Config{}
	cfg.ApplyEnv(getenv)
	assert.Equal(t, "datamine-key", cfg.APIKey)
}

func TestEnrichmentConfig_Spec(t *testing.T) {
	spec := DefaultConfig().Enrichment.Spec()

	assert.Equal(t, "Recipes", spec.TargetSheet)
	assert.Equal(t, "category", spec.ForeignKeyField)
	assert.Equal(t, "filenames", spec.OutputField)
}
