package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ManifestFile is the name of the manifest written into the export directory.
const ManifestFile = "manifest.json"

// ImageCounts summarizes image downloads across all sheets.
type ImageCounts struct {
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Manifest summarizes one export run.
type Manifest struct {
	RunID         uuid.UUID    `json:"run_id"`
	SpreadsheetID string       `json:"spreadsheet_id"`
	CreatedAt     time.Time    `json:"created_at"`
	Sheets        []SheetFile  `json:"sheets"`
	Workbook      string       `json:"workbook,omitempty"`
	UniqueIDs     string       `json:"unique_ids,omitempty"`
	Images        *ImageCounts `json:"images,omitempty"`
}

// NewManifest creates a manifest with a fresh run id. Paths are stored as given.
func NewManifest(runID uuid.UUID, spreadsheetID string, files []SheetFile) *Manifest {
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	if files == nil {
		files = []SheetFile{}
	}
	return &Manifest{
		RunID:         runID,
		SpreadsheetID: spreadsheetID,
		CreatedAt:     time.Now().UTC(),
		Sheets:        files,
	}
}

// TotalRecords sums the record counts of all sheets.
func (m *Manifest) TotalRecords() int {
	total := 0
	for _, s := range m.Sheets {
		total += s.Records
	}
	return total
}

// WriteManifest writes m to <dir>/manifest.json and returns the path.
func WriteManifest(dir string, m *Manifest) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
