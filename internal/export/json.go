// Package export writes a built dataset to disk: per-sheet JSON files, an xlsx
// workbook, the unique entry id listing and a run manifest.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
)

// SheetFile describes one written sheet export.
type SheetFile struct {
	Sheet   string `json:"sheet"`
	Path    string `json:"path"`
	Records int    `json:"records"`
}

// NormalizeFilename turns a sheet title into a file stem: ASCII letters and digits,
// '_' and '.' are kept, spaces become '_', everything else is dropped, and the
// result is lowercased.
func NormalizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}

// WriteJSON writes every sheet of ds as a pretty printed JSON array to
// <dir>/<normalized title>.json, in dataset order.
func WriteJSON(dir string, ds *spreadsheet.Dataset) ([]SheetFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	manifestStem := strings.TrimSuffix(ManifestFile, ".json")
	seen := make(map[string]string)
	var files []SheetFile
	for _, sheet := range ds.Sheets() {
		stem := NormalizeFilename(sheet.Title)
		if stem == "" || stem == "." || stem == ".." {
			return files, fmt.Errorf("sheet %q has no usable file name", sheet.Title)
		}
		if stem == manifestStem {
			return files, fmt.Errorf("sheet %q would export to %s, which is reserved for the run manifest", sheet.Title, ManifestFile)
		}
		if other, ok := seen[stem]; ok {
			return files, fmt.Errorf("sheets %q and %q both export to %s.json", other, sheet.Title, stem)
		}
		seen[stem] = sheet.Title

		path := filepath.Join(dir, stem+".json")
		if err := WriteRecordsFile(path, sheet.Records); err != nil {
			return files, fmt.Errorf("failed to export sheet %q: %w", sheet.Title, err)
		}
		files = append(files, SheetFile{Sheet: sheet.Title, Path: path, Records: len(sheet.Records)})
	}
	return files, nil
}

// WriteRecordsFile writes records as an indented JSON array.
func WriteRecordsFile(path string, records []*spreadsheet.Record) error {
	if records == nil {
		records = []*spreadsheet.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadRecordsFile reads a file written by WriteRecordsFile.
func ReadRecordsFile(path string) ([]*spreadsheet.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []*spreadsheet.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
