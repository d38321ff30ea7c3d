// Package schemas holds the JSON Schemas for exported artifacts.
package schemas

import "embed"

// Schema file names.
const (
	SheetRecords = "sheet_records.schema.json"
	Manifest     = "manifest.schema.json"
)

//go:embed *.schema.json
var FS embed.FS

// Read returns the content of an embedded schema.
func Read(name string) ([]byte, error) {
	return FS.ReadFile(name)
}
