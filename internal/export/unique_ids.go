package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
)

// UniqueEntryIDField is the column listed by WriteUniqueEntryIDs.
const UniqueEntryIDField = "unique_entry_id"

// IDFormat decorates every listed id.
type IDFormat struct {
	Prefix string
	Suffix string
}

// WriteUniqueEntryIDs writes the id listing to path, creating its directory.
func WriteUniqueEntryIDs(path string, ds *spreadsheet.Dataset, format IDFormat) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if err := FormatUniqueEntryIDs(w, ds, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// FormatUniqueEntryIDs writes each sheet title on its own line followed by one
// indented line per record id. Records without an id, or with a null id, are
// skipped; a list id is an error.
func FormatUniqueEntryIDs(w io.Writer, ds *spreadsheet.Dataset, format IDFormat) error {
	for _, sheet := range ds.Sheets() {
		if _, err := fmt.Fprintln(w, sheet.Title); err != nil {
			return err
		}
		for i, r := range sheet.Records {
			v, ok := r.Get(UniqueEntryIDField)
			if !ok || v.IsNull() {
				continue
			}
			id, ok := v.Str()
			if !ok {
				return fmt.Errorf("sheet %q, record %d: invalid %s format", sheet.Title, i, UniqueEntryIDField)
			}
			if _, err := fmt.Fprintf(w, "   %s%s%s\n", format.Prefix, id, format.Suffix); err != nil {
				return err
			}
		}
	}
	return nil
}
