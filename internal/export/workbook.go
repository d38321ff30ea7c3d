package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
)

const maxWorksheetName = 31

// ListSeparator joins list values in workbook cells.
const ListSeparator = ", "

// WorksheetName makes a sheet title usable as an xlsx worksheet name.
func WorksheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, title)
	name = strings.Trim(name, "'")
	if runes := []rune(name); len(runes) > maxWorksheetName {
		name = string(runes[:maxWorksheetName])
	}
	return name
}

// Columns returns the union of record keys in first-seen order.
func Columns(records []*spreadsheet.Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range records {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

func cellValue(v spreadsheet.FieldValue) string {
	if list, ok := v.Strings(); ok {
		return strings.Join(list, ListSeparator)
	}
	s, _ := v.Str()
	return s
}

// WriteWorkbook writes one worksheet per dataset sheet to an xlsx file at path.
func WriteWorkbook(path string, ds *spreadsheet.Dataset) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	used := make(map[string]bool)

	for i, sheet := range ds.Sheets() {
		name := uniqueWorksheetName(sheet.Title, i, used)

		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("failed to name worksheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create worksheet %q: %w", name, err)
		}

		if err := writeWorksheet(f, name, sheet.Records, headerStyle); err != nil {
			return fmt.Errorf("failed to write worksheet %q: %w", name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func uniqueWorksheetName(title string, index int, used map[string]bool) string {
	name := WorksheetName(title)
	if name == "" {
		name = "Sheet" + strconv.Itoa(index+1)
	}
	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := "_" + strconv.Itoa(n)
		runes := []rune(base)
		if len(runes)+len(suffix) > maxWorksheetName {
			runes = runes[:maxWorksheetName-len(suffix)]
		}
		name = string(runes) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func writeWorksheet(f *excelize.File, name string, records []*spreadsheet.Record, headerStyle int) error {
	cols := Columns(records)
	if len(cols) == 0 {
		return nil
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, r := range records {
		for j, c := range cols {
			v, ok := r.Get(c)
			if !ok || v.IsNull() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, cellValue(v)); err != nil {
				return err
			}
		}
	}
	return nil
}
