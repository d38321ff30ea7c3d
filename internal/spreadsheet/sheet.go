package spreadsheet

import (
	"encoding/json"
	"strings"
)

// Spreadsheet is the decoded API response: an ordered list of sheets.
type Spreadsheet struct {
	SheetList []*Sheet `json:"sheets"`
}

// Sheet is one named grid of cells.
type Sheet struct {
	Properties SheetProperties `json:"properties"`
	Data       []GridData      `json:"data"`
}

// SheetProperties carries the sheet metadata this package uses.
type SheetProperties struct {
	Title string `json:"title"`
}

// GridData is one block of rows. Only the first block of a sheet is read.
type GridData struct {
	RowData []Row `json:"rowData"`
}

// Row is an ordered list of cells. Trailing cells may be omitted upstream.
type Row struct {
	Values []Cell `json:"values"`
}

// Cell returns the cell at column i, or a blank cell when the row is shorter.
func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r.Values) {
		return Cell{}
	}
	return r.Values[i]
}

// Parse decodes a spreadsheet JSON document.
func Parse(data []byte) (*Spreadsheet, error) {
	var s Spreadsheet
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &Error{Kind: ErrInvalidSpreadsheetFormat, Row: -1, Cause: err}
	}
	for i, sheet := range s.SheetList {
		if sheet == nil {
			return nil, newError(ErrInvalidSpreadsheetFormat, "sheet %d is null", i)
		}
	}
	return &s, nil
}

// Sheets returns the sheets in spreadsheet order.
func (s *Spreadsheet) Sheets() []*Sheet {
	return s.SheetList
}

// FindSheet returns the first sheet with the given title.
func (s *Spreadsheet) FindSheet(title string) (*Sheet, bool) {
	for _, sheet := range s.SheetList {
		if sheet.Title() == title {
			return sheet, true
		}
	}
	return nil, false
}

// Title returns the sheet's display name.
func (s *Sheet) Title() string {
	return s.Properties.Title
}

func (s *Sheet) grid() (*GridData, error) {
	if len(s.Data) == 0 {
		return nil, &Error{Kind: ErrNoGridData, Sheet: s.Title(), Row: -1}
	}
	return &s.Data[0], nil
}

// ColumnTitles resolves the header row and normalizes each title. A blank header cell
// is an error.
func (s *Sheet) ColumnTitles() ([]string, error) {
	grid, err := s.grid()
	if err != nil {
		return nil, err
	}
	if len(grid.RowData) == 0 {
		return nil, &Error{Kind: ErrNoColumnTitles, Sheet: s.Title(), Row: -1}
	}

	header := grid.RowData[0]
	titles := make([]string, 0, len(header.Values))
	for i, cell := range header.Values {
		value, ok, err := cell.Resolve()
		if err != nil {
			return nil, withLocation(err, s.Title(), 0, columnLabel(i))
		}
		if !ok {
			return nil, &Error{Kind: ErrMissingColumnTitle, Sheet: s.Title(), Row: 0, Column: columnLabel(i)}
		}
		titles = append(titles, NormalizeColumnName(value))
	}
	return titles, nil
}

// DataRows returns every row after the header.
func (s *Sheet) DataRows() ([]Row, error) {
	grid, err := s.grid()
	if err != nil {
		return nil, err
	}
	if len(grid.RowData) <= 1 {
		return []Row{}, nil
	}
	return grid.RowData[1:], nil
}

// NormalizeColumnName lowercases ASCII letters and turns spaces into underscores.
// Every other character is kept as is.
func NormalizeColumnName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r == ' ':
			sb.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// columnLabel converts a zero-based column index to spreadsheet letters (0 -> A).
func columnLabel(i int) string {
	label := ""
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		label = string(rune('A'+(n-1)%26)) + label
	}
	return label
}
