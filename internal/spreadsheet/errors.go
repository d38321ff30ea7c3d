package spreadsheet

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSpreadsheetFormat = errors.New("invalid spreadsheet format")
	ErrNoGridData               = errors.New("no grid data")
	ErrNoColumnTitles           = errors.New("no column titles")
	ErrMissingColumnTitle       = errors.New("empty column title")
	ErrUnsupportedFormula       = errors.New("unsupported formula")
	ErrUnsupportedCellType      = errors.New("unsupported cell type")
	ErrSheetNotFound            = errors.New("sheet not found")
	ErrFieldMissing             = errors.New("field missing")
)

// Error attaches sheet, row and field context to one of the sentinel errors above.
// Row is the zero-based grid row, or -1 when the error is not tied to a row. Cause is
// the underlying error, if any.
type Error struct {
	Kind   error
	Sheet  string
	Row    int
	Column string
	Field  string
	Msg    string
	Cause  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var parts []string
	if e.Sheet != "" {
		parts = append(parts, fmt.Sprintf("sheet %q", e.Sheet))
	}
	if e.Row >= 0 {
		parts = append(parts, fmt.Sprintf("row %d", e.Row))
	}
	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column %s", e.Column))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field %q", e.Field))
	}

	msg := e.Kind.Error()
	if e.Msg != "" {
		msg = msg + ": " + e.Msg
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	if len(parts) == 0 {
		return msg
	}
	return strings.Join(parts, ", ") + ": " + msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Row: -1, Msg: fmt.Sprintf(format, args...)}
}

// withLocation fills in location fields that are still unset on a core error.
func withLocation(err error, sheet string, row int, column string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	if e.Sheet == "" {
		e.Sheet = sheet
	}
	if e.Row < 0 {
		e.Row = row
	}
	if e.Column == "" {
		e.Column = column
	}
	return e
}
