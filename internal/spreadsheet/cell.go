package spreadsheet

import "regexp"

// imageFormula matches the single-argument IMAGE("<url>") formula. It is kept exactly this
// narrow: any other formula shape is rejected rather than guessed at.
var imageFormula = regexp.MustCompile(`(?i)=IMAGE\("(.*)"\)`)

// Cell holds the value the spreadsheet engine computed and the value the user entered.
// Either slot may be nil.
type Cell struct {
	Entered  *Value `json:"userEnteredValue,omitempty"`
	Computed *Value `json:"effectiveValue,omitempty"`
}

// Resolve returns the cell's effective string. ok is false when the cell is blank.
//
// A computed text or number wins. A computed empty falls back to the entered value, where
// an IMAGE formula yields its URL. Any other variant is reported as
// ErrUnsupportedCellType instead of being coerced.
func (c Cell) Resolve() (value string, ok bool, err error) {
	if c.Computed != nil {
		switch c.Computed.Kind() {
		case KindText:
			return c.Computed.text, true, nil
		case KindNumber:
			return formatNumber(c.Computed.number), true, nil
		case KindEmpty:
			// live value is blank; the entered formula may still carry an image
		default:
			return "", false, newError(ErrUnsupportedCellType, "computed %s %s", c.Computed.Kind(), c.Computed)
		}
	}

	if c.Entered != nil {
		switch c.Entered.Kind() {
		case KindFormula:
			m := imageFormula.FindStringSubmatch(c.Entered.text)
			if m == nil {
				return "", false, newError(ErrUnsupportedFormula, "%q", c.Entered.text)
			}
			return m[1], true, nil
		case KindEmpty:
			return "", false, nil
		default:
			return "", false, newError(ErrUnsupportedCellType, "entered %s %s", c.Entered.Kind(), c.Entered)
		}
	}

	return "", false, nil
}
