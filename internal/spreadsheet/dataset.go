package spreadsheet

import (
	"encoding/json"
	"fmt"
)

// SheetRecords pairs a sheet title with its records.
type SheetRecords struct {
	Title   string
	Records []*Record
}

// Dataset maps sheet titles to records, in spreadsheet order.
type Dataset struct {
	sheets []SheetRecords
	index  map[string]int
}

// NewDataset builds records for every sheet. The first sheet that fails aborts the build.
func NewDataset(s *Spreadsheet) (*Dataset, error) {
	ds := &Dataset{}
	for _, sheet := range s.Sheets() {
		if _, exists := ds.Get(sheet.Title()); exists {
			return nil, &Error{Kind: ErrInvalidSpreadsheetFormat, Sheet: sheet.Title(), Row: -1, Msg: "duplicate sheet title"}
		}
		records, err := BuildRecords(sheet)
		if err != nil {
			return nil, err
		}
		ds.Put(sheet.Title(), records)
	}
	return ds, nil
}

// Put stores records under title. An existing title keeps its position.
func (d *Dataset) Put(title string, records []*Record) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[title]; ok {
		d.sheets[i].Records = records
		return
	}
	d.index[title] = len(d.sheets)
	d.sheets = append(d.sheets, SheetRecords{Title: title, Records: records})
}

// Get returns the records stored under title.
func (d *Dataset) Get(title string) ([]*Record, bool) {
	i, ok := d.index[title]
	if !ok {
		return nil, false
	}
	return d.sheets[i].Records, true
}

// Titles returns the sheet titles in order.
func (d *Dataset) Titles() []string {
	titles := make([]string, len(d.sheets))
	for i, s := range d.sheets {
		titles[i] = s.Title
	}
	return titles
}

// Sheets returns the sheets in order. The records are shared with the dataset.
func (d *Dataset) Sheets() []SheetRecords {
	out := make([]SheetRecords, len(d.sheets))
	copy(out, d.sheets)
	return out
}

// Len returns the number of sheets.
func (d *Dataset) Len() int { return len(d.sheets) }

// take removes title from the dataset and returns its records and former position.
func (d *Dataset) take(title string) ([]*Record, int, bool) {
	i, ok := d.index[title]
	if !ok {
		return nil, -1, false
	}
	records := d.sheets[i].Records
	d.sheets = append(d.sheets[:i], d.sheets[i+1:]...)
	d.reindex()
	return records, i, true
}

// insertAt puts title back at position pos.
func (d *Dataset) insertAt(pos int, title string, records []*Record) {
	if pos < 0 || pos > len(d.sheets) {
		pos = len(d.sheets)
	}
	d.sheets = append(d.sheets, SheetRecords{})
	copy(d.sheets[pos+1:], d.sheets[pos:])
	d.sheets[pos] = SheetRecords{Title: title, Records: records}
	d.reindex()
}

func (d *Dataset) reindex() {
	d.index = make(map[string]int, len(d.sheets))
	for i, s := range d.sheets {
		d.index[s.Title] = i
	}
}

// MarshalJSON encodes the dataset as an object of title -> records, in order.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, s := range d.sheets {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(s.Title)
		if err != nil {
			return nil, err
		}
		records := s.Records
		if records == nil {
			records = []*Record{}
		}
		value, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", s.Title, err)
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, value...)
	}
	return append(buf, '}'), nil
}
