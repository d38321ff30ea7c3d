package spreadsheet

// BuildRecords maps each data row of sheet to a Record keyed by the normalized column
// titles. Missing trailing cells become null, cells past the last title are stored under
// the empty key, and rows whose values are all null are dropped.
func BuildRecords(sheet *Sheet) ([]*Record, error) {
	columns, err := sheet.ColumnTitles()
	if err != nil {
		return nil, err
	}
	rows, err := sheet.DataRows()
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(rows))
	for i, row := range rows {
		rowNum := i + 1
		record, err := buildRecord(row, columns)
		if err != nil {
			return nil, withLocation(err, sheet.Title(), rowNum, "")
		}
		if record.AllNull() {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func buildRecord(row Row, columns []string) (*Record, error) {
	width := max(len(columns), len(row.Values))
	record := &Record{}

	for i := 0; i < width; i++ {
		key := ""
		if i < len(columns) {
			key = columns[i]
		}

		value, ok, err := row.Cell(i).Resolve()
		if err != nil {
			return nil, withLocation(err, "", -1, columnLabel(i))
		}
		if ok {
			record.Set(key, String(value))
		} else {
			record.Set(key, Null())
		}
	}
	return record, nil
}
