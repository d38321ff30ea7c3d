package spreadsheet

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textCell(s string) Cell    { return Cell{Computed: ptr(Text(s))} }
func numberCell(n float64) Cell { return Cell{Computed: ptr(Number(n))} }
func blankCell() Cell           { return Cell{Computed: ptr(Empty()), Entered: ptr(Empty())} }
func row(cells ...Cell) Row     { return Row{Values: cells} }

func sheetOf(title string, rows ...Row) *Sheet {
	return &Sheet{Properties: SheetProperties{Title: title}, Data: []GridData{{RowData: rows}}}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestBuildRecords_HeaderNormalization(t *testing.T) {
	sheet := sheetOf("Fruit",
		row(textCell("Name"), textCell("Item Count")),
		row(textCell("Apple"), numberCell(3)),
	)

	records, err := BuildRecords(sheet)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `{"name":"Apple","item_count":"3"}`, mustJSON(t, records[0]))
}

func TestBuildRecords_DropsBlankRows(t *testing.T) {
	sheet := sheetOf("Fruit",
		row(textCell("Name"), textCell("Color")),
		row(textCell("Apple"), textCell("Red")),
		row(blankCell(), blankCell()),
		row(),
		row(Cell{}, Cell{Computed: ptr(Empty())}),
		row(blankCell(), textCell("Green")),
	)

	records, err := BuildRecords(sheet)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, `{"name":"Apple","color":"Red"}`, mustJSON(t, records[0]))
	assert.Equal(t, `{"name":null,"color":"Green"}`, mustJSON(t, records[1]))
}

func TestBuildRecords_ShortRowPadsWithNull(t *testing.T) {
	sheet := sheetOf("Items",
		row(textCell("Name"), textCell("Weight"), textCell("Value")),
		row(textCell("Rope")),
	)

	records, err := BuildRecords(sheet)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"name", "weight", "value"}, records[0].Keys())
	assert.Equal(t, `{"name":"Rope","weight":null,"value":null}`, mustJSON(t, records[0]))
}

func TestBuildRecords_ExtraCellsUseEmptyKey(t *testing.T) {
	sheet := sheetOf("Items",
		row(textCell("Name")),
		row(textCell("Rope"), textCell("first extra"), textCell("second extra")),
	)

	records, err := BuildRecords(sheet)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `{"name":"Rope","":"second extra"}`, mustJSON(t, records[0]))
}

func TestBuildRecords_ImageFormula(t *testing.T) {
	s, err := Parse([]byte(fixtureJSON))
	require.NoError(t, err)

	records, err := BuildRecords(s.Sheets()[0])
	require.NoError(t, err)
	require.Len(t, records, 2)

	image, ok := records[0].GetString("image")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/apple.png", image)
	assert.Equal(t, `{"name":"Pear","item_count":null,"image":null}`, mustJSON(t, records[1]))
}

func TestBuildRecords_HeaderOnly(t *testing.T) {
	records, err := BuildRecords(sheetOf("Empty", row(textCell("Name"))))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBuildRecords_Idempotent(t *testing.T) {
	s, err := Parse([]byte(fixtureJSON))
	require.NoError(t, err)

	first, err := BuildRecords(s.Sheets()[0])
	require.NoError(t, err)
	second, err := BuildRecords(s.Sheets()[0])
	require.NoError(t, err)
	assert.Equal(t, mustJSON(t, first), mustJSON(t, second))
}

func TestBuildRecords_ErrorCarriesLocation(t *testing.T) {
	sheet := sheetOf("Items",
		row(textCell("Name"), textCell("Formula")),
		row(textCell("Rope"), textCell("ok")),
		row(textCell("Torch"), Cell{Entered: ptr(Formula("=NOW()"))}),
	)

	records, err := BuildRecords(sheet)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, ErrUnsupportedFormula))

	var coreErr *Error
	require.True(t, errors.As(err, &coreErr))
	assert.Equal(t, "Items", coreErr.Sheet)
	assert.Equal(t, 2, coreErr.Row)
	assert.Equal(t, "B", coreErr.Column)
}

func TestBuildRecords_PropagatesSheetErrors(t *testing.T) {
	_, err := BuildRecords(&Sheet{Properties: SheetProperties{Title: "X"}})
	assert.True(t, errors.Is(err, ErrNoGridData))

	_, err = BuildRecords(&Sheet{Properties: SheetProperties{Title: "X"}, Data: []GridData{{}}})
	assert.True(t, errors.Is(err, ErrNoColumnTitles))
}
