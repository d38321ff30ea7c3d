package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheetsResponse = `{
  "spreadsheetId": "sheet-123",
  "sheets": [
    {
      "properties": {"title": "Food"},
      "data": [
        {
          "rowData": [
            {"values": [{"userEnteredValue": {"stringValue": "Name"}, "effectiveValue": {"stringValue": "Name"}}]},
            {"values": [{"userEnteredValue": {"numberValue": 12}, "effectiveValue": {"numberValue": 12}}]}
          ]
        }
      ]
    }
  ]
}`

func TestSheetsClient_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-123", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("includeGridData"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sheetsResponse))
	}))
	defer server.Close()

	client, err := NewSheetsClient(context.Background(), SheetsConfig{
		APIKey:   "test-key",
		Endpoint: server.URL + "/",
	})
	require.NoError(t, err)

	data, err := client.Download(context.Background(), "sheet-123")
	require.NoError(t, err)

	doc, err := spreadsheet.Parse(data)
	require.NoError(t, err)
	sheet, ok := doc.FindSheet("Food")
	require.True(t, ok)

	records, err := spreadsheet.BuildRecords(sheet)
	require.NoError(t, err)
	require.Len(t, records, 1)
	name, _ := records[0].GetString("name")
	assert.Equal(t, "12", name)
}

func TestSheetsClient_DownloadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer server.Close()

	client, err := NewSheetsClient(context.Background(), SheetsConfig{
		APIKey:   "bad-key",
		Endpoint: server.URL + "/",
	})
	require.NoError(t, err)

	_, err = client.Download(context.Background(), "sheet-123")
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "API request failed")
}

func TestNewSheetsClient_RequiresKey(t *testing.T) {
	_, err := NewSheetsClient(context.Background(), SheetsConfig{})
	assert.Error(t, err)
}
