package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// Source downloads the raw JSON document of a spreadsheet, grid data included.
type Source interface {
	Download(ctx context.Context, spreadsheetID string) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, spreadsheetID string) ([]byte, error)

func (f SourceFunc) Download(ctx context.Context, spreadsheetID string) ([]byte, error) {
	return f(ctx, spreadsheetID)
}

// SheetsConfig configures the Sheets API client.
type SheetsConfig struct {
	APIKey string
	// Endpoint overrides the API base URL, e.g. for a local test server.
	Endpoint string
}

// SheetsClient fetches spreadsheets through the Google Sheets v4 API.
type SheetsClient struct {
	svc *sheets.Service
}

// NewSheetsClient creates a Sheets API client authenticated with an API key.
func NewSheetsClient(ctx context.Context, cfg SheetsConfig) (*SheetsClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sheets API key is empty")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsClient{svc: svc}, nil
}

// Download fetches the spreadsheet with grid data and returns it encoded as JSON.
func (c *SheetsClient) Download(ctx context.Context, spreadsheetID string) ([]byte, error) {
	resp, err := c.svc.Spreadsheets.Get(spreadsheetID).IncludeGridData(true).Context(ctx).Do()
	if err != nil {
		return nil, &Error{
			URL:     "spreadsheets/" + spreadsheetID,
			Message: "API request failed",
			Cause:   err,
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode spreadsheet %s: %w", spreadsheetID, err)
	}
	return data, nil
}
