package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run represents one export run
type Run struct {
	ID            uuid.UUID  `json:"id"`
	SpreadsheetID string     `json:"spreadsheet_id"`
	Status        string     `json:"status"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// SheetSummary is a per-sheet record count for a run
type SheetSummary struct {
	Sheet   string `json:"sheet"`
	Records int    `json:"records"`
}
