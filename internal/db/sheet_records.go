package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
)

// -----------------------------------------------------------------------------
// Sheet Records Methods
// -----------------------------------------------------------------------------

// encodeRecords marshals each record to the JSON stored in the record column.
func encodeRecords(records []*spreadsheet.Record) ([][]byte, error) {
	encoded := make([][]byte, len(records))
	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		encoded[i] = data
	}
	return encoded, nil
}

// SaveSheet replaces the stored records of one sheet for a run, keeping record order.
func (db *DB) SaveSheet(ctx context.Context, runID uuid.UUID, sheet string, records []*spreadsheet.Record) error {
	encoded, err := encodeRecords(records)
	if err != nil {
		return err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM sheet_records WHERE run_id = $1 AND sheet = $2`, runID, sheet)
	for i, data := range encoded {
		batch.Queue(
			`INSERT INTO sheet_records (run_id, sheet, position, keys, record) VALUES ($1, $2, $3, $4, $5)`,
			runID, sheet, i, records[i].Keys(), data,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to save sheet %q: %w", sheet, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to save sheet %q: %w", sheet, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit sheet %q: %w", sheet, err)
	}
	return nil
}

// decodeRecord rebuilds a record from its jsonb value. jsonb does not keep object key
// order, so the keys column restores it.
func decodeRecord(data []byte, keys []string) (*spreadsheet.Record, error) {
	var values map[string]spreadsheet.FieldValue
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	r := spreadsheet.NewRecord()
	for _, k := range keys {
		if v, ok := values[k]; ok {
			r.Set(k, v)
			delete(values, k)
		}
	}
	if len(values) > 0 {
		return nil, fmt.Errorf("record has %d fields missing from its key list", len(values))
	}
	return r, nil
}

// GetSheetRecords retrieves the stored records of one sheet in their original order
func (db *DB) GetSheetRecords(ctx context.Context, runID uuid.UUID, sheet string) ([]*spreadsheet.Record, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT keys, record FROM sheet_records WHERE run_id = $1 AND sheet = $2 ORDER BY position`,
		runID, sheet,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet records: %w", err)
	}
	defer rows.Close()

	var records []*spreadsheet.Record
	for rows.Next() {
		var keys []string
		var data []byte
		if err := rows.Scan(&keys, &data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r, err := decodeRecord(data, keys)
		if err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListSheets returns per-sheet record counts for a run
func (db *DB) ListSheets(ctx context.Context, runID uuid.UUID) ([]SheetSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT sheet, COUNT(*) FROM sheet_records WHERE run_id = $1 GROUP BY sheet ORDER BY sheet`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	defer rows.Close()

	var sheets []SheetSummary
	for rows.Next() {
		var s SheetSummary
		if err := rows.Scan(&s.Sheet, &s.Records); err != nil {
			return nil, fmt.Errorf("failed to scan sheet summary: %w", err)
		}
		sheets = append(sheets, s)
	}
	return sheets, rows.Err()
}
