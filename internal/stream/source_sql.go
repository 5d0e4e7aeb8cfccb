// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package stream

import (
	"context"
	"database/sql"

	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/internal/platform/dberr"
)

// rowsSource adapts a database/sql result set to the [Source] contract, so
// pivot results from the analytical engine flow through the same encoders
// as cursor-backed Postgres results.
type rowsSource struct {
	rows      *sql.Rows
	columns   []string
	batchSize int
	onClose   func()
	closed    bool
}

// NewRowsSource wraps an open *sql.Rows. The optional onClose hook runs
// exactly once when the source is closed; the pivot engine uses it to
// return its analytical connection.
func NewRowsSource(rows *sql.Rows, onClose func()) (Source, error) {
	columns, err := rows.Columns()
	if err != nil {
		if onClose != nil {
			onClose()
		}
		_ = rows.Close()
		return nil, dberr.Wrap(err, "describe_pivot_result")
	}

	return &rowsSource{
		rows:      rows,
		columns:   columns,
		batchSize: constants.CursorBatchSize,
		onClose:   onClose,
	}, nil
}

// Next scans up to one batch worth of rows.
func (source *rowsSource) Next(_ context.Context) (Batch, error) {
	if source.closed {
		return Batch{}, nil
	}

	batch := Batch{Columns: source.columns}
	for len(batch.Rows) < source.batchSize && source.rows.Next() {
		values := make([]any, len(source.columns))
		pointers := make([]any, len(source.columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := source.rows.Scan(pointers...); err != nil {
			return Batch{}, dberr.Wrap(err, "scan_pivot_row")
		}

		// Drivers hand back []byte for text columns; normalize to string
		// so encoders render values, not base64.
		for i, value := range values {
			if raw, ok := value.([]byte); ok {
				values[i] = string(raw)
			}
		}
		batch.Rows = append(batch.Rows, values)
	}

	if err := source.rows.Err(); err != nil {
		return Batch{}, dberr.Wrap(err, "read_pivot_result")
	}
	return batch, nil
}

// Close closes the result set and runs the release hook once.
func (source *rowsSource) Close(_ context.Context) error {
	if source.closed {
		return nil
	}
	source.closed = true

	err := source.rows.Close()
	if source.onClose != nil {
		source.onClose()
	}
	if err != nil {
		return dberr.Wrap(err, "close_pivot_result")
	}
	return nil
}
