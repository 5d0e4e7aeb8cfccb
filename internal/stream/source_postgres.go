// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package stream

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/internal/platform/dberr"
	"github.com/tabulo-data/tabulo/pkg/sqlident"
)

// cursorSource streams a compiled query through a PostgreSQL server-side
// cursor. The cursor lives inside a read-only transaction on a dedicated
// pooled connection; both are held until Close.
type cursorSource struct {
	conn      *pgxpool.Conn
	tx        pgx.Tx
	name      string
	batchSize int
	closed    bool
}

/*
NewCursorSource declares a server-side cursor over a compiled query.

Description: Acquires one pooled connection, opens a read-only transaction
and declares a NO SCROLL cursor with a unique name. On any setup failure the
connection is released before the error is returned, so a failed open never
leaks. The caller owns the returned source and must Close it.

Parameters:
  - ctx: context.Context
  - pool: *pgxpool.Pool
  - query: string (fully compiled, quoted SQL)

Returns:
  - Source: The batch source, fetching [constants.CursorBatchSize] rows per call
  - error: Connection or cursor declaration failures
*/
func NewCursorSource(ctx context.Context, pool *pgxpool.Pool, query string) (Source, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, dberr.Wrap(err, "acquire_stream_connection")
	}

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		conn.Release()
		return nil, dberr.Wrap(err, "begin_stream_transaction")
	}

	// Cursor names are per-session but uniqueness costs nothing and keeps
	// pg_cursors inspectable under load.
	name := "stream_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	declare := "DECLARE " + sqlident.Quote(name) + " NO SCROLL CURSOR FOR " + query
	if _, err := tx.Exec(ctx, declare); err != nil {
		_ = tx.Rollback(ctx)
		conn.Release()
		return nil, dberr.Wrap(err, "declare_stream_cursor")
	}

	return &cursorSource{
		conn:      conn,
		tx:        tx,
		name:      name,
		batchSize: constants.CursorBatchSize,
	}, nil
}

// Next fetches the next batch from the cursor.
func (source *cursorSource) Next(ctx context.Context) (Batch, error) {
	if source.closed {
		return Batch{}, nil
	}

	fetch := fmt.Sprintf("FETCH %d FROM %s", source.batchSize, sqlident.Quote(source.name))
	rows, err := source.tx.Query(ctx, fetch)
	if err != nil {
		return Batch{}, dberr.Wrap(err, "fetch_stream_batch")
	}
	defer rows.Close()

	batch := Batch{}
	for _, description := range rows.FieldDescriptions() {
		batch.Columns = append(batch.Columns, description.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return Batch{}, dberr.Wrap(err, "scan_stream_batch")
		}
		batch.Rows = append(batch.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return Batch{}, dberr.Wrap(err, "read_stream_batch")
	}

	return batch, nil
}

// Close closes the cursor and releases the transaction and connection.
// The close is unconditional: it runs whether the stream completed, the
// sink failed mid-write, or the encoder bailed early.
func (source *cursorSource) Close(ctx context.Context) error {
	if source.closed {
		return nil
	}
	source.closed = true

	// Best effort: rollback ends the cursor with the transaction even if
	// the explicit CLOSE fails.
	_, _ = source.tx.Exec(ctx, "CLOSE "+sqlident.Quote(source.name))
	err := source.tx.Rollback(ctx)
	source.conn.Release()

	if err != nil {
		return dberr.Wrap(err, "close_stream_cursor")
	}
	return nil
}
