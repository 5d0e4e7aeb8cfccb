// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package stream executes compiled consumer queries and encodes their result
sets onto an output sink without buffering full results in memory.

Rows are pulled through a [Source] in fixed-size batches (one server-side
cursor fetch per batch) and handed to one of the format encoders: CSV, JSON,
Excel, HTML or the composite frontend payload. Encoders write each batch to
the sink before the next is fetched, so memory use is bounded by the batch
size regardless of result size.
*/
package stream

import "context"

// Batch is one cursor fetch worth of rows.
type Batch struct {
	// Columns are the result column names, identical across batches.
	Columns []string

	// Rows hold one value slice per row, aligned with Columns.
	Rows [][]any
}

// Empty reports whether the batch carries no rows, which signals source
// exhaustion to the encode loop.
func (b Batch) Empty() bool { return len(b.Rows) == 0 }

// Source yields a result set in batches.
//
// A source owns one database connection and one cursor. Callers must Close
// it when done, success or failure, or the connection leaks.
type Source interface {
	// Next returns the next batch. An empty batch means the result set is
	// exhausted; further calls keep returning empty batches.
	Next(ctx context.Context) (Batch, error)

	// Close releases the cursor and its connection. Safe to call more
	// than once.
	Close(ctx context.Context) error
}
