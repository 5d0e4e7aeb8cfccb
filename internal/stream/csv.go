// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package stream

import (
	"context"
	"encoding/csv"
	"io"
)

// EncodeCSV streams the source as CSV: one header row from the first
// batch's columns, then one line per row. A zero-row result writes a single
// blank line so the response body is never empty.
func EncodeCSV(ctx context.Context, sink io.Writer, source Source) error {
	writer := csv.NewWriter(sink)

	wroteHeader := false
	for {
		batch, err := source.Next(ctx)
		if err != nil {
			return err
		}
		if batch.Empty() {
			break
		}

		if !wroteHeader {
			if err := writer.Write(batch.Columns); err != nil {
				return err
			}
			wroteHeader = true
		}

		record := make([]string, len(batch.Columns))
		for _, row := range batch.Rows {
			for i, value := range row {
				record[i] = formatValue(value)
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}

		// Push the batch to the sink before fetching the next one.
		writer.Flush()
		if err := writer.Error(); err != nil {
			return err
		}
	}

	if !wroteHeader {
		if _, err := sink.Write([]byte("\n")); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
