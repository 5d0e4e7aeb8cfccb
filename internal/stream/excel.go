// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package stream

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tabulo-data/tabulo/internal/platform/constants"
)

// sheetRowCeiling is the row count at which a sheet is finalized and a new
// one started. The margin keeps a full cursor batch from straddling the
// xlsx hard limit.
const sheetRowCeiling = constants.ExcelMaxRows - constants.ExcelSheetRowMargin

/*
EncodeExcel streams the source into an xlsx workbook.

Description: Uses the excelize stream writer, which spools rows to temp
files instead of holding the sheet in memory. When the active sheet reaches
the row ceiling it is flushed and a fresh sheet ("Data 2", "Data 3", ...)
continues with the same header row. The workbook container is written to
the sink once at the end; xlsx is a zip archive, so the bytes themselves
cannot be emitted row by row.

Parameters:
  - ctx: context.Context
  - sink: io.Writer (the response body)
  - source: Source

Returns:
  - error: Source read, sheet write or workbook serialization failures
*/
func EncodeExcel(ctx context.Context, sink io.Writer, source Source) error {
	file := excelize.NewFile()
	defer file.Close()

	sheetCount := 1
	sheetName := "Data 1"
	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	writer, err := file.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	var header []any
	rowInSheet := 0

	writeRow := func(values []any) error {
		rowInSheet++
		cell, err := excelize.CoordinatesToCellName(1, rowInSheet)
		if err != nil {
			return err
		}
		return writer.SetRow(cell, values)
	}

	nextSheet := func() error {
		if err := writer.Flush(); err != nil {
			return err
		}

		sheetCount++
		sheetName = fmt.Sprintf("Data %d", sheetCount)
		if _, err := file.NewSheet(sheetName); err != nil {
			return err
		}

		writer, err = file.NewStreamWriter(sheetName)
		if err != nil {
			return err
		}

		rowInSheet = 0
		return writeRow(header)
	}

	for {
		batch, err := source.Next(ctx)
		if err != nil {
			return err
		}
		if batch.Empty() {
			break
		}

		if header == nil {
			header = make([]any, len(batch.Columns))
			for i, column := range batch.Columns {
				header[i] = column
			}
			if err := writeRow(header); err != nil {
				return err
			}
		}

		for _, row := range batch.Rows {
			if rowInSheet >= sheetRowCeiling {
				if err := nextSheet(); err != nil {
					return err
				}
			}

			values := make([]any, len(row))
			for i, value := range row {
				values[i] = jsonValue(value)
			}
			if err := writeRow(values); err != nil {
				return err
			}
		}
	}

	if err := writer.Flush(); err != nil {
		return err
	}
	return file.Write(sink)
}
