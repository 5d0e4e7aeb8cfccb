// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package stream

import (
	"context"
	"html"
	"io"
)

// EncodeHTML streams the source as a minimal table document. Every cell is
// HTML-escaped; the data is user-uploaded and must never be interpreted as
// markup. An empty result still emits a well-formed headerless document.
func EncodeHTML(ctx context.Context, sink io.Writer, source Source) error {
	if _, err := io.WriteString(sink, "<!DOCTYPE html>\n<html>\n<body>\n<table>\n"); err != nil {
		return err
	}

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
			if err := writeHTMLRow(sink, "th", batch.Columns); err != nil {
				return err
			}
			wroteHeader = true
		}

		cells := make([]string, len(batch.Columns))
		for _, row := range batch.Rows {
			for i, value := range row {
				cells[i] = formatValue(value)
			}
			if err := writeHTMLRow(sink, "td", cells); err != nil {
				return err
			}
		}
	}

	_, err := io.WriteString(sink, "</table>\n</body>\n</html>\n")
	return err
}

// writeHTMLRow emits one escaped <tr>.
func writeHTMLRow(sink io.Writer, tag string, cells []string) error {
	if _, err := io.WriteString(sink, "<tr>"); err != nil {
		return err
	}
	for _, cell := range cells {
		if _, err := io.WriteString(sink, "<"+tag+">"+html.EscapeString(cell)+"</"+tag+">"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(sink, "</tr>\n")
	return err
}
