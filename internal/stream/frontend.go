// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/tabulo-data/tabulo/internal/columns"
	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/apperr"
	"github.com/tabulo-data/tabulo/pkg/pageinfo"
)

// DatasetSummary is the consumer-facing dataset block of the composite
// payload.
type DatasetSummary struct {
	ID         string `json:"id"`
	RevisionID string `json:"revision_id"`
	QueryID    string `json:"query_id"`
}

// FrontendMeta carries the request context the composite encoder needs
// beyond the raw result rows.
type FrontendMeta struct {
	Dataset       DatasetSummary
	Filters       []map[string][]string
	NoteCodes     []string
	Locale        locale.Locale
	ColumnMapping []cube.ColumnMapping
	PageInfo      pageinfo.PageInfo
}

/*
EncodeFrontend streams the composite payload the platform frontend renders.

Description: Writes one JSON object incrementally: dataset summary, filter
echo, note codes, localized headers (derived from the first batch's columns
through the column resolver), the rows as value arrays rather than objects
to keep the payload small, and the page_info block. Rows flow batch by
batch like every other encoder.

Parameters:
  - ctx: context.Context
  - sink: io.Writer (the response body)
  - source: Source
  - meta: *FrontendMeta

Returns:
  - error: Source read, serialization or sink write failures
*/
func EncodeFrontend(ctx context.Context, sink io.Writer, source Source, meta *FrontendMeta) error {
	if meta == nil {
		return apperr.Internal(errors.New("frontend encoding requires request metadata"))
	}

	filters := meta.Filters
	if filters == nil {
		filters = []map[string][]string{}
	}
	noteCodes := meta.NoteCodes
	if noteCodes == nil {
		noteCodes = []string{}
	}

	if err := writeField(sink, "{", "dataset", meta.Dataset); err != nil {
		return err
	}
	if err := writeField(sink, ",", "filters", filters); err != nil {
		return err
	}
	if err := writeField(sink, ",", "note_codes", noteCodes); err != nil {
		return err
	}

	// The header names need the first batch, so the data array is written
	// in the same loop that discovers it.
	first := true
	wroteAnyRow := false
	for {
		batch, err := source.Next(ctx)
		if err != nil {
			return err
		}
		if batch.Empty() {
			break
		}

		if first {
			headers := localizedHeaders(batch.Columns, meta)
			if err := writeField(sink, ",", "headers", headers); err != nil {
				return err
			}
			if _, err := io.WriteString(sink, `,"data":[`); err != nil {
				return err
			}
			first = false
		}

		for _, row := range batch.Rows {
			values := make([]any, len(row))
			for i, value := range row {
				values[i] = jsonValue(value)
			}
			encoded, err := json.Marshal(values)
			if err != nil {
				return err
			}

			if wroteAnyRow {
				if _, err := io.WriteString(sink, ",\n"); err != nil {
					return err
				}
			}
			wroteAnyRow = true

			if _, err := sink.Write(encoded); err != nil {
				return err
			}
		}
	}

	if first {
		// Zero rows: no batch ever arrived, so headers are empty too.
		if err := writeField(sink, ",", "headers", []string{}); err != nil {
			return err
		}
		if _, err := io.WriteString(sink, `,"data":[`); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(sink, "]"); err != nil {
		return err
	}
	if err := writeField(sink, ",", "page_info", meta.PageInfo); err != nil {
		return err
	}

	_, err := io.WriteString(sink, "}")
	return err
}

// localizedHeaders resolves result columns to display names through the
// column resolver. Columns the mapping does not know (reference-code
// companions, engine-generated pivot headers) keep their raw name.
func localizedHeaders(resultColumns []string, meta *FrontendMeta) []string {
	mappingRows := cube.MappingRows(meta.ColumnMapping)

	headers := make([]string, len(resultColumns))
	for i, column := range resultColumns {
		if display, err := columns.FactColumnToDimension(column, meta.Locale, mappingRows); err == nil {
			headers[i] = display
		} else {
			headers[i] = column
		}
	}
	return headers
}

// writeField writes `<prefix>"<name>":<json(value)>`.
func writeField(sink io.Writer, prefix, name string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(sink, prefix+`"`+name+`":`); err != nil {
		return err
	}
	_, err = sink.Write(encoded)
	return err
}
