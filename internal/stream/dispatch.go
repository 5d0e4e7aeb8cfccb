// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package stream

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tabulo-data/tabulo/internal/platform/apperr"
)

// Format identifies one output encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatExcel    Format = "xlsx"
	FormatHTML     Format = "html"
	FormatFrontend Format = "frontend"
)

/*
ParseFormat resolves the format query parameter.

Description: An empty parameter defaults to JSON. "excel" is accepted as an
alias of "xlsx" since both circulate in consumer links. An unrecognized
token is a client error, not a server fault.

Parameters:
  - value: string (raw query parameter)

Returns:
  - Format: The resolved format
  - error: UnknownEncodingFormat
*/
func ParseFormat(value string) (Format, error) {
	switch value {
	case "":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	case "html":
		return FormatHTML, nil
	case "frontend":
		return FormatFrontend, nil
	}
	return "", apperr.UnknownEncodingFormat(value)
}

// ContentType returns the response media type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// Extension returns the download filename extension for a format, or ""
// for inline formats that are not offered as attachments.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatExcel:
		return "xlsx"
	case FormatJSON:
		return "json"
	}
	return ""
}

/*
Encode drains a source into the sink using the requested format.

Description: Pure dispatch over the format encoders. The composite frontend
format additionally needs the request context captured in meta; the plain
download formats ignore it. The source is NOT closed here — ownership stays
with the caller so release happens in exactly one place.

Parameters:
  - ctx: context.Context
  - sink: io.Writer (the response body)
  - source: Source
  - format: Format
  - meta: *FrontendMeta (required for FormatFrontend, ignored otherwise)

Returns:
  - error: UnknownEncodingFormat, source read failures, or sink write failures
*/
func Encode(ctx context.Context, sink io.Writer, source Source, format Format, meta *FrontendMeta) error {
	switch format {
	case FormatCSV:
		return EncodeCSV(ctx, sink, source)
	case FormatJSON:
		return EncodeJSON(ctx, sink, source)
	case FormatExcel:
		return EncodeExcel(ctx, sink, source)
	case FormatHTML:
		return EncodeHTML(ctx, sink, source)
	case FormatFrontend:
		return EncodeFrontend(ctx, sink, source, meta)
	}
	return apperr.UnknownEncodingFormat(string(format))
}

// formatValue renders one cell for the text formats (CSV, HTML, Excel
// fallback). NULL renders as an empty cell.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// jsonValue normalizes one cell for the JSON formats. Byte slices become
// strings so text columns do not surface as base64.
func jsonValue(value any) any {
	if raw, ok := value.([]byte); ok {
		return string(raw)
	}
	return value
}
