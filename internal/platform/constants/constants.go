// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Query Engine: Cursor batch sizing and spreadsheet row ceilings.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "tabulo-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of
	// the response. Streamed downloads can run long, hence the generous bound.
	DefaultWriteTimeout = 10 * time.Minute

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for non-streaming request lifecycles.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Query Engine

const (
	// CursorBatchSize is the number of rows fetched per cursor round trip.
	// Every streaming encoder reads the result set in batches of this size.
	CursorBatchSize = 500

	// ExcelMaxRows is the hard row limit of the xlsx format.
	ExcelMaxRows = 1_048_576

	// ExcelSheetRowMargin is subtracted from [ExcelMaxRows] so a sheet is
	// finalized before the format limit is hit mid-batch.
	ExcelSheetRowMargin = 76

	// ShortIDLength is the length of minted query store identifiers.
	ShortIDLength = 8

	// ShortIDAlphabet is the restricted alphabet used for query store
	// identifiers. Look-alike characters (0/o, 1/l/i) are excluded because
	// the ids are embedded in shareable URLs.
	ShortIDAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"
)

// # Cube Schema Objects

const (
	// CoreViewName is the base name of the per-revision consumer view.
	// Localized variants append the locale's view suffix; a materialized
	// variant inserts "_mat" before the suffix.
	CoreViewName = "core_data"

	// FilterTableName is the per-revision reference/description/hierarchy table.
	FilterTableName = "filter_table"

	// MetadataTableName is the per-revision key/value metadata table.
	MetadataTableName = "metadata"

	// NotesTableName is the per-revision footnote table.
	NotesTableName = "all_notes"

	// DataValuesColumn is the canonical fact column holding observation values.
	DataValuesColumn = "data_values"

	// ReferenceColumnSuffix is appended to a fact column name to address the
	// view column holding reference codes rather than display descriptions.
	ReferenceColumnSuffix = "_code"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixFilterTree = "cube:filter_tree:"
	RedisPrefixNoteCodes  = "cube:note_codes:"
)

// # Cache TTLs

const (
	// FilterTreeCacheTTL bounds staleness of the per-revision filter tree
	// cache. Revisions are immutable once published, so this is generous.
	FilterTreeCacheTTL = 6 * time.Hour

	// NoteCodesCacheTTL bounds staleness of the per-revision note code cache.
	NoteCodesCacheTTL = 6 * time.Hour
)
