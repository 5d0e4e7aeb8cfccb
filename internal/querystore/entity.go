// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package querystore implements the content-addressed cache of compiled
consumer queries.

A cache entry is keyed by the sha256 hash of the dataset id plus the
canonicalized consumer options, and carries one compiled SQL query per
supported locale together with a consistency-checked row count. Entries are
regenerated in place when the dataset's current revision no longer matches
the one they were compiled against; they are never deleted.

Core Responsibility:

  - Hashing: Stable content addressing over structurally-equal option objects.
  - Compilation: One base query per locale via the query compiler.
  - Consistency: Cross-locale row-count comparison with tolerant mismatch policy.
  - Identity: Short collision-checked ids for shareable result URLs.
*/
package querystore

import (
	"encoding/json"
	"time"

	"github.com/tabulo-data/tabulo/internal/cube"
)

// # Request Shapes

// DataValueType selects how observation values are rendered in results.
type DataValueType string

const (
	// DataValueRaw renders the stored numeric value untouched.
	DataValueRaw DataValueType = "raw"

	// DataValueFormatted renders the value with its display formatting.
	DataValueFormatted DataValueType = "formatted"

	// DataValueWithNoteCodes appends footnote markers to the value.
	DataValueWithNoteCodes DataValueType = "with_note_codes"
)

// IsValid reports whether t is a recognised [DataValueType] value.
func (t DataValueType) IsValid() bool {
	switch t {
	case DataValueRaw, DataValueFormatted, DataValueWithNoteCodes:
		return true
	}
	return false
}

// StringList is a string slice that also accepts a single JSON string, so
// pivot axes may be written as "year" or ["region", "year"].
type StringList []string

// UnmarshalJSON implements the string-or-list decoding.
func (list *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*list = StringList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*list = StringList(many)
	return nil
}

// DataOptions are the column/value interpretation switches of a request.
// The boolean fields are pointers so "absent" is distinguishable from
// "false": both default to true.
type DataOptions struct {
	UseRawColumnNames  *bool         `json:"use_raw_column_names,omitempty"`
	UseReferenceValues *bool         `json:"use_reference_values,omitempty"`
	DataValueType      DataValueType `json:"data_value_type,omitempty"`
}

// RawColumnNames resolves the use_raw_column_names switch, defaulting true.
func (o DataOptions) RawColumnNames() bool {
	return o.UseRawColumnNames == nil || *o.UseRawColumnNames
}

// ReferenceValues resolves the use_reference_values switch, defaulting true.
func (o DataOptions) ReferenceValues() bool {
	return o.UseReferenceValues == nil || *o.UseReferenceValues
}

// PivotOptions are the optional pivot axes of a request.
type PivotOptions struct {
	X       StringList `json:"x,omitempty"`
	Y       StringList `json:"y,omitempty"`
	Backend string     `json:"backend,omitempty"`
}

// ConsumerOptions is the caller-supplied request shape an entry is hashed
// and compiled from.
type ConsumerOptions struct {
	// Filters hold equality-set predicates: column (raw or display name,
	// per Options) to accepted values (references or descriptions).
	Filters []map[string][]string `json:"filters,omitempty"`

	Options DataOptions   `json:"options,omitempty"`
	Pivot   *PivotOptions `json:"pivot,omitempty"`
}

// # Cache Entry

// Entry is one persisted query store record.
type Entry struct {
	// ID is the short collision-checked token embedded in result URLs.
	ID string `json:"id"`

	// Hash is the content address: sha256(datasetID + canonical options).
	Hash string `json:"hash"`

	DatasetID string `json:"dataset_id"`

	// RevisionID is the revision the queries were compiled against. A
	// lookup whose current revision differs triggers regeneration.
	RevisionID string `json:"revision_id"`

	// RequestObject echoes the options the entry was built from.
	RequestObject ConsumerOptions `json:"request_object"`

	// Query maps locale code to compiled SQL.
	Query map[string]string `json:"query"`

	// TotalLines is the row count, identical across locales in a healthy
	// cube (mismatches are tolerated with a warning).
	TotalLines int `json:"total_lines"`

	// ColumnMapping is the distinct {fact column, dimension, language}
	// set of the revision's filter table at compile time.
	ColumnMapping []cube.ColumnMapping `json:"column_mapping"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MappingRows projects the stored column mapping back into filter rows for
// the column resolver.
func (e *Entry) MappingRows() []cube.FilterRow {
	return cube.MappingRows(e.ColumnMapping)
}

// QueryForLocale returns the compiled SQL for a locale code, falling back
// to the default locale's query when the code is absent from the map.
func (e *Entry) QueryForLocale(code, fallback string) (string, bool) {
	if query, ok := e.Query[code]; ok {
		return query, true
	}
	if fallback != "" {
		if query, ok := e.Query[fallback]; ok {
			return query, true
		}
	}
	return "", false
}

// # Page Options

// PageOptions is the per-request, never persisted view selection applied on
// top of a cache entry.
type PageOptions struct {
	Format     string
	PageNumber int
	PageSize   int
	Sort       []string
	Locale     string
}
