/*
Package cube provides read-only access to the per-revision cube schemas
produced by the upstream cube-build pipeline.

Each published dataset revision owns one PostgreSQL schema named after the
revision id, containing:

  - one consumer view per locale (plus an optional materialized variant),
  - a filter_table of reference/description/hierarchy rows per language,
  - a metadata key/value table with precomputed column lists,
  - an all_notes table of comma-joined footnote codes.

This package never mutates cube schemas. All build/ingest concerns live
upstream; the query engine only reads what the build materialized.
*/
package cube

// FilterRow is one reference-data row of a revision's filter table.
//
// Rows are immutable snapshots: the cube build writes them once per revision
// and this core only ever reads them.
type FilterRow struct {
	// Reference is the coded value, unique within its category.
	Reference string `json:"reference"`

	// Language is the tag of the localized fields ("en" or "en-GB" style;
	// the build is not consistent about tag length).
	Language string `json:"language"`

	// FactTableColumn is the raw, language-independent column name.
	FactTableColumn string `json:"fact_table_column"`

	// DimensionName is the localized display name of the column.
	DimensionName string `json:"dimension_name"`

	// Description is the localized label of the reference value.
	Description string `json:"description"`

	// Hierarchy optionally names the parent Reference. Nil for roots.
	Hierarchy *string `json:"hierarchy"`
}

// ColumnMapping is one distinct {fact column, dimension name, language}
// triple derived from a revision's filter table.
type ColumnMapping struct {
	FactTableColumn string `json:"fact_table_column"`
	DimensionName   string `json:"dimension_name"`
	Language        string `json:"language"`
}

// MappingRows projects column mappings back into filter rows for the column
// resolver, which only reads the three mapped fields. Resolution against a
// stored mapping this way avoids refetching the filter table per request.
func MappingRows(mapping []ColumnMapping) []FilterRow {
	rows := make([]FilterRow, len(mapping))
	for i, triple := range mapping {
		rows[i] = FilterRow{
			FactTableColumn: triple.FactTableColumn,
			DimensionName:   triple.DimensionName,
			Language:        triple.Language,
		}
	}
	return rows
}
