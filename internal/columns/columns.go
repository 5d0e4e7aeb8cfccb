/*
Package columns resolves between raw fact-table column names and localized
dimension display names.

Consumers may address a column either by its raw fact-table name ("area_code")
or by its localized display name ("Local Authority"). The filter table carries
the mapping in both directions; this package is the only place that mapping
is interpreted. All functions are pure: they operate on a filter-table
snapshot passed in and hold no state.

The one column that never appears in the filter table is the synthetic
data-values column. Both resolution directions special-case it so a request
may say "data", "data_values" or the locale's translated label and always
land on the canonical column.
*/
package columns

import (
	"strings"

	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/apperr"
	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/pkg/slice"
)

// IsDataValuesToken reports whether the name addresses the synthetic
// data-values column in any of its accepted spellings: the literal tokens
// "data" and "data_values", or any supported locale's translated label.
func IsDataValuesToken(name string) bool {
	clean := strings.TrimSpace(name)
	if strings.EqualFold(clean, "data") || strings.EqualFold(clean, constants.DataValuesColumn) {
		return true
	}
	for _, loc := range locale.Supported {
		if loc.IsDataValuesLabel(clean) {
			return true
		}
	}
	return false
}

// DimensionToFactColumn resolves a localized display name to its raw
// fact-table column name. Matching is case-insensitive and
// whitespace-trimmed across every language's rows.
func DimensionToFactColumn(name string, filterTable []cube.FilterRow) (string, error) {
	if IsDataValuesToken(name) {
		return constants.DataValuesColumn, nil
	}

	clean := strings.TrimSpace(name)
	for _, row := range filterTable {
		if strings.EqualFold(strings.TrimSpace(row.DimensionName), clean) {
			return row.FactTableColumn, nil
		}
	}

	return "", apperr.ColumnNotFound(name)
}

// FactColumnToDimension resolves a raw fact-table column name to its display
// name in the given locale.
func FactColumnToDimension(name string, loc locale.Locale, filterTable []cube.FilterRow) (string, error) {
	if IsDataValuesToken(name) {
		return loc.DataValuesLabel, nil
	}

	clean := strings.TrimSpace(name)
	for _, row := range filterTable {
		if strings.EqualFold(strings.TrimSpace(row.FactTableColumn), clean) && loc.MatchesTag(row.Language) {
			return row.DimensionName, nil
		}
	}

	return "", apperr.ColumnNotFound(name)
}

// RowsForFactColumn returns the filter-table rows belonging to one fact
// column in one locale. The result scopes description lookups so equal
// labels under different columns cannot cross-match.
func RowsForFactColumn(factColumn string, loc locale.Locale, filterTable []cube.FilterRow) []cube.FilterRow {
	return slice.Filter(filterTable, func(row cube.FilterRow) bool {
		return strings.EqualFold(strings.TrimSpace(row.FactTableColumn), strings.TrimSpace(factColumn)) &&
			loc.MatchesTag(row.Language)
	})
}

// DescriptionsToReferences resolves display values to their reference codes
// within one column's rows. Matching is case-insensitive.
//
// The operation is all-or-nothing: the first value with no match aborts with
// ValueNotFound and no partial result is returned.
func DescriptionsToReferences(values []string, columnRows []cube.FilterRow) ([]string, error) {
	references := make([]string, 0, len(values))

	for _, value := range values {
		clean := strings.TrimSpace(value)
		found := false
		for _, row := range columnRows {
			if strings.EqualFold(strings.TrimSpace(row.Description), clean) {
				references = append(references, row.Reference)
				found = true
				break
			}
		}
		if !found {
			return nil, apperr.ValueNotFound(value)
		}
	}

	return references, nil
}
