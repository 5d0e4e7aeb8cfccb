// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package sqlbuilder compiles consumer query options into SQL.

It produces four layers that compose into one statement: the base SELECT with
its WHERE predicates, an optional ORDER BY from validated sort specs, a
LIMIT/OFFSET paging suffix, and a PIVOT wrapper for the analytical engine.

Every identifier and literal that reaches a statement passes through
pkg/sqlident; the builders never concatenate raw input. Column and value
resolution is delegated to internal/columns, so a compilation failure is
always one of the taxonomy errors in internal/platform/apperr.
*/
package sqlbuilder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tabulo-data/tabulo/internal/columns"
	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/apperr"
	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/pkg/pageinfo"
	"github.com/tabulo-data/tabulo/pkg/sqlident"
)

// FilterOptions is the slice of consumer options the base-query builder
// needs. The query store owns the full request shape; only the compilation
// inputs cross this boundary.
type FilterOptions struct {
	// Filters are the consumer's equality-set predicates, one map per group.
	Filters []map[string][]string

	// UseRawColumnNames selects whether filter keys are raw fact-table
	// column names (true) or localized dimension display names.
	UseRawColumnNames bool

	// UseReferenceValues selects whether filter values are reference codes
	// (true) or localized descriptions that must be resolved back to codes.
	UseReferenceValues bool
}

/*
BuildBaseQuery compiles the base SELECT for one locale of a revision.

Description: Emits `SELECT <cols> FROM "<revision>"."<view>"` with one
`"<column>_code" IN (...)` predicate per filter entry. Filter keys are
resolved per UseRawColumnNames; filter values are resolved from descriptions
to reference codes when UseReferenceValues is false, scoped to the filtered
column's own rows so equal labels under different columns cannot
cross-match. Predicates are emitted in sorted column order so the compiled
text is deterministic for a given request.

Parameters:
  - revisionID: string (revision schema name)
  - view: string (resolved core view name for the locale)
  - loc: locale.Locale
  - selectColumns: []string (precomputed column list; nil/["*"] selects all)
  - filterTable: []cube.FilterRow (revision filter-table snapshot)
  - options: FilterOptions

Returns:
  - string: The compiled SQL text
  - error: ColumnNotFound or ValueNotFound on resolution failure
*/
func BuildBaseQuery(revisionID, view string, loc locale.Locale, selectColumns []string, filterTable []cube.FilterRow, options FilterOptions) (string, error) {
	var builder strings.Builder

	builder.WriteString("SELECT ")
	builder.WriteString(selectList(selectColumns))
	builder.WriteString(" FROM ")
	builder.WriteString(sqlident.QuoteQualified(revisionID, view))

	predicates := make([]string, 0)
	for _, group := range options.Filters {
		// Map iteration order is random; sort keys so the compiled text
		// (and therefore the stored query) is stable per request.
		keys := make([]string, 0, len(group))
		for key := range group {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			predicate, err := buildPredicate(key, group[key], loc, filterTable, options)
			if err != nil {
				return "", err
			}
			predicates = append(predicates, predicate)
		}
	}

	if len(predicates) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(predicates, " AND "))
	}

	return builder.String(), nil
}

// buildPredicate compiles one filter entry into a reference-column IN clause.
func buildPredicate(column string, values []string, loc locale.Locale, filterTable []cube.FilterRow, options FilterOptions) (string, error) {
	factColumn, err := ResolveColumn(column, filterTable, options.UseRawColumnNames)
	if err != nil {
		return "", err
	}

	references := values
	if !options.UseReferenceValues {
		columnRows := columns.RowsForFactColumn(factColumn, loc, filterTable)
		references, err = columns.DescriptionsToReferences(values, columnRows)
		if err != nil {
			return "", err
		}
	}

	referenceColumn := factColumn + constants.ReferenceColumnSuffix
	return sqlident.Quote(referenceColumn) + " IN (" + sqlident.LiteralList(references) + ")", nil
}

// ResolveColumn turns a caller-addressed column into a fact-table column
// name. Raw mode trusts the caller's name after trimming; display mode
// resolves through the filter table. Filter keys and pivot axes share this
// resolution.
func ResolveColumn(column string, filterTable []cube.FilterRow, useRawColumnNames bool) (string, error) {
	if useRawColumnNames {
		if columns.IsDataValuesToken(column) {
			return constants.DataValuesColumn, nil
		}
		return strings.TrimSpace(column), nil
	}
	return columns.DimensionToFactColumn(column, filterTable)
}

// selectList renders the SELECT column list. An empty list or a lone "*"
// entry selects everything.
func selectList(selectColumns []string) string {
	if len(selectColumns) == 0 {
		return "*"
	}
	if len(selectColumns) == 1 && selectColumns[0] == "*" {
		return "*"
	}

	quoted := make([]string, len(selectColumns))
	for i, column := range selectColumns {
		quoted[i] = sqlident.Quote(column)
	}
	return strings.Join(quoted, ", ")
}

/*
ResolveSort validates sort specs and renders an ORDER BY clause.

Description: Each spec is "column|direction". The direction must be ASC or
DESC (case-insensitive) or the call fails with InvalidSortDirection. The
column is tried first as a fact-column-to-dimension lookup, then as a
dimension-to-fact lookup; a column resolving through neither fails with
SortColumnNotFound.

Parameters:
  - sortSpecs: []string ("column|direction" entries)
  - loc: locale.Locale (scopes the fact-to-dimension direction)
  - filterTable: []cube.FilterRow

Returns:
  - string: "ORDER BY ..." clause, or "" when sortSpecs is empty
  - error: InvalidSortDirection or SortColumnNotFound
*/
func ResolveSort(sortSpecs []string, loc locale.Locale, filterTable []cube.FilterRow) (string, error) {
	if len(sortSpecs) == 0 {
		return "", nil
	}

	terms := make([]string, 0, len(sortSpecs))
	for _, spec := range sortSpecs {
		name, direction, found := strings.Cut(spec, "|")
		if !found {
			return "", apperr.InvalidSortDirection(spec)
		}

		direction = strings.ToUpper(strings.TrimSpace(direction))
		if direction != "ASC" && direction != "DESC" {
			return "", apperr.InvalidSortDirection(direction)
		}

		resolved, err := columns.FactColumnToDimension(name, loc, filterTable)
		if err != nil {
			resolved, err = columns.DimensionToFactColumn(name, filterTable)
			if err != nil {
				return "", apperr.SortColumnNotFound(name)
			}
		}

		terms = append(terms, sqlident.Quote(resolved)+" "+direction)
	}

	return "ORDER BY " + strings.Join(terms, ", "), nil
}

/*
ApplyPaging appends a LIMIT/OFFSET suffix to a compiled query.

Description: Computes totalPages from the stored row count, guarding
pageSize 0 as "all rows" (totalPages 0, query returned unchanged). A page
number beyond the last page fails with PageNumberTooHigh; page numbers
below 1 are clamped to the first page.

Parameters:
  - query: string (compiled query, already sorted if requested)
  - pageNumber: int
  - pageSize: int (0 or negative means no paging)
  - totalLines: int (row count recorded at compile time)

Returns:
  - string: The query with paging applied
  - error: PageNumberTooHigh
*/
func ApplyPaging(query string, pageNumber, pageSize, totalLines int) (string, error) {
	clause, err := PagingClause(pageNumber, pageSize, totalLines)
	if err != nil {
		return "", err
	}
	if clause == "" {
		return query, nil
	}
	return query + " " + clause, nil
}

// PagingClause renders the bare "LIMIT n OFFSET m" suffix for a page, with
// the same validation as [ApplyPaging]. It returns "" when pageSize does not
// page the result. The pivot builder takes the clause separately because it
// belongs after the GROUP BY, not after the base query.
func PagingClause(pageNumber, pageSize, totalLines int) (string, error) {
	totalPages := pageinfo.TotalPages(totalLines, pageSize)
	if totalPages == 0 {
		return "", nil
	}

	if pageNumber > totalPages {
		return "", apperr.PageNumberTooHigh(pageNumber, totalPages)
	}
	if pageNumber < 1 {
		pageNumber = 1
	}

	return fmt.Sprintf("LIMIT %d OFFSET %d", pageSize, (pageNumber-1)*pageSize), nil
}

/*
BuildPivotQuery wraps a compiled base query in a PIVOT statement.

Description: Emits `PIVOT (<base>) ON <x> USING first(<value>) GROUP BY <y>`
with compound x axes joined by ` || '&' || `. Both axes are required. Each
resolved axis column must literally appear (case-insensitively) in the base
query's text — a defense against column resolution drifting from the
compiled query — or the call fails with PivotColumnNotInQuery before any
SQL reaches the analytical engine.

Parameters:
  - baseQuery: string (the stored locale query, mirror-qualified)
  - xCols: []string (resolved columns spread across the pivoted header)
  - yCols: []string (resolved columns grouping the pivoted rows)
  - valueColumn: string (aggregated cell column; "" means data_values)
  - pagingClause: string (optional "LIMIT n OFFSET m" suffix)

Returns:
  - string: The PIVOT statement
  - error: PivotAxisRequired or PivotColumnNotInQuery
*/
func BuildPivotQuery(baseQuery string, xCols, yCols []string, valueColumn, pagingClause string) (string, error) {
	if len(xCols) == 0 {
		return "", apperr.PivotAxisRequired("x")
	}
	if len(yCols) == 0 {
		return "", apperr.PivotAxisRequired("y")
	}

	lowered := strings.ToLower(baseQuery)
	for _, column := range append(append([]string{}, xCols...), yCols...) {
		if !strings.Contains(lowered, strings.ToLower(column)) {
			return "", apperr.PivotColumnNotInQuery(column)
		}
	}

	if valueColumn == "" {
		valueColumn = constants.DataValuesColumn
	}

	onParts := make([]string, len(xCols))
	for i, column := range xCols {
		onParts[i] = sqlident.Quote(column)
	}

	groupParts := make([]string, len(yCols))
	for i, column := range yCols {
		groupParts[i] = sqlident.Quote(column)
	}

	statement := fmt.Sprintf(
		"PIVOT (%s) ON %s USING first(%s) GROUP BY %s",
		baseQuery,
		strings.Join(onParts, " || '&' || "),
		sqlident.Quote(valueColumn),
		strings.Join(groupParts, ", "),
	)

	if pagingClause != "" {
		statement += " " + pagingClause
	}

	return statement, nil
}
