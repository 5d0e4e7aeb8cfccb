// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package sqlbuilder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/apperr"
	"github.com/tabulo-data/tabulo/internal/sqlbuilder"
)

func censusFilterTable() []cube.FilterRow {
	return []cube.FilterRow{
		{Reference: "W92000004", Language: "en-gb", FactTableColumn: "region", DimensionName: "Region", Description: "Wales"},
		{Reference: "E92000001", Language: "en-gb", FactTableColumn: "region", DimensionName: "Region", Description: "England"},
		{Reference: "W92000004", Language: "cy-gb", FactTableColumn: "region", DimensionName: "Rhanbarth", Description: "Cymru"},
		{Reference: "2021", Language: "en-gb", FactTableColumn: "year", DimensionName: "Year", Description: "2021"},
		{Reference: "popn", Language: "en-gb", FactTableColumn: "population", DimensionName: "Population", Description: "Population"},
		{Reference: "W06000015", Language: "en-gb", FactTableColumn: "area_code", DimensionName: "Local Authority", Description: "Cardiff"},
	}
}

/*
TestBuildBaseQuery_DescriptionFilters verifies that display-value filters are
compiled down to reference codes, never the literal display strings.
*/
func TestBuildBaseQuery_DescriptionFilters(t *testing.T) {
	query, err := sqlbuilder.BuildBaseQuery(
		"rev-2021", "core_data_en", locale.EnglishGB,
		[]string{"region", "region_code", "data_values"},
		censusFilterTable(),
		sqlbuilder.FilterOptions{
			Filters:            []map[string][]string{{"region": {"Wales"}}},
			UseRawColumnNames:  true,
			UseReferenceValues: false,
		},
	)

	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "region", "region_code", "data_values" FROM "rev-2021"."core_data_en" WHERE "region_code" IN ('W92000004')`,
		query,
	)
	assert.NotContains(t, query, "'Wales'")
}

/*
TestBuildBaseQuery_DimensionNames checks the display-name filter path:
keys are resolved through the filter table before the predicate is built.
*/
func TestBuildBaseQuery_DimensionNames(t *testing.T) {
	query, err := sqlbuilder.BuildBaseQuery(
		"rev-2021", "core_data_en", locale.EnglishGB,
		nil,
		censusFilterTable(),
		sqlbuilder.FilterOptions{
			Filters:            []map[string][]string{{"Region": {"E92000001", "W92000004"}}},
			UseRawColumnNames:  false,
			UseReferenceValues: true,
		},
	)

	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "rev-2021"."core_data_en" WHERE "region_code" IN ('E92000001', 'W92000004')`,
		query,
	)
}

/*
TestBuildBaseQuery_MultipleFilters verifies predicates are ANDed and emitted
in sorted column order regardless of map iteration order.
*/
func TestBuildBaseQuery_MultipleFilters(t *testing.T) {
	options := sqlbuilder.FilterOptions{
		Filters: []map[string][]string{{
			"year":   {"2021"},
			"region": {"W92000004"},
		}},
		UseRawColumnNames:  true,
		UseReferenceValues: true,
	}

	for range 5 {
		query, err := sqlbuilder.BuildBaseQuery(
			"rev-2021", "core_data_en", locale.EnglishGB, nil, censusFilterTable(), options)
		require.NoError(t, err)
		assert.Equal(t,
			`SELECT * FROM "rev-2021"."core_data_en" WHERE "region_code" IN ('W92000004') AND "year_code" IN ('2021')`,
			query,
		)
	}
}

/*
TestBuildBaseQuery_ResolutionFailures covers the two compilation failure
modes: an unknown display column and an unknown display value.
*/
func TestBuildBaseQuery_ResolutionFailures(t *testing.T) {
	tests := []struct {
		name    string
		filters []map[string][]string
		rawCols bool
		refVals bool
		code    string
	}{
		{"unknown_dimension", []map[string][]string{{"Altitude": {"high"}}}, false, true, "COLUMN_NOT_FOUND"},
		{"unknown_description", []map[string][]string{{"region": {"Atlantis"}}}, true, false, "VALUE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sqlbuilder.BuildBaseQuery(
				"rev-2021", "core_data_en", locale.EnglishGB, nil, censusFilterTable(),
				sqlbuilder.FilterOptions{
					Filters:            tt.filters,
					UseRawColumnNames:  tt.rawCols,
					UseReferenceValues: tt.refVals,
				},
			)

			require.Error(t, err)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.code, ae.Code)
		})
	}
}

/*
TestBuildBaseQuery_QuotingIsInjectionSafe ensures hostile filter input ends
up quoted, never interpreted.
*/
func TestBuildBaseQuery_QuotingIsInjectionSafe(t *testing.T) {
	query, err := sqlbuilder.BuildBaseQuery(
		"rev-2021", "core_data_en", locale.EnglishGB, nil, censusFilterTable(),
		sqlbuilder.FilterOptions{
			Filters:            []map[string][]string{{`region"; DROP TABLE x; --`: {"'; DELETE FROM y; --"}}},
			UseRawColumnNames:  true,
			UseReferenceValues: true,
		},
	)

	require.NoError(t, err)
	assert.Contains(t, query, `"region""; DROP TABLE x; --_code"`)
	assert.Contains(t, query, `'''; DELETE FROM y; --'`)
}

/*
TestResolveSort exercises both resolution directions and the validation
failures of the sort grammar.
*/
func TestResolveSort(t *testing.T) {
	table := censusFilterTable()

	tests := []struct {
		name     string
		specs    []string
		expected string
		errCode  string
	}{
		{"empty", nil, "", ""},
		{"fact_column_resolves_to_dimension", []string{"population|DESC"}, `ORDER BY "Population" DESC`, ""},
		{"dimension_resolves_to_fact_column", []string{"Local Authority|asc"}, `ORDER BY "area_code" ASC`, ""},
		{"multiple_terms", []string{"population|DESC", "Local Authority|ASC"}, `ORDER BY "Population" DESC, "area_code" ASC`, ""},
		{"bad_direction", []string{"region|SIDEWAYS"}, "", "INVALID_SORT_DIRECTION"},
		{"missing_direction", []string{"region"}, "", "INVALID_SORT_DIRECTION"},
		{"unknown_column", []string{"altitude|ASC"}, "", "SORT_COLUMN_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := sqlbuilder.ResolveSort(tt.specs, locale.EnglishGB, table)

			if tt.errCode != "" {
				require.Error(t, err)
				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, tt.errCode, ae.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, clause)
		})
	}
}

/*
TestApplyPaging checks the LIMIT/OFFSET math and its two guards: a zero page
size pages nothing, and a page past the end is a client error.
*/
func TestApplyPaging(t *testing.T) {
	base := `SELECT * FROM "rev"."core_data_en"`

	tests := []struct {
		name       string
		pageNumber int
		pageSize   int
		totalLines int
		expected   string
		errCode    string
	}{
		{"first_page", 1, 100, 600, base + " LIMIT 100 OFFSET 0", ""},
		{"middle_page", 3, 100, 600, base + " LIMIT 100 OFFSET 200", ""},
		{"zero_page_size_means_all_rows", 1, 0, 600, base, ""},
		{"zero_rows_zero_page_size", 1, 0, 0, base, ""},
		{"clamped_page_number", 0, 100, 600, base + " LIMIT 100 OFFSET 0", ""},
		{"page_too_high", 7, 100, 600, "", "PAGE_NUMBER_TOO_HIGH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := sqlbuilder.ApplyPaging(base, tt.pageNumber, tt.pageSize, tt.totalLines)

			if tt.errCode != "" {
				require.Error(t, err)
				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, tt.errCode, ae.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, query)
		})
	}
}

/*
TestBuildPivotQuery verifies pivot statement assembly, the compound-axis
join, and the pre-execution guards.
*/
func TestBuildPivotQuery(t *testing.T) {
	base := `SELECT "region", "year", "data_values" FROM "rev"."core_data_en"`

	t.Run("single_axes", func(t *testing.T) {
		statement, err := sqlbuilder.BuildPivotQuery(base, []string{"year"}, []string{"region"}, "", "")
		require.NoError(t, err)
		assert.Equal(t,
			`PIVOT (`+base+`) ON "year" USING first("data_values") GROUP BY "region"`,
			statement,
		)
	})

	t.Run("compound_x_axis", func(t *testing.T) {
		statement, err := sqlbuilder.BuildPivotQuery(base, []string{"region", "year"}, []string{"data_values"}, "", "")
		require.NoError(t, err)
		assert.Contains(t, statement, `ON "region" || '&' || "year"`)
	})

	t.Run("paging_clause_appended", func(t *testing.T) {
		statement, err := sqlbuilder.BuildPivotQuery(base, []string{"year"}, []string{"region"}, "", "LIMIT 50 OFFSET 0")
		require.NoError(t, err)
		assert.Contains(t, statement, `GROUP BY "region" LIMIT 50 OFFSET 0`)
	})

	t.Run("axis_column_not_in_query", func(t *testing.T) {
		narrow := `SELECT "region", "data_values" FROM "rev"."core_data_en"`
		_, err := sqlbuilder.BuildPivotQuery(narrow, []string{"year"}, []string{"region"}, "", "")
		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "PIVOT_COLUMN_NOT_IN_QUERY", ae.Code)
	})

	t.Run("missing_axes", func(t *testing.T) {
		_, err := sqlbuilder.BuildPivotQuery(base, nil, []string{"region"}, "", "")
		require.Error(t, err)
		assert.Equal(t, "PIVOT_AXIS_REQUIRED", apperr.As(err).Code)

		_, err = sqlbuilder.BuildPivotQuery(base, []string{"year"}, nil, "", "")
		require.Error(t, err)
		assert.Equal(t, "PIVOT_AXIS_REQUIRED", apperr.As(err).Code)
	})
}
