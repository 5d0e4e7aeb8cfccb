// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package filtertree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/filtertree"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/pkg/pointer"
)

func geographyRows() []cube.FilterRow {
	return []cube.FilterRow{
		{Reference: "K04000001", Language: "en-gb", FactTableColumn: "geography", DimensionName: "Geography", Description: "England and Wales"},
		{Reference: "E92000001", Language: "en-gb", FactTableColumn: "geography", DimensionName: "Geography", Description: "England", Hierarchy: pointer.To("K04000001")},
		{Reference: "W92000004", Language: "en-gb", FactTableColumn: "geography", DimensionName: "Geography", Description: "Wales", Hierarchy: pointer.To("K04000001")},
		{Reference: "W06000015", Language: "en-gb", FactTableColumn: "geography", DimensionName: "Geography", Description: "Cardiff", Hierarchy: pointer.To("W92000004")},
	}
}

func countNodes(values []filtertree.FilterValues) int {
	total := 0
	for _, value := range values {
		total += 1 + countNodes(value.Children)
	}
	return total
}

/*
TestBuild_HierarchyAttachment verifies that children end up nested under
their parents and that only parentless rows become roots.
*/
func TestBuild_HierarchyAttachment(t *testing.T) {
	tree := filtertree.Build("geography", "Geography", geographyRows())

	assert.Equal(t, "geography", tree.FactTableColumn)
	assert.Equal(t, "Geography", tree.ColumnName)
	require.Len(t, tree.Values, 1)

	root := tree.Values[0]
	assert.Equal(t, "K04000001", root.Reference)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "E92000001", root.Children[0].Reference)
	assert.Equal(t, "W92000004", root.Children[1].Reference)

	wales := root.Children[1]
	require.Len(t, wales.Children, 1)
	assert.Equal(t, "Cardiff", wales.Children[0].Description)
}

/*
TestBuild_NodeCountMatchesRows checks that building a forest from an
acyclic filter table neither drops nor duplicates members.
*/
func TestBuild_NodeCountMatchesRows(t *testing.T) {
	rows := geographyRows()
	tree := filtertree.Build("geography", "Geography", rows)

	assert.Equal(t, len(rows), countNodes(tree.Values))
}

/*
TestBuild_OrphansDropped ensures members whose parent reference is absent
from the table are omitted silently instead of being promoted to roots.
*/
func TestBuild_OrphansDropped(t *testing.T) {
	rows := []cube.FilterRow{
		{Reference: "2021", Language: "en-gb", FactTableColumn: "year", DimensionName: "Year", Description: "2021"},
		{Reference: "2021-q1", Language: "en-gb", FactTableColumn: "year", DimensionName: "Year", Description: "Q1 2021", Hierarchy: pointer.To("missing-parent")},
	}

	tree := filtertree.Build("year", "Year", rows)

	require.Len(t, tree.Values, 1)
	assert.Equal(t, "2021", tree.Values[0].Reference)
	assert.Empty(t, tree.Values[0].Children)
}

/*
TestBuild_FlatColumn verifies single-level columns produce a forest of
childless roots in table order.
*/
func TestBuild_FlatColumn(t *testing.T) {
	rows := []cube.FilterRow{
		{Reference: "2021", Language: "en-gb", FactTableColumn: "year", DimensionName: "Year", Description: "2021"},
		{Reference: "2022", Language: "en-gb", FactTableColumn: "year", DimensionName: "Year", Description: "2022"},
		{Reference: "2023", Language: "en-gb", FactTableColumn: "year", DimensionName: "Year", Description: "2023"},
	}

	tree := filtertree.Build("year", "Year", rows)

	require.Len(t, tree.Values, 3)
	for index, row := range rows {
		assert.Equal(t, row.Reference, tree.Values[index].Reference)
		assert.Empty(t, tree.Values[index].Children)
	}
}

/*
TestBuildAll_LocaleSlicing checks that forests are built from rows of the
requested locale only and keep the filter table's column order.
*/
func TestBuildAll_LocaleSlicing(t *testing.T) {
	rows := []cube.FilterRow{
		{Reference: "W92000004", Language: "en-gb", FactTableColumn: "geography", DimensionName: "Geography", Description: "Wales"},
		{Reference: "W92000004", Language: "cy-gb", FactTableColumn: "geography", DimensionName: "Daearyddiaeth", Description: "Cymru"},
		{Reference: "2021", Language: "en-gb", FactTableColumn: "year", DimensionName: "Year", Description: "2021"},
		{Reference: "2021", Language: "cy-gb", FactTableColumn: "year", DimensionName: "Blwyddyn", Description: "2021"},
	}

	english := filtertree.BuildAll(rows, locale.EnglishGB)
	require.Len(t, english, 2)
	assert.Equal(t, "Geography", english[0].ColumnName)
	assert.Equal(t, "Wales", english[0].Values[0].Description)
	assert.Equal(t, "Year", english[1].ColumnName)

	welsh := filtertree.BuildAll(rows, locale.WelshGB)
	require.Len(t, welsh, 2)
	assert.Equal(t, "Daearyddiaeth", welsh[0].ColumnName)
	assert.Equal(t, "Cymru", welsh[0].Values[0].Description)
	assert.Equal(t, "Blwyddyn", welsh[1].ColumnName)
}
