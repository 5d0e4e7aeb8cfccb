// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package pivot_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/pivot"
	"github.com/tabulo-data/tabulo/internal/platform/apperr"
	"github.com/tabulo-data/tabulo/internal/platform/dberr"
	"github.com/tabulo-data/tabulo/internal/platform/duckdb"
	"github.com/tabulo-data/tabulo/internal/querystore"
	"github.com/tabulo-data/tabulo/pkg/pointer"
)

// # Test Fakes

// entryRepo serves one fixed entry by id.
type entryRepo struct {
	entry *querystore.Entry
}

func (r *entryRepo) FindByHash(_ context.Context, _ string) (*querystore.Entry, error) {
	return nil, dberr.ErrNotFound
}

func (r *entryRepo) FindByID(_ context.Context, id string) (*querystore.Entry, error) {
	if r.entry != nil && r.entry.ID == id {
		return r.entry, nil
	}
	return nil, dberr.ErrNotFound
}

func (r *entryRepo) IDExists(_ context.Context, _ string) (bool, error) { return false, nil }

func (r *entryRepo) Upsert(_ context.Context, _ *querystore.Entry) error { return nil }

// nilCubeRepo satisfies the cube contract for paths the pivot tests never hit.
type nilCubeRepo struct{}

func (nilCubeRepo) FetchFilterTable(_ context.Context, _ string) ([]cube.FilterRow, error) {
	return nil, nil
}
func (nilCubeRepo) ResolveCoreView(_ context.Context, _ string, _ locale.Locale) (string, error) {
	return "", nil
}
func (nilCubeRepo) FetchColumnList(_ context.Context, _ string, _ locale.Locale) ([]string, error) {
	return nil, nil
}
func (nilCubeRepo) FetchNoteCodes(_ context.Context, _ string) ([]string, error) { return nil, nil }
func (nilCubeRepo) CountRows(_ context.Context, _ string) (int, error)           { return 0, nil }

const baseQuery = `SELECT "region", "year", "data_values" FROM "rev-1"."core_data_en"`

func pivotEntry(options querystore.ConsumerOptions) *querystore.Entry {
	return &querystore.Entry{
		ID:            "abcd2345",
		DatasetID:     "dataset-a",
		RevisionID:    "rev-1",
		RequestObject: options,
		Query:         map[string]string{"en-gb": baseQuery},
		TotalLines:    600,
		ColumnMapping: []cube.ColumnMapping{
			{FactTableColumn: "region", DimensionName: "Region", Language: "en-gb"},
			{FactTableColumn: "year", DimensionName: "Year", Language: "en-gb"},
		},
	}
}

func newPivotService(entry *querystore.Entry) *pivot.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	entries := querystore.NewService(&entryRepo{entry: entry}, nilCubeRepo{}, logger)
	engine := &duckdb.Engine{Catalog: "cube_mirror"}
	return pivot.NewService(engine, entries, nil, logger)
}

// # Tests

/*
TestPrepare_BuildsMirroredPivot checks the stored query is re-targeted at
the mirror catalog and wrapped in a PIVOT statement.
*/
func TestPrepare_BuildsMirroredPivot(t *testing.T) {
	service := newPivotService(pivotEntry(querystore.ConsumerOptions{
		Pivot: &querystore.PivotOptions{X: querystore.StringList{"year"}, Y: querystore.StringList{"region"}},
	}))

	plan, err := service.Prepare(context.Background(), "abcd2345", querystore.PageOptions{Format: "csv"})

	require.NoError(t, err)
	assert.Contains(t, plan.Statement, `FROM "cube_mirror"."rev-1"."core_data_en"`)
	assert.Contains(t, plan.Statement, `ON "year" USING first("data_values") GROUP BY "region"`)
	assert.True(t, plan.Statement[:6] == "PIVOT ")
}

/*
TestPrepare_DisplayNameAxes resolves axis columns through the stored
mapping when the original request used display names.
*/
func TestPrepare_DisplayNameAxes(t *testing.T) {
	service := newPivotService(pivotEntry(querystore.ConsumerOptions{
		Options: querystore.DataOptions{UseRawColumnNames: pointer.To(false)},
		Pivot:   &querystore.PivotOptions{X: querystore.StringList{"Year"}, Y: querystore.StringList{"Region"}},
	}))

	plan, err := service.Prepare(context.Background(), "abcd2345", querystore.PageOptions{})

	require.NoError(t, err)
	assert.Contains(t, plan.Statement, `ON "year"`)
	assert.Contains(t, plan.Statement, `GROUP BY "region"`)
}

/*
TestPrepare_AxisNotInQuery fails before execution when a resolved axis is
absent from the compiled base query.
*/
func TestPrepare_AxisNotInQuery(t *testing.T) {
	entry := pivotEntry(querystore.ConsumerOptions{
		Pivot: &querystore.PivotOptions{X: querystore.StringList{"age_band"}, Y: querystore.StringList{"region"}},
	})
	// age_band resolves raw but the compiled select list never included it.
	service := newPivotService(entry)

	_, err := service.Prepare(context.Background(), "abcd2345", querystore.PageOptions{})

	require.Error(t, err)
	assert.Equal(t, "PIVOT_COLUMN_NOT_IN_QUERY", apperr.As(err).Code)
}

/*
TestPrepare_MissingAxes covers requests whose stored options carry no pivot
block or an incomplete one.
*/
func TestPrepare_MissingAxes(t *testing.T) {
	tests := []struct {
		name    string
		options querystore.ConsumerOptions
	}{
		{"no_pivot_block", querystore.ConsumerOptions{}},
		{"missing_x", querystore.ConsumerOptions{Pivot: &querystore.PivotOptions{Y: querystore.StringList{"region"}}}},
		{"missing_y", querystore.ConsumerOptions{Pivot: &querystore.PivotOptions{X: querystore.StringList{"year"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newPivotService(pivotEntry(tt.options))

			_, err := service.Prepare(context.Background(), "abcd2345", querystore.PageOptions{})

			require.Error(t, err)
			assert.Equal(t, "PIVOT_AXIS_REQUIRED", apperr.As(err).Code)
		})
	}
}

/*
TestPrepare_PagingClause appends LIMIT/OFFSET after the GROUP BY.
*/
func TestPrepare_PagingClause(t *testing.T) {
	service := newPivotService(pivotEntry(querystore.ConsumerOptions{
		Pivot: &querystore.PivotOptions{X: querystore.StringList{"year"}, Y: querystore.StringList{"region"}},
	}))

	plan, err := service.Prepare(context.Background(), "abcd2345", querystore.PageOptions{PageNumber: 2, PageSize: 50})

	require.NoError(t, err)
	assert.Contains(t, plan.Statement, `GROUP BY "region" LIMIT 50 OFFSET 50`)
}
