// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package pivot executes dynamic PIVOT queries against the analytical engine.

The relational backend has no PIVOT statement, so pivoted views run on the
DuckDB mirror of the cube schemas instead: the stored base query is
re-targeted at the mirror catalog, wrapped in a PIVOT statement and executed
there. Results flow through the same streaming encoders as plain queries.
*/
package pivot

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/apperr"
	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/internal/platform/dberr"
	"github.com/tabulo-data/tabulo/internal/platform/duckdb"
	"github.com/tabulo-data/tabulo/internal/querystore"
	"github.com/tabulo-data/tabulo/internal/sqlbuilder"
	"github.com/tabulo-data/tabulo/internal/stream"
	"github.com/tabulo-data/tabulo/pkg/pageinfo"
)

// # Service Layer

// Service builds and runs pivot streams for query store entries.
type Service struct {
	engine  *duckdb.Engine
	entries *querystore.Service
	streams *stream.Service
	logger  *slog.Logger
}

// NewService constructs a new [Service] with its required collaborators.
func NewService(engine *duckdb.Engine, entries *querystore.Service, streams *stream.Service, logger *slog.Logger) *Service {
	return &Service{
		engine:  engine,
		entries: entries,
		streams: streams,
		logger:  logger,
	}
}

// Plan is a fully validated pivot request, ready to execute on the
// analytical engine.
type Plan struct {
	Format    stream.Format
	Statement string
	Entry     *querystore.Entry

	// Meta is populated for the frontend composite format only.
	Meta *stream.FrontendMeta
}

/*
Prepare validates a pivot request and compiles its PIVOT statement.

Description: Loads the entry, requires the stored request to carry pivot
axes, re-targets the locale's compiled query at the mirror catalog and
resolves the axis columns the same way filter columns were resolved at
compile time (raw or display names, per the stored request). Axis columns
are checked for literal presence in the base query before anything reaches
the engine. All taxonomy errors surface here, before response bytes flow.

Parameters:
  - ctx: context.Context
  - id: string (query store short id)
  - page: querystore.PageOptions

Returns:
  - *Plan: The validated, executable pivot plan
  - error: NotFound, axis or compilation failures
*/
func (service *Service) Prepare(ctx context.Context, id string, page querystore.PageOptions) (*Plan, error) {
	entry, err := service.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pivotOptions := entry.RequestObject.Pivot
	if pivotOptions == nil || len(pivotOptions.X) == 0 {
		return nil, apperr.PivotAxisRequired("x")
	}
	if len(pivotOptions.Y) == 0 {
		return nil, apperr.PivotAxisRequired("y")
	}

	format, err := stream.ParseFormat(page.Format)
	if err != nil {
		return nil, err
	}

	loc, err := locale.Match(page.Locale)
	if err != nil {
		return nil, err
	}

	baseQuery, ok := entry.QueryForLocale(loc.Code, loc.Fallback)
	if !ok {
		return nil, apperr.NotFound("Compiled query")
	}
	mirrored := service.engine.MirrorQuery(baseQuery, entry.RevisionID)

	// Axis names follow the naming mode of the original request.
	useRaw := entry.RequestObject.Options.RawColumnNames()
	mappingRows := entry.MappingRows()

	xCols, err := resolveAxis(pivotOptions.X, mappingRows, useRaw)
	if err != nil {
		return nil, err
	}
	yCols, err := resolveAxis(pivotOptions.Y, mappingRows, useRaw)
	if err != nil {
		return nil, err
	}

	// Paging applies to the pivoted rows, whose count is only known to the
	// engine, so the page number cannot be range-checked here.
	pageNumber := page.PageNumber
	if pageNumber < 1 {
		pageNumber = 1
	}
	pagingClause := ""
	if page.PageSize > 0 {
		pagingClause = fmt.Sprintf("LIMIT %d OFFSET %d", page.PageSize, (pageNumber-1)*page.PageSize)
	}

	statement, err := sqlbuilder.BuildPivotQuery(mirrored, xCols, yCols, constants.DataValuesColumn, pagingClause)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Format:    format,
		Statement: statement,
		Entry:     entry,
	}

	if format == stream.FormatFrontend {
		noteCodes, err := service.streams.NoteCodes(ctx, entry.RevisionID)
		if err != nil {
			return nil, err
		}
		pageSize := page.PageSize
		if pageSize <= 0 {
			pageSize = entry.TotalLines
		}
		plan.Meta = &stream.FrontendMeta{
			Dataset: stream.DatasetSummary{
				ID:         entry.DatasetID,
				RevisionID: entry.RevisionID,
				QueryID:    entry.ID,
			},
			Filters:       entry.RequestObject.Filters,
			NoteCodes:     noteCodes,
			Locale:        loc,
			ColumnMapping: entry.ColumnMapping,
			PageInfo:      pageinfo.New(pageNumber, pageSize, entry.TotalLines),
		}
	}

	return plan, nil
}

/*
Run executes a prepared pivot plan on the analytical engine and encodes the
result onto the sink.

Description: Borrows one engine connection for the duration of the stream.
The connection is returned unconditionally when the stream ends, whatever
the outcome — the release hook rides on the source's Close.

Parameters:
  - ctx: context.Context
  - sink: io.Writer (the response body)
  - plan: *Plan

Returns:
  - error: Engine execution, read or sink failures
*/
func (service *Service) Run(ctx context.Context, sink io.Writer, plan *Plan) error {
	conn, err := service.engine.DB.Conn(ctx)
	if err != nil {
		return dberr.Wrap(err, "acquire_pivot_connection")
	}

	rows, err := conn.QueryContext(ctx, plan.Statement)
	if err != nil {
		_ = conn.Close()
		return dberr.Wrap(err, "execute_pivot_query")
	}

	source, err := stream.NewRowsSource(rows, func() { _ = conn.Close() })
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(context.WithoutCancel(ctx)); err != nil {
			service.logger.Warn("pivot_source_close_failed",
				slog.String("query_id", plan.Entry.ID),
				slog.Any("error", err),
			)
		}
	}()

	return stream.Encode(ctx, sink, source, plan.Format, plan.Meta)
}

// resolveAxis maps requested axis names to fact-table columns using the
// stored column mapping.
func resolveAxis(names querystore.StringList, mappingRows []cube.FilterRow, useRaw bool) ([]string, error) {
	resolved := make([]string, 0, len(names))
	for _, name := range names {
		column, err := sqlbuilder.ResolveColumn(name, mappingRows, useRaw)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, column)
	}
	return resolved, nil
}
