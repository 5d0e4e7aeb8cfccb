// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/apperr"
	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/internal/querystore"
	"github.com/tabulo-data/tabulo/internal/sqlbuilder"
	"github.com/tabulo-data/tabulo/pkg/pageinfo"
)

// # Service Layer

// Service turns a query store entry plus page options into a finished
// response stream.
type Service struct {
	pool     *pgxpool.Pool
	entries  *querystore.Service
	cubeRepo cube.Repository
	cache    *redis.Client
	logger   *slog.Logger
}

// NewService constructs a new [Service] with its required collaborators.
// The cache client may be nil; note codes are then fetched per request.
func NewService(pool *pgxpool.Pool, entries *querystore.Service, cubeRepo cube.Repository, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		pool:     pool,
		entries:  entries,
		cubeRepo: cubeRepo,
		cache:    cache,
		logger:   logger,
	}
}

// Plan is a fully validated stream request: everything that can fail with a
// client error has already failed by the time a Plan exists, so the handler
// can safely commit response headers before running it.
type Plan struct {
	Format Format
	Query  string
	Entry  *querystore.Entry
	Locale locale.Locale

	// Meta is populated for the frontend composite format only.
	Meta *FrontendMeta
}

/*
Prepare validates a stream request and compiles its final SQL.

Description: Loads the entry by short id, resolves format and locale,
applies sort resolution and paging on top of the stored locale query, and
assembles the composite metadata when the frontend format is requested. All
taxonomy errors (unknown format, bad sort spec, page out of range) surface
here, before any response byte is written.

Parameters:
  - ctx: context.Context
  - id: string (query store short id)
  - page: querystore.PageOptions

Returns:
  - *Plan: The validated, executable stream plan
  - error: NotFound, compilation or validation failures
*/
func (service *Service) Prepare(ctx context.Context, id string, page querystore.PageOptions) (*Plan, error) {
	entry, err := service.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	format, err := ParseFormat(page.Format)
	if err != nil {
		return nil, err
	}

	loc, err := locale.Match(page.Locale)
	if err != nil {
		return nil, err
	}

	query, ok := entry.QueryForLocale(loc.Code, loc.Fallback)
	if !ok {
		// Regeneration compiles every supported locale, so a missing one
		// means the stored entry predates the locale table.
		return nil, apperr.Internal(errors.New("no compiled query for locale " + loc.Code))
	}

	orderBy, err := sqlbuilder.ResolveSort(page.Sort, loc, entry.MappingRows())
	if err != nil {
		return nil, err
	}
	if orderBy != "" {
		query += " " + orderBy
	}

	// An absent page size means "all rows".
	pageSize := page.PageSize
	if pageSize <= 0 {
		pageSize = entry.TotalLines
	}
	pageNumber := page.PageNumber
	if pageNumber < 1 {
		pageNumber = 1
	}

	query, err = sqlbuilder.ApplyPaging(query, pageNumber, pageSize, entry.TotalLines)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Format: format,
		Query:  query,
		Entry:  entry,
		Locale: loc,
	}

	if format == FormatFrontend {
		noteCodes, err := service.NoteCodes(ctx, entry.RevisionID)
		if err != nil {
			return nil, err
		}
		plan.Meta = &FrontendMeta{
			Dataset: DatasetSummary{
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
Run executes a prepared plan against the relational backend and encodes the
result onto the sink.

Description: Opens one server-side cursor for the plan's query and drains
it through the plan's encoder. The cursor and its connection are released
unconditionally when the stream ends — completion, sink failure or context
cancellation alike — using a cancellation-free context so the release
itself survives an aborted request.

Parameters:
  - ctx: context.Context
  - sink: io.Writer (the response body)
  - plan: *Plan

Returns:
  - error: Cursor, read or sink failures
*/
func (service *Service) Run(ctx context.Context, sink io.Writer, plan *Plan) error {
	source, err := NewCursorSource(ctx, service.pool, plan.Query)
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(context.WithoutCancel(ctx)); err != nil {
			service.logger.Warn("stream_cursor_close_failed",
				slog.String("query_id", plan.Entry.ID),
				slog.Any("error", err),
			)
		}
	}()

	return Encode(ctx, sink, source, plan.Format, plan.Meta)
}

/*
NoteCodes returns the distinct footnote codes of a revision, via the Redis
read-through cache.

Parameters:
  - ctx: context.Context
  - revisionID: string

Returns:
  - []string: Distinct codes in first-seen order
  - error: Database retrieval failures
*/
func (service *Service) NoteCodes(ctx context.Context, revisionID string) ([]string, error) {
	cacheKey := constants.RedisPrefixNoteCodes + revisionID

	if service.cache != nil {
		if cached, err := service.cache.Get(ctx, cacheKey).Result(); err == nil {
			var codes []string
			if err := json.Unmarshal([]byte(cached), &codes); err == nil {
				return codes, nil
			}
		}
	}

	codes, err := service.cubeRepo.FetchNoteCodes(ctx, revisionID)
	if err != nil {
		return nil, err
	}

	if service.cache != nil {
		if payload, err := json.Marshal(codes); err == nil {
			if err := service.cache.Set(ctx, cacheKey, payload, constants.NoteCodesCacheTTL).Err(); err != nil {
				service.logger.Warn("note_codes_cache_write_failed",
					slog.String("revision_id", revisionID),
					slog.Any("error", err),
				)
			}
		}
	}

	return codes, nil
}

