// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package filtertree

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/constants"
)

// Service builds per-revision filter forests with a Redis read-through cache.
type Service struct {
	cubeRepo cube.Repository
	cache    *redis.Client
	logger   *slog.Logger
}

// NewService returns a fully wired filter-tree service. The cache client may
// be nil, in which case every request rebuilds from the filter table.
func NewService(cubeRepo cube.Repository, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		cubeRepo: cubeRepo,
		cache:    cache,
		logger:   logger,
	}
}

/*
BuildForRevision returns one [FilterTree] per fact column of a revision,
localized to the requested locale.

Description: Serves from Redis when a cached copy exists; otherwise fetches
the revision's filter table, slices it per locale, builds one forest per
fact column and caches the result. Cache failures are logged and ignored —
the tree is always rebuildable from the filter table.

Parameters:
  - ctx: context.Context
  - revisionID: string (revision schema name)
  - loc: locale.Locale

Returns:
  - []FilterTree: One forest per fact column, in filter-table order
  - error: Database retrieval failures
*/
func (service *Service) BuildForRevision(ctx context.Context, revisionID string, loc locale.Locale) ([]FilterTree, error) {
	cacheKey := constants.RedisPrefixFilterTree + revisionID + ":" + loc.Code

	// 1. Cache probe
	if service.cache != nil {
		if cached, err := service.cache.Get(ctx, cacheKey).Result(); err == nil {
			var trees []FilterTree
			if err := json.Unmarshal([]byte(cached), &trees); err == nil {
				return trees, nil
			}
			// Corrupt entry: fall through to a rebuild that overwrites it.
		}
	}

	// 2. Rebuild from the filter table
	rows, err := service.cubeRepo.FetchFilterTable(ctx, revisionID)
	if err != nil {
		return nil, err
	}

	trees := BuildAll(rows, loc)

	// 3. Cache refresh (best effort)
	if service.cache != nil {
		if payload, err := json.Marshal(trees); err == nil {
			if err := service.cache.Set(ctx, cacheKey, payload, constants.FilterTreeCacheTTL).Err(); err != nil {
				service.logger.Warn("filter_tree_cache_write_failed",
					slog.String("revision_id", revisionID),
					slog.Any("error", err),
				)
			}
		}
	}

	return trees, nil
}

// BuildAll slices a filter-table snapshot per locale and builds one forest
// per fact column, preserving the snapshot's column order.
func BuildAll(rows []cube.FilterRow, loc locale.Locale) []FilterTree {
	byColumn := make(map[string][]cube.FilterRow)
	columnOrder := make([]string, 0)

	for _, row := range rows {
		if !loc.MatchesTag(row.Language) {
			continue
		}
		key := strings.ToLower(row.FactTableColumn)
		if _, seen := byColumn[key]; !seen {
			columnOrder = append(columnOrder, key)
		}
		byColumn[key] = append(byColumn[key], row)
	}

	trees := make([]FilterTree, 0, len(columnOrder))
	for _, column := range columnOrder {
		columnRows := byColumn[column]
		trees = append(trees, Build(columnRows[0].FactTableColumn, columnRows[0].DimensionName, columnRows))
	}

	return trees
}
