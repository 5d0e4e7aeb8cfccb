// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package querystore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/apperr"
	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/internal/platform/dberr"
	"github.com/tabulo-data/tabulo/internal/sqlbuilder"
	"github.com/tabulo-data/tabulo/pkg/canonical"
)

// mintRetries bounds the collision loop when generating short ids. With an
// 8-char id over a 31-char alphabet, two collisions in a row already means
// something is wrong with the id column.
const mintRetries = 5

// # Service Layer

// Service orchestrates the content-addressed query cache.
type Service struct {
	repo     Repository
	cubeRepo cube.Repository
	logger   *slog.Logger
}

// NewService constructs a new [Service] with its required collaborators.
func NewService(repo Repository, cubeRepo cube.Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cubeRepo: cubeRepo,
		logger:   logger,
	}
}

/*
Hash computes the content address of a request.

Description: The address is sha256 over the dataset id concatenated with the
canonical JSON rendering of the options, so two structurally equal option
objects produce the same hash regardless of key order or encoding details.

Parameters:
  - datasetID: string
  - options: ConsumerOptions

Returns:
  - string: Hex-encoded sha256 digest
  - error: Serialization failures
*/
func Hash(datasetID string, options ConsumerOptions) (string, error) {
	payload, err := canonical.Marshal(options)
	if err != nil {
		return "", apperr.Internal(err)
	}

	digest := sha256.Sum256(append([]byte(datasetID), payload...))
	return hex.EncodeToString(digest[:]), nil
}

/*
GetOrCreate resolves the cache entry for a request, building it on a miss.

Description: Looks the entry up by content hash. A hit whose stored revision
still matches the dataset's current revision is returned as-is, without
recompiling anything. A miss, or a hit compiled against a superseded
revision, falls through to [Service.Regenerate].

Parameters:
  - ctx: context.Context
  - datasetID: string
  - currentRevisionID: string (the dataset's live revision schema)
  - options: ConsumerOptions

Returns:
  - *Entry: The fresh or cached entry
  - error: Compilation, counting or persistence failures
*/
func (service *Service) GetOrCreate(ctx context.Context, datasetID, currentRevisionID string, options ConsumerOptions) (*Entry, error) {
	hash, err := Hash(datasetID, options)
	if err != nil {
		return nil, err
	}

	existing, err := service.repo.FindByHash(ctx, hash)
	switch {
	case err == nil:
		if existing.RevisionID == currentRevisionID {
			return existing, nil
		}
		// Stale: the dataset has moved to a new revision since this entry
		// was compiled. Rebuild in place, keeping the public id.
		return service.Regenerate(ctx, datasetID, currentRevisionID, options, existing)
	case errors.Is(err, dberr.ErrNotFound):
		return service.Regenerate(ctx, datasetID, currentRevisionID, options, nil)
	default:
		return nil, err
	}
}

/*
Regenerate compiles and persists a cache entry for every supported locale.

Description: Fetches the revision's filter table once, then per locale picks
the core view, loads its precomputed column list, compiles the base query
and counts its rows. Counts are compared across locales: a mismatch is
logged and tolerated, with the first observed count winning — a per-locale
cube desync should degrade one locale, not fail the request. The column
mapping is the distinct {fact column, dimension, language} set of the
filter table. A nil existing entry mints a fresh collision-checked id;
otherwise the existing id survives the overwrite.

Parameters:
  - ctx: context.Context
  - datasetID: string
  - currentRevisionID: string
  - options: ConsumerOptions
  - existing: *Entry (nil on a cache miss)

Returns:
  - *Entry: The persisted entry
  - error: Compilation, counting or persistence failures
*/
func (service *Service) Regenerate(ctx context.Context, datasetID, currentRevisionID string, options ConsumerOptions, existing *Entry) (*Entry, error) {
	hash, err := Hash(datasetID, options)
	if err != nil {
		return nil, err
	}

	filterTable, err := service.cubeRepo.FetchFilterTable(ctx, currentRevisionID)
	if err != nil {
		return nil, err
	}

	filterOptions := sqlbuilder.FilterOptions{
		Filters:            options.Filters,
		UseRawColumnNames:  options.Options.RawColumnNames(),
		UseReferenceValues: options.Options.ReferenceValues(),
	}

	// Compile and count per locale. Every supported locale is resolved
	// before the entry is returned, so a caller never observes an entry
	// with some locales compiled and others missing.
	queries := make(map[string]string, len(locale.Supported))
	totalLines := -1
	for _, loc := range locale.Supported {
		view, err := service.cubeRepo.ResolveCoreView(ctx, currentRevisionID, loc)
		if err != nil {
			return nil, err
		}

		selectColumns, err := service.cubeRepo.FetchColumnList(ctx, currentRevisionID, loc)
		if err != nil {
			return nil, err
		}

		query, err := sqlbuilder.BuildBaseQuery(currentRevisionID, view, loc, selectColumns, filterTable, filterOptions)
		if err != nil {
			return nil, err
		}
		queries[loc.Code] = query

		count, err := service.cubeRepo.CountRows(ctx, query)
		if err != nil {
			return nil, err
		}

		if totalLines < 0 {
			totalLines = count
			continue
		}
		if count != totalLines {
			service.logger.Warn("locale_row_count_mismatch",
				slog.String("dataset_id", datasetID),
				slog.String("revision_id", currentRevisionID),
				slog.String("locale", loc.Code),
				slog.Int("expected", totalLines),
				slog.Int("actual", count),
			)
		}
	}

	entry := &Entry{
		Hash:          hash,
		DatasetID:     datasetID,
		RevisionID:    currentRevisionID,
		RequestObject: options,
		Query:         queries,
		TotalLines:    totalLines,
		ColumnMapping: distinctColumnMapping(filterTable),
		UpdatedAt:     time.Now().UTC(),
	}

	if existing != nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.CreatedAt = entry.UpdatedAt
		entry.ID, err = service.mintID(ctx)
		if err != nil {
			return nil, err
		}
	}

	if err := service.repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

/*
GetByID returns the entry a result URL refers to.

Parameters:
  - ctx: context.Context
  - id: string (short token)

Returns:
  - *Entry: The hydrated cache entry
  - error: ErrNotFound if the id is unknown
*/
func (service *Service) GetByID(ctx context.Context, id string) (*Entry, error) {
	return service.repo.FindByID(ctx, id)
}

// mintID generates a short id over the restricted alphabet, retrying on
// collision against already persisted ids.
func (service *Service) mintID(ctx context.Context) (string, error) {
	for range mintRetries {
		id, err := gonanoid.Generate(constants.ShortIDAlphabet, constants.ShortIDLength)
		if err != nil {
			return "", apperr.Internal(err)
		}

		taken, err := service.repo.IDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", apperr.Internal(errors.New("query store id space exhausted"))
}

// distinctColumnMapping reduces the filter table to its distinct
// {fact column, dimension, language} triples, preserving first-seen order.
func distinctColumnMapping(filterTable []cube.FilterRow) []cube.ColumnMapping {
	seen := make(map[cube.ColumnMapping]bool, len(filterTable))
	mapping := make([]cube.ColumnMapping, 0)

	for _, row := range filterTable {
		triple := cube.ColumnMapping{
			FactTableColumn: row.FactTableColumn,
			DimensionName:   row.DimensionName,
			Language:        row.Language,
		}
		if seen[triple] {
			continue
		}
		seen[triple] = true
		mapping = append(mapping, triple)
	}

	return mapping
}
