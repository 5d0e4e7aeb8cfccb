// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package querystore

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabulo-data/tabulo/internal/platform/dberr"
)

// # PostgreSQL Repository

// postgresRepository implements the [Repository] interface using pgx.
//
// The request_object, query and column_mapping attributes are stored as
// jsonb: they are opaque to SQL (lookup is always by hash or id) and their
// shapes evolve with the request contract, so column-per-field modelling
// would buy nothing.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed query store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const entryColumns = `
	id, hash, dataset_id, revision_id,
	request_object, query, total_lines, column_mapping,
	created_at, updated_at
`

/*
FindByHash returns the entry with the given content hash.

Description: Hash is the cache key, so this is the hot lookup of every
consumer query request. The hash column carries a unique index.

Parameters:
  - context: context.Context
  - hash: string (hex sha256)

Returns:
  - *Entry: The hydrated cache entry
  - error: ErrNotFound if no entry carries the hash
*/
func (repository *postgresRepository) FindByHash(context context.Context, hash string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM query_store WHERE hash = $1`
	return repository.scanOne(context, query, hash)
}

/*
FindByID returns the entry with the given short id.

Description: Ids are what result URLs embed, so this lookup serves every
download/stream request. The id column carries a unique index.

Parameters:
  - context: context.Context
  - id: string (short token)

Returns:
  - *Entry: The hydrated cache entry
  - error: ErrNotFound if the id is unknown
*/
func (repository *postgresRepository) FindByID(context context.Context, id string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM query_store WHERE id = $1`
	return repository.scanOne(context, query, id)
}

/*
IDExists reports whether a short id is already taken.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - bool: True when an entry with the id exists
  - error: Database retrieval failures
*/
func (repository *postgresRepository) IDExists(context context.Context, id string) (bool, error) {
	var exists bool
	err := repository.pool.QueryRow(context,
		`SELECT EXISTS (SELECT 1 FROM query_store WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, dberr.Wrap(err, "check_query_store_id")
	}
	return exists, nil
}

/*
Upsert persists an entry, inserting on a new hash and overwriting on a
known one.

Description: ON CONFLICT (hash) DO UPDATE implements the regenerate-in-place
lifecycle: the id and created_at of the original row survive, everything
compiled is replaced. Concurrent regeneration of the same hash resolves as
last writer wins, which is acceptable because both writers compiled from the
same options.

Parameters:
  - context: context.Context
  - entry: *Entry

Returns:
  - error: Serialization or database persistence failures
*/
func (repository *postgresRepository) Upsert(context context.Context, entry *Entry) error {
	requestObject, err := json.Marshal(entry.RequestObject)
	if err != nil {
		return dberr.Wrap(err, "encode_request_object")
	}
	queries, err := json.Marshal(entry.Query)
	if err != nil {
		return dberr.Wrap(err, "encode_query_map")
	}
	columnMapping, err := json.Marshal(entry.ColumnMapping)
	if err != nil {
		return dberr.Wrap(err, "encode_column_mapping")
	}

	statement := `
		INSERT INTO query_store (
			id, hash, dataset_id, revision_id,
			request_object, query, total_lines, column_mapping,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (hash) DO UPDATE SET
			revision_id    = EXCLUDED.revision_id,
			request_object = EXCLUDED.request_object,
			query          = EXCLUDED.query,
			total_lines    = EXCLUDED.total_lines,
			column_mapping = EXCLUDED.column_mapping,
			updated_at     = EXCLUDED.updated_at
	`

	_, err = repository.pool.Exec(context, statement,
		entry.ID, entry.Hash, entry.DatasetID, entry.RevisionID,
		requestObject, queries, entry.TotalLines, columnMapping,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "upsert_query_store_entry")
	}
	return nil
}

// scanOne runs a single-row entry query and hydrates the jsonb attributes.
func (repository *postgresRepository) scanOne(context context.Context, query string, arg any) (*Entry, error) {
	entry := &Entry{}
	var requestObject, queries, columnMapping []byte

	err := repository.pool.QueryRow(context, query, arg).Scan(
		&entry.ID, &entry.Hash, &entry.DatasetID, &entry.RevisionID,
		&requestObject, &queries, &entry.TotalLines, &columnMapping,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_query_store_entry")
	}

	if err := json.Unmarshal(requestObject, &entry.RequestObject); err != nil {
		return nil, dberr.Wrap(err, "decode_request_object")
	}
	if err := json.Unmarshal(queries, &entry.Query); err != nil {
		return nil, dberr.Wrap(err, "decode_query_map")
	}
	if err := json.Unmarshal(columnMapping, &entry.ColumnMapping); err != nil {
		return nil, dberr.Wrap(err, "decode_column_mapping")
	}

	return entry, nil
}
