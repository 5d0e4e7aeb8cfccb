// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package cube

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/internal/platform/dberr"
	"github.com/tabulo-data/tabulo/pkg/slice"
	"github.com/tabulo-data/tabulo/pkg/sqlident"
)

// PostgresRepository implements [Repository] using a pgxpool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository returns a fully wired postgres implementation.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

/*
FetchFilterTable returns every filter-table row of a revision.

Description: Selects the full reference-data snapshot from the revision's
schema. The schema name is the revision id and must be identifier-quoted,
as revision ids are UUIDs containing hyphens.

Parameters:
  - ctx: context.Context
  - revisionID: string (schema name)

Returns:
  - []FilterRow: The immutable reference-data snapshot
  - error: Database execution or scanning errors
*/
func (repository *PostgresRepository) FetchFilterTable(ctx context.Context, revisionID string) ([]FilterRow, error) {

	// Filter tables are small (one row per reference per language), so a
	// plain read is fine here; only consumer result sets use cursors.
	query := `
		SELECT reference, language, fact_table_column, dimension_name, description, hierarchy
		FROM ` + sqlident.QuoteQualified(revisionID, constants.FilterTableName) + `
	`

	rows, err := repository.db.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "fetch_filter_table")
	}
	defer rows.Close()

	// Hydrate the snapshot
	var filterRows []FilterRow
	for rows.Next() {
		r := FilterRow{}
		if err := rows.Scan(&r.Reference, &r.Language, &r.FactTableColumn, &r.DimensionName, &r.Description, &r.Hierarchy); err != nil {
			return nil, dberr.Wrap(err, "scan_filter_row")
		}
		filterRows = append(filterRows, r)
	}

	return filterRows, rows.Err()
}

/*
ResolveCoreView returns the consumer view to query for a locale.

Description: Prefers the materialized variant (core_data_mat_<lang>) when the
cube build produced one, falling back to the plain view (core_data_<lang>).
Materialized variants exist only for revisions large enough that the build
decided the join was worth precomputing.

Parameters:
  - ctx: context.Context
  - revisionID: string (schema name)
  - loc: locale.Locale

Returns:
  - string: The view name to embed in compiled queries
  - error: Catalog lookup failures
*/
func (repository *PostgresRepository) ResolveCoreView(ctx context.Context, revisionID string, loc locale.Locale) (string, error) {
	materialized := constants.CoreViewName + "_mat_" + loc.ViewSuffix

	const query = `SELECT EXISTS (SELECT 1 FROM pg_matviews WHERE schemaname = $1 AND matviewname = $2)`

	var exists bool
	if err := repository.db.QueryRow(ctx, query, revisionID, materialized).Scan(&exists); err != nil {
		return "", dberr.Wrap(err, "resolve_core_view")
	}

	if exists {
		return materialized, nil
	}
	return constants.CoreViewName + "_" + loc.ViewSuffix, nil
}

/*
FetchColumnList returns the precomputed column list for a locale's view.

Description: Reads the metadata key "<view>_<lang>_columns", whose value is a
JSON array of column names selected by the cube build. Revisions built before
the metadata table existed have no such key; those fall back to ["*"].

Parameters:
  - ctx: context.Context
  - revisionID: string (schema name)
  - loc: locale.Locale

Returns:
  - []string: Column names to SELECT, or ["*"]
  - error: Execution or JSON decoding errors
*/
func (repository *PostgresRepository) FetchColumnList(ctx context.Context, revisionID string, loc locale.Locale) ([]string, error) {
	key := constants.CoreViewName + "_" + loc.ViewSuffix + "_columns"

	query := `
		SELECT value
		FROM ` + sqlident.QuoteQualified(revisionID, constants.MetadataTableName) + `
		WHERE key = $1
	`

	var raw string
	err := repository.db.QueryRow(ctx, query, key).Scan(&raw)
	if err != nil {
		// Missing key means the build predates column lists.
		if err == pgx.ErrNoRows {
			return []string{"*"}, nil
		}
		return nil, dberr.Wrap(err, "fetch_column_list")
	}

	var columns []string
	if err := json.Unmarshal([]byte(raw), &columns); err != nil {
		return nil, dberr.Wrap(err, "decode_column_list")
	}

	if len(columns) == 0 {
		return []string{"*"}, nil
	}
	return columns, nil
}

/*
FetchNoteCodes returns the distinct footnote codes of a revision.

Description: The all_notes table stores codes comma-joined per row; this
splits, trims and de-duplicates them preserving first-seen order.

Parameters:
  - ctx: context.Context
  - revisionID: string (schema name)

Returns:
  - []string: Distinct note codes
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FetchNoteCodes(ctx context.Context, revisionID string) ([]string, error) {
	query := `SELECT code FROM ` + sqlident.QuoteQualified(revisionID, constants.NotesTableName)

	rows, err := repository.db.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "fetch_note_codes")
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var joined string
		if err := rows.Scan(&joined); err != nil {
			return nil, dberr.Wrap(err, "scan_note_codes")
		}
		for _, code := range strings.Split(joined, ",") {
			if clean := strings.TrimSpace(code); clean != "" {
				codes = append(codes, clean)
			}
		}
	}

	return slice.Unique(codes), rows.Err()
}

/*
CountRows executes SELECT COUNT(*) over a compiled query.

Parameters:
  - ctx: context.Context
  - query: string (a compiled, already-quoted SELECT)

Returns:
  - int: The row count
  - error: Execution failures
*/
func (repository *PostgresRepository) CountRows(ctx context.Context, query string) (int, error) {
	countQuery := `SELECT COUNT(*) FROM (` + query + `) AS counted`

	var total int
	if err := repository.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "count_rows")
	}

	return total, nil
}
