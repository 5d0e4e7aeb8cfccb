package cube

import (
	"context"

	"github.com/tabulo-data/tabulo/internal/locale"
)

// Repository defines the data access contract for per-revision cube schemas.
type Repository interface {
	// FetchFilterTable returns every filter-table row of a revision.
	FetchFilterTable(ctx context.Context, revisionID string) ([]FilterRow, error)

	// ResolveCoreView returns the name of the consumer view to query for a
	// locale, preferring the materialized variant when it exists.
	ResolveCoreView(ctx context.Context, revisionID string, loc locale.Locale) (string, error)

	// FetchColumnList returns the precomputed column list of a locale's
	// view from the revision's metadata table, or ["*"] when absent.
	FetchColumnList(ctx context.Context, revisionID string, loc locale.Locale) ([]string, error)

	// FetchNoteCodes returns the distinct footnote codes of a revision.
	FetchNoteCodes(ctx context.Context, revisionID string) ([]string, error)

	// CountRows executes SELECT COUNT(*) over a compiled query.
	CountRows(ctx context.Context, query string) (int, error)
}
