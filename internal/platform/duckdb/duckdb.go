// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package duckdb manages the analytical engine connection used by the pivot engine.

The cube-build pipeline mirrors every published revision schema into a DuckDB
database file. This package opens an in-process DuckDB instance and attaches
that mirror read-only under a stable catalog name, so compiled queries can be
re-targeted from PostgreSQL to the mirror by prefixing the catalog.

Core Responsibilities:

  - Lifecycle: Open/close the embedded engine via database/sql.
  - Isolation: The mirror is attached READ_ONLY; this core never writes to it.
  - Safety: Pivot executions borrow one connection and always release it.
*/
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	// Registers the "duckdb" database/sql driver.
	_ "github.com/duckdb/duckdb-go/v2"
)

const pingTimeout = 2 * time.Second

// Engine wraps the embedded DuckDB handle together with the catalog name the
// mirrored cube schemas are attached under.
type Engine struct {
	DB      *sql.DB
	Catalog string
}

// Open starts an in-memory DuckDB instance and attaches the mirror database.
//
// # Parameters
//   - ctx: Context for the attach statement.
//   - mirrorPath: Filesystem path of the mirrored cube database. Empty means
//     no mirror is attached (pivot requests will fail at execution time).
//   - catalog: Catalog name the mirror is attached under.
//   - logger: Structured logger for engine events.
func Open(ctx context.Context, mirrorPath, catalog string, logger *slog.Logger) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("duckdb: failed to open engine: %w", err)
	}

	// One pivot stream per connection; keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if mirrorPath != "" {
		attach := fmt.Sprintf("ATTACH %s AS %s (READ_ONLY)", quoteLiteral(mirrorPath), quoteIdent(catalog))
		if _, err := db.ExecContext(ctx, attach); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("duckdb: failed to attach mirror %q: %w", mirrorPath, err)
		}
		logger.Info("duckdb mirror attached",
			slog.String("path", mirrorPath),
			slog.String("catalog", catalog),
		)
	} else {
		logger.Warn("duckdb mirror path not configured; pivot queries will fail")
	}

	return &Engine{DB: db, Catalog: catalog}, nil
}

// Ping verifies that the analytical engine is responsive.
func Ping(ctx context.Context, engine *Engine) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := engine.DB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("duckdb: ping failed: %w", err)
	}

	return nil
}

// Close releases the embedded engine.
func (e *Engine) Close() error {
	return e.DB.Close()
}

// MirrorQuery re-targets a compiled PostgreSQL query at the attached mirror
// by prefixing every reference to the revision schema with the mirror
// catalog, turning "<revision>"."view" into "<catalog>"."<revision>"."view".
func (e *Engine) MirrorQuery(query, revisionID string) string {
	schema := quoteIdent(revisionID)
	return strings.ReplaceAll(query, schema+".", quoteIdent(e.Catalog)+"."+schema+".")
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, s[i])
	}
	return string(append(out, '"'))
}

// quoteLiteral single-quotes a string literal, doubling embedded quotes.
func quoteLiteral(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(append(out, '\''))
}
