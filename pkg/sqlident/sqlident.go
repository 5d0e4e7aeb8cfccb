// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package sqlident provides SQL quoting primitives for dynamically built queries.

Compiled consumer queries interpolate schema names, view names, column names
and filter values that ultimately originate from user input or uploaded data.
Every interpolation must pass through one of these two functions; raw string
concatenation of an unquoted identifier or literal is a defect.
*/
package sqlident

import "strings"

// Quote double-quotes an identifier, doubling any embedded double quotes.
//
// Example:
//
//	Quote(`my"col`) // `"my""col"`
func Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// QuoteQualified quotes each part of a dotted object reference separately.
//
// Example:
//
//	QuoteQualified("rev1", "filter_table") // `"rev1"."filter_table"`
func QuoteQualified(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = Quote(p)
	}
	return strings.Join(quoted, ".")
}

// Literal single-quotes a string literal, doubling any embedded single quotes.
//
// Example:
//
//	Literal("O'Neill") // `'O''Neill'`
func Literal(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

// LiteralList renders a comma-separated list of quoted literals for use
// inside an IN (...) predicate.
func LiteralList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = Literal(v)
	}
	return strings.Join(quoted, ", ")
}
