// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package locale defines the enumerated set of publication locales.

Every published revision carries one cube view and one filter-table slice per
supported locale. The cube build uses short language codes for object suffixes
("_en") while consumer requests arrive as BCP-47 tags ("en-GB"), so each
locale record carries both forms explicitly rather than deriving one from the
other by string slicing.
*/
package locale

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/tabulo-data/tabulo/internal/platform/apperr"
)

// Locale describes one supported publication locale.
type Locale struct {
	// Code is the canonical lowercase BCP-47 tag, e.g. "en-gb".
	Code string `json:"code"`

	// Fallback is the Code of the locale used when this one has no content.
	// Empty for the root locale.
	Fallback string `json:"fallback,omitempty"`

	// ViewSuffix is the short language code appended to cube object names,
	// e.g. "en" in "core_data_en" and "core_data_mat_en".
	ViewSuffix string `json:"view_suffix"`

	// DataValuesLabel is the translated display name of the synthetic
	// data-values column for this locale.
	DataValuesLabel string `json:"data_values_label"`
}

// The enumerated locale table. Order matters: the first entry is the default
// and supplies the reference row count during query store regeneration.
var (
	EnglishGB = Locale{
		Code:            "en-gb",
		ViewSuffix:      "en",
		DataValuesLabel: "Data Values",
	}

	WelshGB = Locale{
		Code:            "cy-gb",
		Fallback:        "en-gb",
		ViewSuffix:      "cy",
		DataValuesLabel: "Gwerthoedd Data",
	}
)

// Supported lists every locale the platform publishes.
var Supported = []Locale{EnglishGB, WelshGB}

// Default is the locale assumed when a request does not name one.
var Default = EnglishGB

// matcher resolves arbitrary BCP-47 tags to the closest supported locale,
// so "en", "en-US" and "en-GB" all land on EnglishGB.
var matcher = language.NewMatcher([]language.Tag{
	language.MustParse("en-GB"),
	language.MustParse("cy-GB"),
})

// Match resolves a caller-supplied locale code to a supported [Locale].
//
// An empty code resolves to [Default]. A syntactically invalid tag is a
// client error; any parseable tag resolves to its closest supported locale.
func Match(code string) (Locale, error) {
	if strings.TrimSpace(code) == "" {
		return Default, nil
	}

	tag, err := language.Parse(code)
	if err != nil {
		return Locale{}, apperr.ValidationError("Invalid locale",
			apperr.FieldError{Field: "locale", Message: code})
	}

	_, index, _ := matcher.Match(tag)
	return Supported[index], nil
}

// MatchesTag reports whether a filter-table language tag belongs to this
// locale. Cube builds are inconsistent about tag length ("en" vs "en-GB"),
// so the comparison is prefix-tolerant in both directions.
func (l Locale) MatchesTag(tag string) bool {
	a := strings.ToLower(strings.TrimSpace(tag))
	b := l.Code
	if a == "" {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

// IsDataValuesLabel reports whether the value names this locale's synthetic
// data-values column, case-insensitively.
func (l Locale) IsDataValuesLabel(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), l.DataValuesLabel)
}
