// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package locale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulo-data/tabulo/internal/locale"
)

/*
TestMatch verifies resolution of caller-supplied locale codes to the
supported locale table, including defaulting and closest-match behavior.
*/
func TestMatch(t *testing.T) {
	testCases := []struct {
		name     string
		code     string
		expected string
		wantErr  bool
	}{
		{name: "empty defaults to english", code: "", expected: "en-gb"},
		{name: "exact english", code: "en-GB", expected: "en-gb"},
		{name: "bare language tag", code: "en", expected: "en-gb"},
		{name: "regional variant lands on english", code: "en-US", expected: "en-gb"},
		{name: "welsh", code: "cy-GB", expected: "cy-gb"},
		{name: "bare welsh", code: "cy", expected: "cy-gb"},
		{name: "unsupported language falls back", code: "fr-FR", expected: "en-gb"},
		{name: "garbage tag rejected", code: "not a tag!", wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			loc, err := locale.Match(testCase.code)

			if testCase.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.expected, loc.Code)
		})
	}
}

/*
TestMatchesTag verifies the prefix-tolerant comparison against the mixed tag
lengths found in filter tables.
*/
func TestMatchesTag(t *testing.T) {
	testCases := []struct {
		name     string
		loc      locale.Locale
		tag      string
		expected bool
	}{
		{name: "short tag matches", loc: locale.EnglishGB, tag: "en", expected: true},
		{name: "full tag matches", loc: locale.EnglishGB, tag: "en-GB", expected: true},
		{name: "whitespace tolerated", loc: locale.EnglishGB, tag: " en-gb ", expected: true},
		{name: "welsh tag does not match english", loc: locale.EnglishGB, tag: "cy", expected: false},
		{name: "empty tag never matches", loc: locale.WelshGB, tag: "", expected: false},
		{name: "welsh short tag", loc: locale.WelshGB, tag: "CY", expected: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, testCase.loc.MatchesTag(testCase.tag))
		})
	}
}

/*
TestDataValuesLabel verifies the translated synthetic column names.
*/
func TestDataValuesLabel(t *testing.T) {
	assert.True(t, locale.EnglishGB.IsDataValuesLabel("data values"))
	assert.True(t, locale.WelshGB.IsDataValuesLabel("Gwerthoedd Data"))
	assert.False(t, locale.WelshGB.IsDataValuesLabel("Data Values"))
}

/*
TestFallbackChain verifies that welsh declares english as its fallback and
that the default locale has none.
*/
func TestFallbackChain(t *testing.T) {
	assert.Equal(t, "en-gb", locale.WelshGB.Fallback)
	assert.Empty(t, locale.Default.Fallback)
	require.Len(t, locale.Supported, 2)
	assert.Equal(t, locale.Default, locale.Supported[0])
}
