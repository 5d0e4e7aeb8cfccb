// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package querystore_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulo-data/tabulo/internal/querystore"
	"github.com/tabulo-data/tabulo/pkg/pointer"
)

/*
TestStringList_UnmarshalJSON accepts both a bare string and a list for
pivot axes.
*/
func TestStringList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected querystore.StringList
		wantErr  bool
	}{
		{"single_string", `"year"`, querystore.StringList{"year"}, false},
		{"list", `["region", "year"]`, querystore.StringList{"region", "year"}, false},
		{"empty_list", `[]`, querystore.StringList{}, false},
		{"wrong_type", `42`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list querystore.StringList
			err := json.Unmarshal([]byte(tt.payload), &list)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, list)
		})
	}
}

/*
TestDataOptions_Defaults checks that absent switches read as true while an
explicit false is respected.
*/
func TestDataOptions_Defaults(t *testing.T) {
	var absent querystore.DataOptions
	assert.True(t, absent.RawColumnNames())
	assert.True(t, absent.ReferenceValues())

	explicit := querystore.DataOptions{
		UseRawColumnNames:  pointer.To(false),
		UseReferenceValues: pointer.To(false),
	}
	assert.False(t, explicit.RawColumnNames())
	assert.False(t, explicit.ReferenceValues())
}

/*
TestEntry_QueryForLocale covers the locale fallback of the compiled query
map.
*/
func TestEntry_QueryForLocale(t *testing.T) {
	entry := &querystore.Entry{Query: map[string]string{"en-gb": "SELECT 1"}}

	query, ok := entry.QueryForLocale("en-gb", "")
	assert.True(t, ok)
	assert.Equal(t, "SELECT 1", query)

	query, ok = entry.QueryForLocale("cy-gb", "en-gb")
	assert.True(t, ok)
	assert.Equal(t, "SELECT 1", query)

	_, ok = entry.QueryForLocale("cy-gb", "")
	assert.False(t, ok)
}
