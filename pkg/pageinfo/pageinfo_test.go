// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package pageinfo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabulo-data/tabulo/pkg/pageinfo"
)

/*
TestTotalPages covers the page-count math, including the zero page size guard.
*/
func TestTotalPages(t *testing.T) {
	tests := []struct {
		name         string
		totalRecords int
		pageSize     int
		want         int
	}{
		{"exact_division", 600, 100, 6},
		{"with_remainder", 601, 100, 7},
		{"single_partial_page", 5, 100, 1},
		{"zero_records", 0, 100, 0},
		{"zero_page_size", 600, 0, 0},
		{"negative_page_size", 600, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageinfo.TotalPages(tt.totalRecords, tt.pageSize))
		})
	}
}

/*
TestNew verifies the composite metadata block, including the floor at one page.
*/
func TestNew(t *testing.T) {
	info := pageinfo.New(2, 100, 250)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 101, info.StartRecord)
	assert.Equal(t, 200, info.EndRecord)

	last := pageinfo.New(3, 100, 250)
	assert.Equal(t, 201, last.StartRecord)
	assert.Equal(t, 250, last.EndRecord)
}

/*
TestNew_EmptyResult verifies an empty result still reports one page.
*/
func TestNew_EmptyResult(t *testing.T) {
	info := pageinfo.New(1, 100, 0)
	assert.Equal(t, 1, info.TotalPages)
	assert.Equal(t, 0, info.StartRecord)
	assert.Equal(t, 0, info.EndRecord)
	assert.Equal(t, 0, info.TotalRecords)
}
