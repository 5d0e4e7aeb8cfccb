// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

// Package pageinfo provides shared types and helpers for paginated results.
//
// # Overview
//
// It standardizes how page math is performed against a known total row count
// and how the resulting metadata is delivered in the composite response
// payload.
package pageinfo

// PageInfo is the pagination metadata block of the composite payload.
type PageInfo struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	TotalPages   int `json:"total_pages"`
	TotalRecords int `json:"total_records"`
	StartRecord  int `json:"start_record"`
	EndRecord    int `json:"end_record"`
}

// TotalPages returns the number of pages needed for totalRecords rows at
// pageSize rows per page. A non-positive pageSize yields 0 rather than a
// division by zero.
func TotalPages(totalRecords, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (totalRecords + pageSize - 1) / pageSize
}

// New constructs the metadata block for one page of a result set.
//
// TotalPages is floored at 1 so an empty result still reads as a single
// (empty) page in consumer UIs.
func New(page, pageSize, totalRecords int) PageInfo {
	totalPages := TotalPages(totalRecords, pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	start := 0
	end := 0
	if totalRecords > 0 && pageSize > 0 {
		start = (page-1)*pageSize + 1
		end = page * pageSize
		if end > totalRecords {
			end = totalRecords
		}
	}

	return PageInfo{
		CurrentPage:  page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		TotalRecords: totalRecords,
		StartRecord:  start,
		EndRecord:    end,
	}
}
