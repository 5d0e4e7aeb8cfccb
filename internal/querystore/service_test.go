// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package querystore_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulo-data/tabulo/internal/cube"
	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/internal/platform/dberr"
	"github.com/tabulo-data/tabulo/internal/querystore"
)

// # Test Fakes

// fakeCubeRepo serves a fixed filter table and per-locale row counts.
type fakeCubeRepo struct {
	filterTable []cube.FilterRow
	counts      map[string]int // keyed by view suffix ("en", "cy")
	countCalls  int
}

func (f *fakeCubeRepo) FetchFilterTable(_ context.Context, _ string) ([]cube.FilterRow, error) {
	return f.filterTable, nil
}

func (f *fakeCubeRepo) ResolveCoreView(_ context.Context, _ string, loc locale.Locale) (string, error) {
	return constants.CoreViewName + "_" + loc.ViewSuffix, nil
}

func (f *fakeCubeRepo) FetchColumnList(_ context.Context, _ string, _ locale.Locale) ([]string, error) {
	return []string{"*"}, nil
}

func (f *fakeCubeRepo) FetchNoteCodes(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (f *fakeCubeRepo) CountRows(_ context.Context, query string) (int, error) {
	f.countCalls++
	for suffix, count := range f.counts {
		if strings.Contains(query, constants.CoreViewName+"_"+suffix) {
			return count, nil
		}
	}
	return 0, nil
}

// fakeRepo is an in-memory query store.
type fakeRepo struct {
	byHash       map[string]*querystore.Entry
	idCollisions int // IDExists answers true this many times
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byHash: map[string]*querystore.Entry{}}
}

func (f *fakeRepo) FindByHash(_ context.Context, hash string) (*querystore.Entry, error) {
	if entry, ok := f.byHash[hash]; ok {
		copied := *entry
		return &copied, nil
	}
	return nil, dberr.ErrNotFound
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*querystore.Entry, error) {
	for _, entry := range f.byHash {
		if entry.ID == id {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (f *fakeRepo) IDExists(_ context.Context, _ string) (bool, error) {
	if f.idCollisions > 0 {
		f.idCollisions--
		return true, nil
	}
	return false, nil
}

func (f *fakeRepo) Upsert(_ context.Context, entry *querystore.Entry) error {
	copied := *entry
	f.byHash[entry.Hash] = &copied
	return nil
}

func bilingualFilterTable() []cube.FilterRow {
	return []cube.FilterRow{
		{Reference: "W92000004", Language: "en-gb", FactTableColumn: "region", DimensionName: "Region", Description: "Wales"},
		{Reference: "W92000004", Language: "cy-gb", FactTableColumn: "region", DimensionName: "Rhanbarth", Description: "Cymru"},
		{Reference: "2021", Language: "en-gb", FactTableColumn: "year", DimensionName: "Year", Description: "2021"},
		{Reference: "2021", Language: "cy-gb", FactTableColumn: "year", DimensionName: "Blwyddyn", Description: "2021"},
	}
}

func newService(cubeRepo *fakeCubeRepo, repo *fakeRepo) *querystore.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return querystore.NewService(repo, cubeRepo, logger)
}

// # Tests

/*
TestHash_StableAndDatasetScoped checks that the content address is
deterministic and changes with the dataset id.
*/
func TestHash_StableAndDatasetScoped(t *testing.T) {
	options := querystore.ConsumerOptions{
		Filters: []map[string][]string{{"region": {"W92000004"}}},
	}

	first, err := querystore.Hash("dataset-a", options)
	require.NoError(t, err)
	second, err := querystore.Hash("dataset-a", options)
	require.NoError(t, err)
	other, err := querystore.Hash("dataset-b", options)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}

/*
TestService_GetOrCreate_Idempotent verifies the cache-hit path: a second
identical request returns the same id without recompiling or recounting.
*/
func TestService_GetOrCreate_Idempotent(t *testing.T) {
	cubeRepo := &fakeCubeRepo{
		filterTable: bilingualFilterTable(),
		counts:      map[string]int{"en": 600, "cy": 600},
	}
	service := newService(cubeRepo, newFakeRepo())

	options := querystore.ConsumerOptions{
		Filters: []map[string][]string{{"region": {"W92000004"}}},
	}

	first, err := service.GetOrCreate(context.Background(), "dataset-a", "rev-1", options)
	require.NoError(t, err)
	countsAfterFirst := cubeRepo.countCalls

	second, err := service.GetOrCreate(context.Background(), "dataset-a", "rev-1", options)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, countsAfterFirst, cubeRepo.countCalls, "cache hit must not recount")
}

/*
TestService_GetOrCreate_RegeneratesStaleRevision verifies the in-place
rebuild: a revision change keeps the public id but recompiles the queries.
*/
func TestService_GetOrCreate_RegeneratesStaleRevision(t *testing.T) {
	cubeRepo := &fakeCubeRepo{
		filterTable: bilingualFilterTable(),
		counts:      map[string]int{"en": 600, "cy": 600},
	}
	service := newService(cubeRepo, newFakeRepo())

	options := querystore.ConsumerOptions{}

	first, err := service.GetOrCreate(context.Background(), "dataset-a", "rev-1", options)
	require.NoError(t, err)

	second, err := service.GetOrCreate(context.Background(), "dataset-a", "rev-2", options)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "regeneration keeps the id")
	assert.Equal(t, "rev-2", second.RevisionID)
	assert.Contains(t, second.Query[locale.EnglishGB.Code], `"rev-2"`)
}

/*
TestService_Regenerate_AllLocalesCompiled checks the entry carries one
compiled query per supported locale, each against its own view.
*/
func TestService_Regenerate_AllLocalesCompiled(t *testing.T) {
	cubeRepo := &fakeCubeRepo{
		filterTable: bilingualFilterTable(),
		counts:      map[string]int{"en": 600, "cy": 600},
	}
	service := newService(cubeRepo, newFakeRepo())

	entry, err := service.Regenerate(context.Background(), "dataset-a", "rev-1", querystore.ConsumerOptions{}, nil)
	require.NoError(t, err)

	require.Len(t, entry.Query, len(locale.Supported))
	assert.Contains(t, entry.Query["en-gb"], "core_data_en")
	assert.Contains(t, entry.Query["cy-gb"], "core_data_cy")
	assert.Equal(t, 600, entry.TotalLines)
}

/*
TestService_Regenerate_CountMismatchTolerated covers the cross-locale
desync policy: mismatching counts warn and keep the first observed value.
*/
func TestService_Regenerate_CountMismatchTolerated(t *testing.T) {
	cubeRepo := &fakeCubeRepo{
		filterTable: bilingualFilterTable(),
		counts:      map[string]int{"en": 1000, "cy": 998},
	}
	service := newService(cubeRepo, newFakeRepo())

	entry, err := service.Regenerate(context.Background(), "dataset-a", "rev-1", querystore.ConsumerOptions{}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1000, entry.TotalLines)
}

/*
TestService_Regenerate_ColumnMapping checks the mapping is the distinct
triple set of the filter table, not one triple per reference row.
*/
func TestService_Regenerate_ColumnMapping(t *testing.T) {
	table := append(bilingualFilterTable(), cube.FilterRow{
		// Second reference under an already-seen column/language pair.
		Reference: "E92000001", Language: "en-gb", FactTableColumn: "region", DimensionName: "Region", Description: "England",
	})
	cubeRepo := &fakeCubeRepo{filterTable: table, counts: map[string]int{"en": 1, "cy": 1}}
	service := newService(cubeRepo, newFakeRepo())

	entry, err := service.Regenerate(context.Background(), "dataset-a", "rev-1", querystore.ConsumerOptions{}, nil)

	require.NoError(t, err)
	assert.Len(t, entry.ColumnMapping, 4)
	assert.Contains(t, entry.ColumnMapping, cube.ColumnMapping{
		FactTableColumn: "region", DimensionName: "Rhanbarth", Language: "cy-gb",
	})
}

/*
TestService_MintID_SurvivesCollisions verifies id minting retries past
taken ids and produces alphabet-restricted tokens.
*/
func TestService_MintID_SurvivesCollisions(t *testing.T) {
	repo := newFakeRepo()
	repo.idCollisions = 2
	cubeRepo := &fakeCubeRepo{
		filterTable: bilingualFilterTable(),
		counts:      map[string]int{"en": 1, "cy": 1},
	}
	service := newService(cubeRepo, repo)

	entry, err := service.Regenerate(context.Background(), "dataset-a", "rev-1", querystore.ConsumerOptions{}, nil)

	require.NoError(t, err)
	assert.Len(t, entry.ID, constants.ShortIDLength)
	for _, char := range entry.ID {
		assert.Contains(t, constants.ShortIDAlphabet, string(char))
	}
}
