package store

import (
	"context"
	"testing"

	"github.com/deco-run/deco-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMatchQuery(t *testing.T) {
	assert.Equal(t, `"barn"* AND "red"*`, buildMatchQuery(`barn AND red`))
	assert.Equal(t, `"exact phrase"`, buildMatchQuery(`"exact phrase"`))
	assert.Equal(t, `"it""s"*`, buildMatchQuery(`it"s`))
}

func TestSearchTextEmptyQueryReturnsEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertImage(ctx, domain.Image{Path: "a", Name: "barn photo"}))

	results, err := s.SearchText(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestSearchTextMatchesAndRanks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertImage(ctx, domain.Image{
		Path: "a", Name: "red barn", Description: "a red barn at sunset", Tags: []string{"barn", "red"},
	}))
	require.NoError(t, s.UpsertImage(ctx, domain.Image{
		Path: "b", Name: "blue sky", Description: "a clear blue sky", Tags: []string{"sky", "blue"},
	}))

	results, err := s.SearchText(ctx, "barn", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Path)
	assert.GreaterOrEqual(t, results[0].Score, 0.0)
}

func TestSearchTextRespectsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, s.UpsertImage(ctx, domain.Image{Path: p, Name: "barn", Tags: []string{"barn"}}))
	}

	results, err := s.SearchText(ctx, "barn", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
