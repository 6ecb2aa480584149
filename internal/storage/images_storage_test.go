package storage

import (
	"context"
	"testing"

	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdateImageMetadataMergesAndPreservesColors(t *testing.T) {
	p, _ := newTestProvider(t)
	projectPath := newTestProject(t, p)
	ctx := context.Background()

	require.NoError(t, p.UpsertImageMetadata(ctx, projectPath, domain.Image{
		Path: "a.png", Name: "old", Colors: []string{"#ff0000"},
	}))

	updated, err := p.UpdateImageMetadata(ctx, projectPath, "a.png", domain.ImagePatch{
		Name: strPtr("new name"),
	})
	require.NoError(t, err)
	assert.Equal(t, "new name", updated.Name)
	assert.Equal(t, []string{"#ff0000"}, updated.Colors)
}

func TestQueryImageRowMissingReturnsNotFound(t *testing.T) {
	p, _ := newTestProvider(t)
	projectPath := newTestProject(t, p)

	_, err := p.QueryImageRow(context.Background(), projectPath, "missing.png")
	require.Error(t, err)
	cat, ok := apperr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CategoryNotFound, cat)
}

func TestGetAllTagsAndGetImagesByTag(t *testing.T) {
	p, _ := newTestProvider(t)
	projectPath := newTestProject(t, p)
	ctx := context.Background()

	require.NoError(t, p.UpsertImageMetadata(ctx, projectPath, domain.Image{Path: "a.png", Name: "a", Tags: []string{"barn"}}))
	require.NoError(t, p.UpsertImageMetadata(ctx, projectPath, domain.Image{Path: "b.png", Name: "b", Tags: []string{"barn", "red"}}))

	tags, err := p.GetAllTags(ctx, projectPath)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	paths, err := p.GetImagesByTag(ctx, projectPath, "barn")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.png", "b.png"}, paths)
}
