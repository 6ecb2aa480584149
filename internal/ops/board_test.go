package ops

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBoard(t *testing.T, dir string, board Board) string {
	t.Helper()
	path := filepath.Join(dir, "board.json")
	data, err := json.Marshal(board)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestMoveBoardItemUpdatesPosition(t *testing.T) {
	dir := t.TempDir()
	path := writeBoard(t, dir, Board{
		Viewport: Viewport{Zoom: 1},
		Items:    []BoardItem{{Name: "a.png", X: 1, Y: 1}, {Name: "b.png", X: 5, Y: 5}},
	})

	require.NoError(t, MoveBoardItem(path, "a.png", 10, 20))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var board Board
	require.NoError(t, json.Unmarshal(raw, &board))

	assert.Equal(t, 10.0, board.Items[0].X)
	assert.Equal(t, 20.0, board.Items[0].Y)
	assert.Equal(t, 5.0, board.Items[1].X)
}

func TestMoveBoardItemMissingFile(t *testing.T) {
	err := MoveBoardItem(filepath.Join(t.TempDir(), "board.json"), "a.png", 1, 1)
	require.Error(t, err)
	cat, ok := apperr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CategoryNotFound, cat)
}

func TestMoveBoardItemInvalidSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	err := MoveBoardItem(path, "a.png", 1, 1)
	require.Error(t, err)
	cat, ok := apperr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CategoryValidation, cat)
}

func TestMoveBoardItemNameNotFound(t *testing.T) {
	dir := t.TempDir()
	path := writeBoard(t, dir, Board{Items: []BoardItem{{Name: "a.png"}}})

	err := MoveBoardItem(path, "missing.png", 1, 1)
	require.Error(t, err)
	cat, ok := apperr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CategoryNotFound, cat)
}
