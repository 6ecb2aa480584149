package storage

import (
	"context"
	"testing"

	"github.com/deco-run/deco-core/internal/ops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadBoardState(t *testing.T) {
	p, _ := newTestProvider(t)
	projectPath := newTestProject(t, p)
	ctx := context.Background()

	board := ops.Board{
		Viewport: ops.Viewport{X: 1, Y: 2, Zoom: 1.5},
		Items:    []ops.BoardItem{{Name: "a.png", X: 10, Y: 20}},
	}
	require.NoError(t, p.SaveBoardState(ctx, projectPath, board))

	loaded, err := p.LoadBoardState(ctx, projectPath)
	require.NoError(t, err)
	assert.Equal(t, board.Viewport, loaded.Viewport)
	assert.Equal(t, board.Items, loaded.Items)
}

func TestMoveBoardItemViaProvider(t *testing.T) {
	p, _ := newTestProvider(t)
	projectPath := newTestProject(t, p)
	ctx := context.Background()

	board := ops.Board{Items: []ops.BoardItem{{Name: "a.png", X: 0, Y: 0}}}
	require.NoError(t, p.SaveBoardState(ctx, projectPath, board))

	require.NoError(t, p.MoveBoardItem(ctx, projectPath, "a.png", 42, 43))

	loaded, err := p.LoadBoardState(ctx, projectPath)
	require.NoError(t, err)
	assert.Equal(t, 42.0, loaded.Items[0].X)
	assert.Equal(t, 43.0, loaded.Items[0].Y)
}
