package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/ops"
	"github.com/deco-run/deco-core/internal/workerpool"
)

// SaveBoardState rewrites {project}/.deco/board.json wholesale.
func (p *SQLiteProvider) SaveBoardState(ctx context.Context, projectPath string, board ops.Board) error {
	return workerpool.RunVoid(ctx, p.pool, func() error {
		return writeJSONAtomic(boardPath(projectPath), board)
	})
}

// LoadBoardState reads {project}/.deco/board.json.
func (p *SQLiteProvider) LoadBoardState(ctx context.Context, projectPath string) (*ops.Board, error) {
	return workerpool.Run(ctx, p.pool, func() (*ops.Board, error) {
		raw, err := os.ReadFile(boardPath(projectPath))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, apperr.Newf(apperr.CategoryNotFound, "board file not found for project %q", projectPath)
			}
			return nil, fmt.Errorf("read board file: %w", err)
		}

		var board ops.Board
		if err := json.Unmarshal(raw, &board); err != nil {
			return nil, apperr.Newf(apperr.CategoryValidation, "invalid board schema for project %q: %v", projectPath, err)
		}
		return &board, nil
	})
}

// MoveBoardItem updates one item's position via ops.MoveBoardItem.
func (p *SQLiteProvider) MoveBoardItem(ctx context.Context, projectPath, filename string, x, y float64) error {
	return workerpool.RunVoid(ctx, p.pool, func() error {
		return ops.MoveBoardItem(boardPath(projectPath), filename, x, y)
	})
}
