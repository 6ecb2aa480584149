package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/workerpool"
)

// readProjectMetadata reads and parses {project}/metadata.json, returning
// (nil, nil) if the file is absent.
func readProjectMetadata(projectPath string) (*ProjectMetadata, error) {
	raw, err := os.ReadFile(metadataPath(projectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read project metadata: %w", err)
	}

	var meta ProjectMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, apperr.Newf(apperr.CategoryValidation, "invalid metadata.json at %q: %v", projectPath, err)
	}
	return &meta, nil
}

func (p *SQLiteProvider) ReadProjectMetadata(ctx context.Context, projectPath string) (*ProjectMetadata, error) {
	return workerpool.Run(ctx, p.pool, func() (*ProjectMetadata, error) {
		return readProjectMetadata(projectPath)
	})
}

// WriteProjectMetadata writes meta wholesale, stamping UpdatedAt to now. If
// CreatedAt is unset (zero value), it is also stamped to now. CreateProject
// writes its initial metadata.json directly, not through this method.
func (p *SQLiteProvider) WriteProjectMetadata(ctx context.Context, meta ProjectMetadata) error {
	return workerpool.RunVoid(ctx, p.pool, func() error {
		now := time.Now().UTC().Format(time.RFC3339)
		if meta.CreatedAt == "" {
			meta.CreatedAt = now
		}
		meta.UpdatedAt = now
		return writeJSONAtomic(metadataPath(meta.Path), meta)
	})
}
