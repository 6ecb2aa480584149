package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/deco-run/deco-core/internal/appconfig"
	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/ops"
	"github.com/deco-run/deco-core/internal/store"
	"github.com/deco-run/deco-core/internal/workerpool"
)

type projectMarker struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Created string `json:"created"`
}

// CreateProject initializes images/, thumbnails/, metadata.json, deco.json,
// .deco/board.json and .deco/search.db for a new project under
// projectsFolder/name. The components are created in this order but no
// ordering is load-bearing: any failure midway leaves a partially
// initialized directory the caller can retry against.
func (p *SQLiteProvider) CreateProject(ctx context.Context, projectsFolder, name string) (ProjectInfo, error) {
	return workerpool.Run(ctx, p.pool, func() (ProjectInfo, error) {
		projectPath := filepath.Join(projectsFolder, name)

		if err := os.MkdirAll(imagesDir(projectPath), 0o755); err != nil {
			return ProjectInfo{}, fmt.Errorf("create images dir: %w", err)
		}
		if err := os.MkdirAll(thumbnailsDir(projectPath), 0o755); err != nil {
			return ProjectInfo{}, fmt.Errorf("create thumbnails dir: %w", err)
		}
		if err := os.MkdirAll(decoDir(projectPath), 0o755); err != nil {
			return ProjectInfo{}, fmt.Errorf("create .deco dir: %w", err)
		}

		now := time.Now().UTC().Format(time.RFC3339)
		marker := projectMarker{Version: 1, Name: name, Created: now}
		if err := writeJSONAtomic(projectMarkerPath(projectPath), marker); err != nil {
			return ProjectInfo{}, fmt.Errorf("write project marker: %w", err)
		}

		meta := ProjectMetadata{Name: name, Path: projectPath, CreatedAt: now, UpdatedAt: now}
		if err := writeJSONAtomic(metadataPath(projectPath), meta); err != nil {
			return ProjectInfo{}, fmt.Errorf("write project metadata: %w", err)
		}

		board := ops.Board{Version: 1, Viewport: ops.Viewport{Zoom: 1}}
		if err := writeJSONAtomic(boardPath(projectPath), board); err != nil {
			return ProjectInfo{}, fmt.Errorf("write board state: %w", err)
		}

		s, err := store.Open(searchDBPath(projectPath))
		if err != nil {
			return ProjectInfo{}, err
		}
		p.mu.Lock()
		p.handles[projectPath] = s
		p.mu.Unlock()

		return ProjectInfo{Name: name, Path: projectPath, ImageCount: 0}, nil
	})
}

func (p *SQLiteProvider) ListRecent(ctx context.Context) ([]appconfig.RecentProject, error) {
	return workerpool.Run(ctx, p.pool, func() ([]appconfig.RecentProject, error) {
		return appconfig.LoadRecent()
	})
}

func (p *SQLiteProvider) AddToRecent(ctx context.Context, name, path string) error {
	return workerpool.RunVoid(ctx, p.pool, func() error {
		return appconfig.AddToRecent(name, path)
	})
}

// ScanFolderForProjects lists immediate subdirectories of folder that carry
// a deco.json marker, reading each one's image count from metadata.json
// when present.
func (p *SQLiteProvider) ScanFolderForProjects(ctx context.Context, folder string) ([]ProjectInfo, error) {
	return workerpool.Run(ctx, p.pool, func() ([]ProjectInfo, error) {
		entries, err := os.ReadDir(folder)
		if err != nil {
			return nil, apperr.Newf(apperr.CategoryStorage, "scan projects folder %q: %v", folder, err)
		}

		var projects []ProjectInfo
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			candidate := filepath.Join(folder, entry.Name())
			if _, err := os.Stat(projectMarkerPath(candidate)); err != nil {
				continue
			}

			info := ProjectInfo{Name: entry.Name(), Path: candidate}
			if meta, err := readProjectMetadata(candidate); err == nil && meta != nil {
				info.ImageCount = meta.ImageCount
			}
			projects = append(projects, info)
		}
		return projects, nil
	})
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
