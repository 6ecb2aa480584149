package storage

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/domain"
	"github.com/deco-run/deco-core/internal/ops"
	"github.com/deco-run/deco-core/internal/store"
	"github.com/deco-run/deco-core/internal/workerpool"
)

func (p *SQLiteProvider) StoreEmbedding(ctx context.Context, projectPath, path, model string, vector []float32) error {
	return workerpool.RunVoid(ctx, p.pool, func() error {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return err
		}
		return s.StoreEmbedding(ctx, path, model, vector)
	})
}

func (p *SQLiteProvider) HasEmbedding(ctx context.Context, projectPath, path string) (bool, error) {
	return workerpool.Run(ctx, p.pool, func() (bool, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return false, err
		}
		return s.HasEmbedding(ctx, path)
	})
}

func (p *SQLiteProvider) GetEmbedding(ctx context.Context, projectPath, path string) ([]float32, error) {
	return workerpool.Run(ctx, p.pool, func() ([]float32, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return nil, err
		}
		return s.GetEmbedding(ctx, path)
	})
}

// EmbedProject runs embedAndStore on the given paths, first indexing each of
// them with IndexImages (Name derived from the basename) so none is embedded
// without an images row; embedding before indexing would leave orphan BLOBs
// that similarity queries skip. With no paths it embeds every path already
// in the images table; files on disk that were never indexed are not
// scanned for, indexed, or embedded.
func (p *SQLiteProvider) EmbedProject(ctx context.Context, projectPath string, paths []string) (int, error) {
	s, err := p.storeFor(projectPath)
	if err != nil {
		return 0, err
	}

	if len(paths) == 0 {
		paths, err = workerpool.Run(ctx, p.pool, func() ([]string, error) { return s.ListAllPaths(ctx) })
		if err != nil {
			return 0, err
		}
	} else {
		metas := make([]domain.Image, len(paths))
		for i, path := range paths {
			metas[i] = domain.Image{Path: path, Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
		}
		if _, err := workerpool.Run(ctx, p.pool, func() (int, error) { return s.IndexImages(ctx, metas) }); err != nil {
			return 0, err
		}
	}

	return p.embedAndStore(ctx, s, paths)
}

// embedAndStore filters paths to those lacking an embedding row, batches
// them through the Embedder, and stores each resulting vector. Returns the
// count newly embedded. Calling this twice on the same paths returns N then
// 0 — idempotent, per spec.
func (p *SQLiteProvider) embedAndStore(ctx context.Context, s *store.Store, paths []string) (int, error) {
	var pending []string
	for _, path := range paths {
		has, err := workerpool.Run(ctx, p.pool, func() (bool, error) { return s.HasEmbedding(ctx, path) })
		if err != nil {
			return 0, err
		}
		if !has {
			pending = append(pending, path)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	vectors, err := workerpool.Run(ctx, p.pool, func() ([][]float32, error) {
		return p.embed.Embed(ctx, pending, 16)
	})
	if err != nil {
		return 0, err
	}

	for i, path := range pending {
		idx := i
		target := path
		if err := workerpool.RunVoid(ctx, p.pool, func() error {
			return s.StoreEmbedding(ctx, target, clipModelName, vectors[idx])
		}); err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

// FindSimilar tries vector cosine first; if the result is empty (no
// embedding for the query, or no other embeddings exist), falls back to
// tag-Jaccard. Callers see one unified ranked list regardless of backend.
func (p *SQLiteProvider) FindSimilar(ctx context.Context, projectPath, imagePath string, limit int) ([]domain.SimilarResult, error) {
	return workerpool.Run(ctx, p.pool, func() ([]domain.SimilarResult, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return nil, err
		}

		results, err := s.FindSimilar(ctx, imagePath, limit)
		if err != nil && !apperr.Is(err, apperr.CategoryNotFound) {
			return nil, err
		}
		if err == nil && len(results) > 0 {
			return results, nil
		}

		return s.FindSimilarByTags(ctx, imagePath, limit)
	})
}

// Cluster loads every embedding for the project and greedily clusters them
// at threshold.
func (p *SQLiteProvider) Cluster(ctx context.Context, projectPath string, threshold float64) ([]ops.Cluster, int, error) {
	type result struct {
		clusters  []ops.Cluster
		ungrouped int
	}
	r, err := workerpool.Run(ctx, p.pool, func() (result, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return result{}, err
		}

		all, err := s.GetAllEmbeddings(ctx)
		if err != nil {
			return result{}, err
		}

		candidates := make([]ops.Candidate, len(all))
		for i, e := range all {
			candidates[i] = ops.Candidate{ID: e.Path, Vector: e.Vector}
		}

		clusters, ungrouped := ops.GreedyCluster(candidates, threshold)
		return result{clusters: clusters, ungrouped: ungrouped}, nil
	})
	return r.clusters, r.ungrouped, err
}
