package storage

import (
	"context"

	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/domain"
	"github.com/deco-run/deco-core/internal/workerpool"
)

func (p *SQLiteProvider) IndexImages(ctx context.Context, projectPath string, metas []domain.Image) (int, error) {
	return workerpool.Run(ctx, p.pool, func() (int, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return 0, err
		}
		return s.IndexImages(ctx, metas)
	})
}

func (p *SQLiteProvider) UpsertImageMetadata(ctx context.Context, projectPath string, meta domain.Image) error {
	return workerpool.RunVoid(ctx, p.pool, func() error {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return err
		}
		return s.UpsertImage(ctx, meta)
	})
}

// UpdateImageMetadata loads the existing row (if any), merges patch on top
// via domain.MergeImage, and writes the result back. colors is never part
// of the patch surface and is always carried through unchanged.
func (p *SQLiteProvider) UpdateImageMetadata(ctx context.Context, projectPath, filename string, patch domain.ImagePatch) (*domain.Image, error) {
	return workerpool.Run(ctx, p.pool, func() (*domain.Image, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return nil, err
		}

		existing, err := s.GetImageMetadata(ctx, filename)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			existing = &domain.Image{Path: filename}
		}

		merged := domain.MergeImage(*existing, patch)
		if err := s.UpdateImageMetadata(ctx, merged); err != nil {
			return nil, err
		}
		return &merged, nil
	})
}

func (p *SQLiteProvider) SearchText(ctx context.Context, projectPath, query string, limit int) ([]domain.SearchResult, error) {
	return workerpool.Run(ctx, p.pool, func() ([]domain.SearchResult, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return nil, err
		}
		return s.SearchText(ctx, query, limit)
	})
}

func (p *SQLiteProvider) GetAllTags(ctx context.Context, projectPath string) ([]domain.TagCount, error) {
	return workerpool.Run(ctx, p.pool, func() ([]domain.TagCount, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return nil, err
		}
		return s.GetAllTags(ctx)
	})
}

func (p *SQLiteProvider) GetImagesByTag(ctx context.Context, projectPath, tag string) ([]string, error) {
	return workerpool.Run(ctx, p.pool, func() ([]string, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return nil, err
		}
		return s.GetImagesByTag(ctx, tag)
	})
}

func (p *SQLiteProvider) QueryImageRow(ctx context.Context, projectPath, path string) (*domain.Image, error) {
	return workerpool.Run(ctx, p.pool, func() (*domain.Image, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return nil, err
		}
		img, err := s.GetImageMetadata(ctx, path)
		if err != nil {
			return nil, err
		}
		if img == nil {
			return nil, apperr.Newf(apperr.CategoryNotFound, "no image row for %q", path)
		}
		return img, nil
	})
}

func (p *SQLiteProvider) ListImagePaths(ctx context.Context, projectPath string) ([]string, error) {
	return workerpool.Run(ctx, p.pool, func() ([]string, error) {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return nil, err
		}
		return s.ListAllPaths(ctx)
	})
}

func (p *SQLiteProvider) DeleteImageData(ctx context.Context, projectPath, path string) error {
	return workerpool.RunVoid(ctx, p.pool, func() error {
		s, err := p.storeFor(projectPath)
		if err != nil {
			return err
		}
		return s.DeleteImageData(ctx, path)
	})
}
