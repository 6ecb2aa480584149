package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/deco-run/deco-core/internal/domain"
)

func joinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}

func splitTokens(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}

func rowToImage(path, name, description, tags, style, mood, colors, era string) domain.Image {
	return domain.Image{
		Path:        path,
		Name:        name,
		Description: description,
		Tags:        splitTokens(tags),
		Style:       splitTokens(style),
		Mood:        splitTokens(mood),
		Colors:      splitTokens(colors),
		Era:         era,
	}
}

// UpsertImage inserts or replaces the row for meta.Path. The FTS mirror is
// kept in sync by the images_ai/images_ad/images_au triggers.
func (s *Store) UpsertImage(ctx context.Context, meta domain.Image) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO images (path, name, description, tags, style, mood, colors, era)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			tags = excluded.tags,
			style = excluded.style,
			mood = excluded.mood,
			colors = excluded.colors,
			era = excluded.era
	`, meta.Path, meta.Name, meta.Description,
		joinTokens(meta.Tags), joinTokens(meta.Style), joinTokens(meta.Mood), joinTokens(meta.Colors), meta.Era)
	if err != nil {
		return fmt.Errorf("upsert image %q: %w", meta.Path, err)
	}
	return nil
}

// IndexImages bulk-inserts rows for images not already present (by path),
// wrapped in one transaction. Existing rows are left untouched — this is
// the fast "new files found on disk" path, never an overwrite. Returns the
// count of newly inserted rows.
func (s *Store) IndexImages(ctx context.Context, metas []domain.Image) (int, error) {
	if len(metas) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, meta := range metas {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM images WHERE path = ?`, meta.Path).Scan(&exists)
		if err != nil && err != sql.ErrNoRows {
			return inserted, fmt.Errorf("check existing image %q: %w", meta.Path, err)
		}
		if exists {
			continue
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO images (path, name, description, tags, style, mood, colors, era)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, meta.Path, meta.Name, meta.Description,
			joinTokens(meta.Tags), joinTokens(meta.Style), joinTokens(meta.Mood), joinTokens(meta.Colors), meta.Era)
		if err != nil {
			return inserted, fmt.Errorf("insert image %q: %w", meta.Path, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

// UpdateImageMetadata fully replaces the row for meta.Path; used after AI
// analysis or a manual edit. Identical to UpsertImage but named separately
// to mirror the contract's distinct intent.
func (s *Store) UpdateImageMetadata(ctx context.Context, meta domain.Image) error {
	return s.UpsertImage(ctx, meta)
}

// GetImageMetadata returns the row for path, or (nil, nil) if absent.
func (s *Store) GetImageMetadata(ctx context.Context, path string) (*domain.Image, error) {
	var name, description, tags, style, mood, colors, era string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, description, tags, style, mood, colors, era FROM images WHERE path = ?
	`, path).Scan(&name, &description, &tags, &style, &mood, &colors, &era)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get image %q: %w", path, err)
	}

	img := rowToImage(path, name, description, tags, style, mood, colors, era)
	return &img, nil
}

// DeleteImageData removes the embedding row then the image row. Idempotent:
// deleting an absent path succeeds silently.
func (s *Store) DeleteImageData(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete embedding for %q: %w", path, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete image %q: %w", path, err)
	}
	return nil
}

// ListAllPaths returns every path in the images table; used by embed_project
// when no explicit path list is given (embed the whole project).
func (s *Store) ListAllPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM images`)
	if err != nil {
		return nil, fmt.Errorf("list all image paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan image path: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// GetAllTags splits every non-empty tags cell on whitespace, lowercases,
// and tallies occurrences. Sorted by count descending then tag alphabetically.
func (s *Store) GetAllTags(ctx context.Context) ([]domain.TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM images WHERE tags != ''`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, fmt.Errorf("scan tags row: %w", err)
		}
		for _, tag := range splitTokens(tags) {
			counts[strings.ToLower(tag)]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.TagCount, 0, len(counts))
	for tag, count := range counts {
		out = append(out, domain.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

// GetImagesByTag scans every tags cell for a case-insensitive exact token
// match and returns the matching paths.
func (s *Store) GetImagesByTag(ctx context.Context, tag string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, tags FROM images WHERE tags != ''`)
	if err != nil {
		return nil, fmt.Errorf("query images by tag: %w", err)
	}
	defer rows.Close()

	target := strings.ToLower(tag)
	var paths []string
	for rows.Next() {
		var path, tags string
		if err := rows.Scan(&path, &tags); err != nil {
			return nil, fmt.Errorf("scan image row: %w", err)
		}
		for _, t := range splitTokens(tags) {
			if strings.ToLower(t) == target {
				paths = append(paths, path)
				break
			}
		}
	}
	return paths, rows.Err()
}
