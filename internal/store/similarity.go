package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/domain"
	"github.com/deco-run/deco-core/internal/ops"
)

// pathScore pairs a path with a similarity score; shared by FindSimilar and
// joinWithMetadata so both sides agree on a single named type.
type pathScore struct {
	path  string
	score float64
}

// FindSimilar loads the query embedding, scores it against every other
// embedding by cosine similarity, and returns the top limit joined with
// image metadata, sorted descending. Embeddings with no images row are
// skipped and do not count toward limit. Fails with apperr.CategoryNotFound if
// the query path has no embedding row. A score tie breaks on insertion
// order (stable sort), which is deterministic for a fixed table state.
func (s *Store) FindSimilar(ctx context.Context, queryPath string, limit int) ([]domain.SimilarResult, error) {
	queryVector, err := s.GetEmbedding(ctx, queryPath)
	if err != nil {
		return nil, err
	}
	if queryVector == nil {
		return nil, apperr.Newf(apperr.CategoryNotFound, "no embedding for %q", queryPath)
	}

	all, err := s.GetAllEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []pathScore
	for _, e := range all {
		if e.Path == queryPath {
			continue
		}
		candidates = append(candidates, pathScore{path: e.Path, score: ops.Cosine(queryVector, e.Vector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	return s.joinWithMetadata(ctx, candidates, limit)
}

// FindSimilarByTags loads the query image's tags∪style∪mood as a lowercase
// token set and computes Jaccard similarity against every other image with
// non-empty metadata. Returns the top limit with score > 0.
func (s *Store) FindSimilarByTags(ctx context.Context, queryPath string, limit int) ([]domain.SimilarResult, error) {
	queryImage, err := s.GetImageMetadata(ctx, queryPath)
	if err != nil {
		return nil, err
	}
	if queryImage == nil {
		return nil, apperr.Newf(apperr.CategoryNotFound, "no image metadata for %q", queryPath)
	}
	querySet := tokenSet(queryImage.Tags, queryImage.Style, queryImage.Mood)

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, description, tags, style, mood
		FROM images
		WHERE path != ? AND (tags != '' OR style != '' OR mood != '')
	`, queryPath)
	if err != nil {
		return nil, fmt.Errorf("scan images for tag similarity: %w", err)
	}
	defer rows.Close()

	type scored struct {
		path        string
		name        string
		description string
		tags        []string
		score       float64
	}
	var candidates []scored
	for rows.Next() {
		var path, name, description, tags, style, mood string
		if err := rows.Scan(&path, &name, &description, &tags, &style, &mood); err != nil {
			return nil, fmt.Errorf("scan image row: %w", err)
		}
		candidateSet := tokenSet(splitTokens(tags), splitTokens(style), splitTokens(mood))
		score := ops.Jaccard(querySet, candidateSet)
		if score > 0 {
			candidates = append(candidates, scored{path: path, name: name, description: description, tags: splitTokens(tags), score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]domain.SimilarResult, len(candidates))
	for i, c := range candidates {
		out[i] = domain.SimilarResult{Path: c.path, Name: c.name, Description: c.description, Tags: c.tags, Score: c.score}
	}
	return out, nil
}

func tokenSet(groups ...[]string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, group := range groups {
		for _, tok := range group {
			set[strings.ToLower(tok)] = struct{}{}
		}
	}
	return set
}

// joinWithMetadata attaches image metadata to candidates in order, skipping
// orphan embeddings (no images row), and stops after limit results when
// limit > 0.
func (s *Store) joinWithMetadata(ctx context.Context, candidates []pathScore, limit int) ([]domain.SimilarResult, error) {
	out := make([]domain.SimilarResult, 0, len(candidates))
	for _, c := range candidates {
		if limit > 0 && len(out) >= limit {
			break
		}
		meta, err := s.GetImageMetadata(ctx, c.path)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			continue
		}
		out = append(out, domain.SimilarResult{
			Path: c.path, Name: meta.Name, Description: meta.Description, Tags: meta.Tags, Score: c.score,
		})
	}
	return out, nil
}
