package store

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/deco-run/deco-core/internal/domain"
)

var reservedFTSTokens = map[string]bool{
	"AND": true,
	"OR":  true,
	"NOT": true,
}

// buildMatchQuery tokenizes query on whitespace, keeping a double-quoted
// phrase together as one token. Each bareword is quoted and suffixed with a
// prefix wildcard ("word"*); reserved boolean tokens and already-quoted
// tokens pass through unmodified.
func buildMatchQuery(query string) string {
	var parts []string

	rest := strings.TrimSpace(query)
	for rest != "" {
		field := ""
		if rest[0] == '"' {
			if end := strings.IndexByte(rest[1:], '"'); end != -1 {
				field, rest = rest[:end+2], rest[end+2:]
			}
		}
		if field == "" {
			if i := strings.IndexFunc(rest, unicode.IsSpace); i != -1 {
				field, rest = rest[:i], rest[i:]
			} else {
				field, rest = rest, ""
			}
		}
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)

		switch {
		case reservedFTSTokens[strings.ToUpper(field)]:
			parts = append(parts, strings.ToUpper(field))
		case strings.HasPrefix(field, `"`) && strings.HasSuffix(field, `"`) && len(field) >= 2:
			parts = append(parts, field)
		default:
			escaped := strings.ReplaceAll(field, `"`, `""`)
			parts = append(parts, fmt.Sprintf(`"%s"*`, escaped))
		}
	}

	return strings.Join(parts, " ")
}

// SearchText searches images_fts and returns results ordered by bm25()
// ascending (best match first), with the caller-visible score flipped to a
// positive number. An empty/whitespace query returns empty immediately
// without preparing a statement.
func (s *Store) SearchText(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	matchQuery := buildMatchQuery(query)
	if matchQuery == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.path, i.name, i.description, i.tags, bm25(images_fts) AS rank
		FROM images_fts
		JOIN images i ON i.path = images_fts.path
		WHERE images_fts MATCH ?
		ORDER BY rank ASC
		LIMIT ?
	`, matchQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("search text %q: %w", query, err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var path, name, description, tags string
		var rank float64
		if err := rows.Scan(&path, &name, &description, &tags, &rank); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		score := rank
		if score < 0 {
			score = -score
		}
		results = append(results, domain.SearchResult{
			Path:        path,
			Name:        name,
			Description: description,
			Tags:        splitTokens(tags),
			Score:       score,
		})
	}
	return results, rows.Err()
}
