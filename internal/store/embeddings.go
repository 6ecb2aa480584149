package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/deco-run/deco-core/internal/apperr"
)

// encodeVector serializes f32s as little-endian bytes.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector deserializes a little-endian f32 BLOB, rejecting a length
// that disagrees with the stored dimensions count.
func decodeVector(buf []byte, dimensions int) ([]float32, error) {
	if len(buf)%4 != 0 || len(buf)/4 != dimensions {
		return nil, apperr.Newf(apperr.CategoryStorage,
			"embedding dimension mismatch: stored dimensions=%d, vector bytes=%d", dimensions, len(buf))
	}

	vector := make([]float32, dimensions)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vector, nil
}

// StoreEmbedding serializes vector as little-endian f32 bytes and
// insert-or-replaces the row for path.
func (s *Store) StoreEmbedding(ctx context.Context, path, model string, vector []float32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (path, model, vector, dimensions, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			model = excluded.model,
			vector = excluded.vector,
			dimensions = excluded.dimensions,
			created_at = CURRENT_TIMESTAMP
	`, path, model, encodeVector(vector), len(vector))
	if err != nil {
		return fmt.Errorf("store embedding for %q: %w", path, err)
	}
	return nil
}

// GetEmbedding returns the vector for path, or (nil, nil) if absent.
// Rejects a row whose serialized length disagrees with its dimensions count.
func (s *Store) GetEmbedding(ctx context.Context, path string) ([]float32, error) {
	var vector []byte
	var dimensions int
	err := s.db.QueryRowContext(ctx, `SELECT vector, dimensions FROM embeddings WHERE path = ?`, path).
		Scan(&vector, &dimensions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get embedding for %q: %w", path, err)
	}

	return decodeVector(vector, dimensions)
}

// HasEmbedding reports whether path has an embedding row, without decoding it.
func (s *Store) HasEmbedding(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM embeddings WHERE path = ?`, path).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check embedding for %q: %w", path, err)
	}
	return true, nil
}

// PathEmbedding pairs a path with its decoded vector.
type PathEmbedding struct {
	Path   string
	Vector []float32
}

// GetAllEmbeddings streams every (path, vector) pair; required for clustering.
func (s *Store) GetAllEmbeddings(ctx context.Context) ([]PathEmbedding, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, vector, dimensions FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("query all embeddings: %w", err)
	}
	defer rows.Close()

	var out []PathEmbedding
	for rows.Next() {
		var path string
		var vector []byte
		var dimensions int
		if err := rows.Scan(&path, &vector, &dimensions); err != nil {
			return nil, fmt.Errorf("scan embedding row: %w", err)
		}
		decoded, err := decodeVector(vector, dimensions)
		if err != nil {
			return nil, err
		}
		out = append(out, PathEmbedding{Path: path, Vector: decoded})
	}
	return out, rows.Err()
}
