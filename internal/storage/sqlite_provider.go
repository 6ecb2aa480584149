package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/deco-run/deco-core/internal/appconfig"
	"github.com/deco-run/deco-core/internal/embedder"
	"github.com/deco-run/deco-core/internal/store"
	"github.com/deco-run/deco-core/internal/workerpool"
)

// clipModelName is the model identifier recorded alongside every embedding
// row, so a future model swap can be detected by comparing this string.
const clipModelName = "clip-vit-b32"

// Embedder is the capability the storage provider needs from an image
// model. *embedder.Embedder satisfies it; tests inject a fake to exercise
// embed_project/find_similar without loading ONNX.
type Embedder interface {
	Embed(ctx context.Context, paths []string, batchSize int) ([][]float32, error)
}

// SQLiteProvider is the local implementation of Provider: one *store.Store
// handle per open project, one process-wide Embedder, and a bounded worker
// pool dispatching every blocking call off the caller's reactor.
type SQLiteProvider struct {
	embed Embedder
	pool  *workerpool.Pool

	mu      sync.Mutex
	handles map[string]*store.Store
}

// New constructs a SQLiteProvider. modelPath is the on-disk CLIP ONNX model
// file; poolSize bounds concurrent blocking SQLite/CLIP calls.
func New(modelPath string, poolSize int64) *SQLiteProvider {
	return &SQLiteProvider{
		embed:   embedder.New(modelPath),
		pool:    workerpool.New(poolSize),
		handles: make(map[string]*store.Store),
	}
}

// NewWithEmbedder is New but with an injected Embedder capability, used by
// tests and by callers backing the provider with a remote embedding service.
func NewWithEmbedder(embed Embedder, poolSize int64) *SQLiteProvider {
	return &SQLiteProvider{
		embed:   embed,
		pool:    workerpool.New(poolSize),
		handles: make(map[string]*store.Store),
	}
}

// storeFor returns the cached Store handle for projectPath, opening it on
// first use.
func (p *SQLiteProvider) storeFor(projectPath string) (*store.Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.handles[projectPath]; ok {
		return s, nil
	}

	s, err := store.Open(searchDBPath(projectPath))
	if err != nil {
		return nil, fmt.Errorf("open store for project %q: %w", projectPath, err)
	}
	p.handles[projectPath] = s
	return s, nil
}

// Close closes every cached Store handle and releases the Embedder.
func (p *SQLiteProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for path, s := range p.handles {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close store for project %q: %w", path, err)
		}
	}
	p.handles = make(map[string]*store.Store)

	if closer, ok := p.embed.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadAppConfig, WriteAppConfig, GetAPIPort delegate to internal/appconfig,
// which re-reads from disk on every call (no in-memory cache, per spec).
func (p *SQLiteProvider) ReadAppConfig(ctx context.Context) (*appconfig.Config, error) {
	return workerpool.Run(ctx, p.pool, func() (*appconfig.Config, error) {
		return appconfig.Load()
	})
}

func (p *SQLiteProvider) WriteAppConfig(ctx context.Context, cfg appconfig.Config) error {
	return workerpool.RunVoid(ctx, p.pool, func() error {
		return cfg.Save()
	})
}

func (p *SQLiteProvider) GetAPIPort(ctx context.Context) (int, error) {
	return workerpool.Run(ctx, p.pool, func() (int, error) {
		return appconfig.GetAPIPort()
	})
}
