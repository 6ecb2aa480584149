// Package storage defines the StorageProvider capability-set trait that
// every higher component (HTTP surface, command surface, importer) depends
// on, and the local SQLite-backed implementation of it. The indirection
// means the same application could be backed by a remote service later
// without touching the HTTP or command surfaces.
package storage

import (
	"context"

	"github.com/deco-run/deco-core/internal/appconfig"
	"github.com/deco-run/deco-core/internal/domain"
	"github.com/deco-run/deco-core/internal/ops"
)

// ProjectInfo is one entry of list_recent / scan_folder_for_projects.
type ProjectInfo struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	ImageCount int    `json:"imageCount"`
}

// ProjectMetadata is the contents of {project}/metadata.json.
type ProjectMetadata struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ImageCount  int      `json:"imageCount"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// Provider is the capability set every higher component depends on. The
// Store and Embedder implementations are hidden behind it.
type Provider interface {
	// Projects
	CreateProject(ctx context.Context, projectsFolder, name string) (ProjectInfo, error)
	ListRecent(ctx context.Context) ([]appconfig.RecentProject, error)
	AddToRecent(ctx context.Context, name, path string) error
	ScanFolderForProjects(ctx context.Context, folder string) ([]ProjectInfo, error)

	// Metadata
	ReadProjectMetadata(ctx context.Context, projectPath string) (*ProjectMetadata, error)
	WriteProjectMetadata(ctx context.Context, meta ProjectMetadata) error

	// Board
	SaveBoardState(ctx context.Context, projectPath string, board ops.Board) error
	LoadBoardState(ctx context.Context, projectPath string) (*ops.Board, error)
	MoveBoardItem(ctx context.Context, projectPath, filename string, x, y float64) error

	// Images
	IndexImages(ctx context.Context, projectPath string, metas []domain.Image) (int, error)
	UpsertImageMetadata(ctx context.Context, projectPath string, meta domain.Image) error
	UpdateImageMetadata(ctx context.Context, projectPath, filename string, patch domain.ImagePatch) (*domain.Image, error)
	SearchText(ctx context.Context, projectPath, query string, limit int) ([]domain.SearchResult, error)
	GetAllTags(ctx context.Context, projectPath string) ([]domain.TagCount, error)
	GetImagesByTag(ctx context.Context, projectPath, tag string) ([]string, error)
	QueryImageRow(ctx context.Context, projectPath, path string) (*domain.Image, error)
	DeleteImageData(ctx context.Context, projectPath, path string) error
	ListImagePaths(ctx context.Context, projectPath string) ([]string, error)

	// Embeddings
	StoreEmbedding(ctx context.Context, projectPath, path, model string, vector []float32) error
	EmbedProject(ctx context.Context, projectPath string, paths []string) (int, error)
	HasEmbedding(ctx context.Context, projectPath, path string) (bool, error)
	GetEmbedding(ctx context.Context, projectPath, path string) ([]float32, error)
	FindSimilar(ctx context.Context, projectPath, imagePath string, limit int) ([]domain.SimilarResult, error)
	Cluster(ctx context.Context, projectPath string, threshold float64) ([]ops.Cluster, int, error)

	// Config
	ReadAppConfig(ctx context.Context) (*appconfig.Config, error)
	WriteAppConfig(ctx context.Context, cfg appconfig.Config) error
	GetAPIPort(ctx context.Context) (int, error)

	// Close releases every open per-project resource (SQLite handles, the
	// CLIP model).
	Close() error
}
