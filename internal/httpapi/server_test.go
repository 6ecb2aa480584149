package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deco-run/deco-core/internal/appconfig"
	"github.com/deco-run/deco-core/internal/domain"
	"github.com/deco-run/deco-core/internal/events"
	"github.com/deco-run/deco-core/internal/ops"
	"github.com/deco-run/deco-core/internal/secrets"
	"github.com/deco-run/deco-core/internal/storage"
)

// fakeProvider is an in-memory storage.Provider stand-in exercising only the
// paths the HTTP handlers touch.
type fakeProvider struct {
	recent      []appconfig.RecentProject
	metadata    map[string]*storage.ProjectMetadata
	images      map[string]domain.Image
	tags        []domain.TagCount
	embeddings  map[string][]float32
	similar     []domain.SimilarResult
	searchHits  []domain.SearchResult
	clusters    []ops.Cluster
	ungrouped   int
	cfg         appconfig.Config
	moved       []string
	deleted     []string
	embedCalls  [][]string
	updatePatch domain.ImagePatch

	similarLimit     int
	clusterThreshold float64
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		metadata:   map[string]*storage.ProjectMetadata{},
		images:     map[string]domain.Image{},
		embeddings: map[string][]float32{},
	}
}

func (f *fakeProvider) CreateProject(ctx context.Context, projectsFolder, name string) (storage.ProjectInfo, error) {
	return storage.ProjectInfo{Name: name}, nil
}
func (f *fakeProvider) ListRecent(ctx context.Context) ([]appconfig.RecentProject, error) {
	return f.recent, nil
}
func (f *fakeProvider) AddToRecent(ctx context.Context, name, path string) error { return nil }
func (f *fakeProvider) ScanFolderForProjects(ctx context.Context, folder string) ([]storage.ProjectInfo, error) {
	return nil, nil
}
func (f *fakeProvider) ReadProjectMetadata(ctx context.Context, projectPath string) (*storage.ProjectMetadata, error) {
	meta, ok := f.metadata[projectPath]
	if !ok {
		return nil, assert.AnError
	}
	return meta, nil
}
func (f *fakeProvider) WriteProjectMetadata(ctx context.Context, meta storage.ProjectMetadata) error {
	return nil
}
func (f *fakeProvider) SaveBoardState(ctx context.Context, projectPath string, board ops.Board) error {
	return nil
}
func (f *fakeProvider) LoadBoardState(ctx context.Context, projectPath string) (*ops.Board, error) {
	return nil, nil
}
func (f *fakeProvider) MoveBoardItem(ctx context.Context, projectPath, filename string, x, y float64) error {
	f.moved = append(f.moved, filename)
	return nil
}
func (f *fakeProvider) IndexImages(ctx context.Context, projectPath string, metas []domain.Image) (int, error) {
	return len(metas), nil
}
func (f *fakeProvider) UpsertImageMetadata(ctx context.Context, projectPath string, meta domain.Image) error {
	f.images[meta.Path] = meta
	return nil
}
func (f *fakeProvider) UpdateImageMetadata(ctx context.Context, projectPath, filename string, patch domain.ImagePatch) (*domain.Image, error) {
	f.updatePatch = patch
	existing := f.images[filename]
	merged := domain.MergeImage(existing, patch)
	f.images[filename] = merged
	return &merged, nil
}
func (f *fakeProvider) SearchText(ctx context.Context, projectPath, query string, limit int) ([]domain.SearchResult, error) {
	return f.searchHits, nil
}
func (f *fakeProvider) GetAllTags(ctx context.Context, projectPath string) ([]domain.TagCount, error) {
	return f.tags, nil
}
func (f *fakeProvider) GetImagesByTag(ctx context.Context, projectPath, tag string) ([]string, error) {
	return nil, nil
}
func (f *fakeProvider) QueryImageRow(ctx context.Context, projectPath, path string) (*domain.Image, error) {
	img, ok := f.images[path]
	if !ok {
		return nil, assert.AnError
	}
	return &img, nil
}
func (f *fakeProvider) DeleteImageData(ctx context.Context, projectPath, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}
func (f *fakeProvider) ListImagePaths(ctx context.Context, projectPath string) ([]string, error) {
	paths := make([]string, 0, len(f.images))
	for p := range f.images {
		paths = append(paths, p)
	}
	return paths, nil
}
func (f *fakeProvider) StoreEmbedding(ctx context.Context, projectPath, path, model string, vector []float32) error {
	f.embeddings[path] = vector
	return nil
}
func (f *fakeProvider) EmbedProject(ctx context.Context, projectPath string, paths []string) (int, error) {
	f.embedCalls = append(f.embedCalls, paths)
	for _, p := range paths {
		if _, ok := f.embeddings[p]; !ok {
			f.embeddings[p] = []float32{0.1, 0.2, 0.3}
		}
	}
	return len(paths), nil
}
func (f *fakeProvider) HasEmbedding(ctx context.Context, projectPath, path string) (bool, error) {
	_, ok := f.embeddings[path]
	return ok, nil
}
func (f *fakeProvider) GetEmbedding(ctx context.Context, projectPath, path string) ([]float32, error) {
	return f.embeddings[path], nil
}
func (f *fakeProvider) FindSimilar(ctx context.Context, projectPath, imagePath string, limit int) ([]domain.SimilarResult, error) {
	f.similarLimit = limit
	return f.similar, nil
}
func (f *fakeProvider) Cluster(ctx context.Context, projectPath string, threshold float64) ([]ops.Cluster, int, error) {
	f.clusterThreshold = threshold
	return f.clusters, f.ungrouped, nil
}
func (f *fakeProvider) ReadAppConfig(ctx context.Context) (*appconfig.Config, error) { return &f.cfg, nil }
func (f *fakeProvider) WriteAppConfig(ctx context.Context, cfg appconfig.Config) error {
	f.cfg = cfg
	return nil
}
func (f *fakeProvider) GetAPIPort(ctx context.Context) (int, error) { return f.cfg.APIPort, nil }
func (f *fakeProvider) Close() error                                { return nil }

func newTestServer(t *testing.T) (*Server, *fakeProvider) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	store, err := secrets.Open()
	require.NoError(t, err)

	provider := newFakeProvider()
	srv := New(provider, store, events.New())
	return srv, provider
}

func TestHandleStatusReturnsVersionAndPort(t *testing.T) {
	srv, provider := newTestServer(t)
	provider.cfg.APIPort = 7890

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(7890), body["port"])
}

func TestHandleListProjectsEnrichesImageCount(t *testing.T) {
	srv, provider := newTestServer(t)
	provider.recent = []appconfig.RecentProject{{Name: "a", Path: "/projects/a"}}
	provider.metadata["/projects/a"] = &storage.ProjectMetadata{Name: "a", ImageCount: 3}

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []projectSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].ImageCount)
}

func TestHandleListProjectsDefaultsImageCountWhenMetadataMissing(t *testing.T) {
	srv, provider := newTestServer(t)
	provider.recent = []appconfig.RecentProject{{Name: "b", Path: "/projects/b"}}

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	var summaries []projectSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].ImageCount)
}

func TestHandleGetAllTagsRequiresProjectPath(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetAllTagsReturnsTags(t *testing.T) {
	srv, provider := newTestServer(t)
	provider.tags = []domain.TagCount{{Tag: "sunset", Count: 5}}

	req := httptest.NewRequest(http.MethodGet, "/api/tags?projectPath=/p", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]domain.TagCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, provider.tags, body["tags"])
}

func multipartImportBody(t *testing.T, projectPath string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	require.NoError(t, w.WriteField("project_path", projectPath))
	for k, v := range extra {
		require.NoError(t, w.WriteField(k, v))
	}

	part, err := w.CreateFormFile("file", "pasted.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-png-bytes"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestHandleImportStoresFileAndEmitsEvent(t *testing.T) {
	srv, _ := newTestServer(t)
	projectDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, "images"), 0o755))

	sub, unsubscribe := srv.emit.Subscribe()
	defer unsubscribe()

	body, contentType := multipartImportBody(t, projectDir, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.FileExists(t, resp.Path)

	select {
	case evt := <-sub:
		assert.Equal(t, "api:image-imported", evt.Name)
	default:
		t.Fatal("expected an api:image-imported event")
	}
}

func TestHandleImportRequiresProjectPath(t *testing.T) {
	srv, _ := newTestServer(t)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeleteRemovesImageAndEmitsEvent(t *testing.T) {
	srv, _ := newTestServer(t)
	projectDir := t.TempDir()
	imagesDir := filepath.Join(projectDir, "images")
	require.NoError(t, os.MkdirAll(imagesDir, 0o755))
	imgPath := filepath.Join(imagesDir, "a.png")
	require.NoError(t, os.WriteFile(imgPath, []byte("x"), 0o644))

	sub, unsubscribe := srv.emit.Subscribe()
	defer unsubscribe()

	payload, _ := json.Marshal(deleteRequest{ProjectPath: projectDir, Filename: "a.png"})
	req := httptest.NewRequest(http.MethodDelete, "/api/delete", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NoFileExists(t, imgPath)

	select {
	case evt := <-sub:
		assert.Equal(t, "api:image-deleted", evt.Name)
	default:
		t.Fatal("expected an api:image-deleted event")
	}
}

func TestHandleDeleteRequiresFilename(t *testing.T) {
	srv, _ := newTestServer(t)

	payload, _ := json.Marshal(deleteRequest{ProjectPath: "/p"})
	req := httptest.NewRequest(http.MethodDelete, "/api/delete", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMoveUpdatesBoardPosition(t *testing.T) {
	srv, provider := newTestServer(t)

	payload, _ := json.Marshal(moveRequest{ProjectPath: "/p", Filename: "a.png", X: 10, Y: 20})
	req := httptest.NewRequest(http.MethodPost, "/api/move", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a.png"}, provider.moved)
}

func TestHandleUpdateItemMergesPatchAndEmitsEvent(t *testing.T) {
	srv, provider := newTestServer(t)
	provider.images["a.png"] = domain.Image{Path: "a.png", Name: "old"}

	sub, unsubscribe := srv.emit.Subscribe()
	defer unsubscribe()

	title := "new title"
	artist := "someone"
	payload, _ := json.Marshal(updateItemRequest{
		ProjectPath: "/p",
		Filename:    "a.png",
		Title:       &title,
		Artist:      &artist,
	})
	req := httptest.NewRequest(http.MethodPatch, "/api/item", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Image
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "new title", updated.Name)

	select {
	case evt := <-sub:
		assert.Equal(t, "api:item-updated", evt.Name)
	default:
		t.Fatal("expected an api:item-updated event")
	}
}

func TestHandleEmbedSkipsReembeddingWhenAlreadyPresent(t *testing.T) {
	srv, provider := newTestServer(t)
	provider.embeddings["a.png"] = []float32{1, 2, 3}

	payload, _ := json.Marshal(embedRequest{ProjectPath: "/p", ImagePath: "a.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/embed", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, provider.embedCalls, "should not re-embed an already-embedded image")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["dimensions"])
}

func TestHandleEmbedEmbedsWhenMissing(t *testing.T) {
	srv, provider := newTestServer(t)

	payload, _ := json.Marshal(embedRequest{ProjectPath: "/p", ImagePath: "new.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/embed", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, provider.embedCalls, 1)
}

func TestHandleEmbedBatchCountsTotalFromStorageWhenPathsOmitted(t *testing.T) {
	srv, provider := newTestServer(t)
	provider.images["a.png"] = domain.Image{Path: "a.png"}
	provider.images["b.png"] = domain.Image{Path: "b.png"}

	payload, _ := json.Marshal(embedBatchRequest{ProjectPath: "/p"})
	req := httptest.NewRequest(http.MethodPost, "/api/embed-batch", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body["totalImages"])
}

func TestHandleSimilarDefaultsLimit(t *testing.T) {
	srv, provider := newTestServer(t)
	provider.similar = []domain.SimilarResult{{Path: "b.png", Score: 0.9}}

	payload, _ := json.Marshal(similarRequest{ProjectPath: "/p", ImagePath: "a.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/similar", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a.png", body["query"])
	assert.Equal(t, defaultLimit, provider.similarLimit)
}

func TestHandleSimilarRequiresImagePath(t *testing.T) {
	srv, _ := newTestServer(t)

	payload, _ := json.Marshal(similarRequest{ProjectPath: "/p"})
	req := httptest.NewRequest(http.MethodPost, "/api/similar", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearchSemanticMapsResults(t *testing.T) {
	srv, provider := newTestServer(t)
	provider.searchHits = []domain.SearchResult{{Path: "a.png", Name: "a", Score: 1.5}}

	payload, _ := json.Marshal(searchSemanticRequest{ProjectPath: "/p", Query: "sunset"})
	req := httptest.NewRequest(http.MethodPost, "/api/search-semantic", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	results := body["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "a.png", first["imagePath"])
}

func TestHandleClusterDefaultsThreshold(t *testing.T) {
	srv, provider := newTestServer(t)
	provider.clusters = []ops.Cluster{{Members: []string{"a.png", "b.png"}}}
	provider.ungrouped = 1

	payload, _ := json.Marshal(clusterRequest{ProjectPath: "/p"})
	req := httptest.NewRequest(http.MethodPost, "/api/cluster", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["clusterCount"])
	assert.Equal(t, float64(1), body["ungrouped"])
	assert.Equal(t, 0.7, provider.clusterThreshold)
}

func TestHandleClusterRequiresProjectPath(t *testing.T) {
	srv, _ := newTestServer(t)

	payload, _ := json.Marshal(clusterRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/cluster", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
