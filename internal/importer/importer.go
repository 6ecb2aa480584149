// Package importer moves image bytes onto disk (pasted or dragged in from
// the filesystem) and keeps the search index in step with what's there.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/domain"
	"github.com/deco-run/deco-core/internal/events"
	"github.com/deco-run/deco-core/internal/storage"
)

// ImageInfo describes a single image that was written into a project's
// images directory, whether it arrived as pasted bytes or a copied file.
type ImageInfo struct {
	ID       string
	Filename string
	Path     string // absolute path on disk
	Position int    // 1-based order within this import call
}

// Importer writes images into project directories and keeps their metadata
// and embeddings in sync in the background.
type Importer struct {
	storage storage.Provider
	log     *slog.Logger
	emit    *events.Emitter
}

// Option customizes an Importer at construction time.
type Option func(*Importer)

// WithEmitter wires an event bus so folder and recent-projects watchers can
// notify GUI clients of changes they picked up from outside the app.
func WithEmitter(emit *events.Emitter) Option {
	return func(im *Importer) { im.emit = emit }
}

func New(store storage.Provider, opts ...Option) *Importer {
	im := &Importer{storage: store, log: slog.Default()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportBytes writes a single pasted image into projectPath/images, naming
// it paste-{millis-since-epoch}{ext}, appending -2, -3, ... on collision.
func (im *Importer) ImportBytes(ctx context.Context, projectPath string, data []byte, ext string) (ImageInfo, error) {
	if !IsAllowedExtension(ext) {
		return ImageInfo{}, apperr.Newf(apperr.CategoryValidation, "unsupported image extension %q", ext)
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	ext = strings.ToLower(ext)

	imagesDir := filepath.Join(projectPath, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return ImageInfo{}, apperr.New(apperr.CategoryStorage, fmt.Errorf("create images dir: %w", err))
	}

	stem := fmt.Sprintf("paste-%d", time.Now().UnixMilli())
	filename, destPath, err := uniqueDestination(imagesDir, stem, ext)
	if err != nil {
		return ImageInfo{}, err
	}

	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return ImageInfo{}, apperr.New(apperr.CategoryStorage, fmt.Errorf("write pasted image: %w", err))
	}

	info := ImageInfo{ID: uuid.NewString(), Filename: filename, Path: destPath, Position: 1}
	im.indexAndEmbedAsync(projectPath, []ImageInfo{info})
	return info, nil
}

// ImportFiles copies each source path into projectPath/images, preserving
// its original stem and appending a collision counter where needed. Entries
// that aren't regular files or don't carry an allowed extension are skipped
// silently — the caller already filtered via an OS file picker or drag-drop,
// so a stray directory or sidecar file is not an error.
func (im *Importer) ImportFiles(ctx context.Context, projectPath string, sourcePaths []string) ([]ImageInfo, error) {
	imagesDir := filepath.Join(projectPath, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, apperr.New(apperr.CategoryStorage, fmt.Errorf("create images dir: %w", err))
	}

	var imported []ImageInfo
	for _, src := range sourcePaths {
		fi, err := os.Stat(src)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(src))
		if !IsAllowedExtension(ext) {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		filename, destPath, err := uniqueDestination(imagesDir, stem, ext)
		if err != nil {
			return imported, err
		}
		if err := copyFile(src, destPath); err != nil {
			return imported, apperr.New(apperr.CategoryStorage, fmt.Errorf("copy %s: %w", src, err))
		}
		imported = append(imported, ImageInfo{
			ID:       uuid.NewString(),
			Filename: filename,
			Path:     destPath,
			Position: len(imported) + 1,
		})
	}

	im.indexAndEmbedAsync(projectPath, imported)
	return imported, nil
}

// Delete removes an image file, its thumbnail derivatives, and its database
// rows, in that order. The image path must resolve inside the project's
// images directory; anything that escapes it is rejected before any
// filesystem operation runs. The database step is best-effort: by the time
// it runs the file is already gone, so a failure there is logged, not
// raised — the user's mental model (the image disappeared) is already
// satisfied.
func (im *Importer) Delete(ctx context.Context, projectPath, imagePath string) error {
	imagesDir := filepath.Join(projectPath, "images")
	resolved, err := ValidatePathInDirectory(imagePath, imagesDir)
	if err != nil {
		return apperr.New(apperr.CategoryValidation, fmt.Errorf("reject image path: %w", err))
	}

	if err := os.Remove(resolved); err != nil && !os.IsNotExist(err) {
		return apperr.New(apperr.CategoryStorage, fmt.Errorf("remove image file: %w", err))
	}

	im.removeThumbnailDerivatives(projectPath, resolved)

	if err := im.storage.DeleteImageData(ctx, projectPath, resolved); err != nil {
		im.log.Warn("delete image metadata failed after file removal", "path", resolved, "error", err)
	}
	return nil
}

// removeThumbnailDerivatives deletes any thumbnail that shares the source
// image's stem (thumbnail generation itself is out of scope here; only
// cleanup of whatever a thumbnailer already produced is).
func (im *Importer) removeThumbnailDerivatives(projectPath, imagePath string) {
	thumbsDir := filepath.Join(projectPath, "thumbnails")
	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))

	for ext := range AllowedExtensions {
		candidate := filepath.Join(thumbsDir, stem+ext)
		if err := os.Remove(candidate); err != nil && !os.IsNotExist(err) {
			im.log.Warn("remove thumbnail derivative failed", "path", candidate, "error", err)
		}
	}
	// Also try the exact source filename, in case the thumbnailer kept the
	// original extension instead of normalizing it.
	exact := filepath.Join(thumbsDir, filepath.Base(imagePath))
	if err := os.Remove(exact); err != nil && !os.IsNotExist(err) {
		im.log.Warn("remove thumbnail derivative failed", "path", exact, "error", err)
	}
}

// indexAndEmbedAsync runs IndexImages then EmbedProject for the freshly
// imported paths in the background. Import calls return as soon as bytes
// are on disk; indexing and embedding catch up without blocking the caller.
// Failures are logged only — an import that succeeded on disk should never
// be reported as failed because the embedder was slow or unavailable.
func (im *Importer) indexAndEmbedAsync(projectPath string, imported []ImageInfo) {
	if len(imported) == 0 {
		return
	}
	paths := make([]string, len(imported))
	metas := make([]domain.Image, len(imported))
	for i, info := range imported {
		paths[i] = info.Path
		metas[i] = domain.Image{Path: info.Path, Name: nameFromFilename(info.Filename)}
	}

	go func() {
		ctx := context.Background()
		if _, err := im.storage.IndexImages(ctx, projectPath, metas); err != nil {
			im.log.Warn("background index failed", "project", projectPath, "count", len(metas), "error", err)
			return
		}
		if _, err := im.storage.EmbedProject(ctx, projectPath, paths); err != nil {
			im.log.Warn("background embed failed", "project", projectPath, "count", len(paths), "error", err)
		}
	}()
}

// nameFromFilename derives a default image display name from its filename,
// stripping the extension.
func nameFromFilename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// uniqueDestination returns a filename/path pair under dir for stem+ext,
// appending -2, -3, ... the first time stem collides with an existing file.
func uniqueDestination(dir, stem, ext string) (filename, path string, err error) {
	filename = stem + ext
	path = filepath.Join(dir, filename)
	for n := 2; ; n++ {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return filename, path, nil
		} else if statErr != nil {
			return "", "", apperr.New(apperr.CategoryStorage, fmt.Errorf("stat %s: %w", path, statErr))
		}
		filename = fmt.Sprintf("%s-%d%s", stem, n, ext)
		path = filepath.Join(dir, filename)
		if n > 10000 {
			return "", "", apperr.Newf(apperr.CategoryStorage, "could not find unique filename for %s", stem)
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
