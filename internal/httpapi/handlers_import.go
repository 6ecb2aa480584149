package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/deco-run/deco-core/internal/aiorchestrator"
	"github.com/deco-run/deco-core/internal/apperr"
)

type importResponse struct {
	ID       string                   `json:"id"`
	Filename string                   `json:"filename"`
	Path     string                   `json:"path"`
	Position *importPosition          `json:"position,omitempty"`
	Analysis *aiorchestrator.Analysis `json:"analysis,omitempty"`
}

type importPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// handleImport accepts a multipart form: field "file" (binary upload) or
// "url" (remote image to fetch), required "project_path", optional
// "analyze=true|1", optional "position" (JSON {x,y}).
func (s *Server) handleImport(c echo.Context) error {
	ctx := c.Request().Context()
	projectPath := c.FormValue("project_path")
	if projectPath == "" {
		return errResponse(c, apperr.Newf(apperr.CategoryValidation, "project_path is required"))
	}

	data, ext, err := readImportSource(c)
	if err != nil {
		return errResponse(c, err)
	}

	info, err := s.importer.ImportBytes(ctx, projectPath, data, ext)
	if err != nil {
		return errResponse(c, err)
	}

	resp := importResponse{ID: info.ID, Filename: info.Filename, Path: info.Path}

	if raw := c.FormValue("position"); raw != "" {
		var pos importPosition
		if err := json.Unmarshal([]byte(raw), &pos); err == nil {
			resp.Position = &pos
		}
	}

	if analyzeFlag := c.FormValue("analyze"); analyzeFlag == "true" || analyzeFlag == "1" {
		orchestrator, err := s.newOrchestrator(c)
		if err != nil {
			return errResponse(c, err)
		}
		analysis, err := orchestrator.Analyze(ctx, projectPath, info.Path, info.Filename, nil)
		if err != nil {
			return errResponse(c, err)
		}
		resp.Analysis = &analysis
	}

	s.emit.Emit("api:image-imported", map[string]any{"image": resp, "position": resp.Position})
	return c.JSON(http.StatusOK, resp)
}

// readImportSource reads either the "file" multipart field or downloads the
// "url" field, returning raw bytes and a best-effort file extension.
func readImportSource(c echo.Context) ([]byte, string, error) {
	if fileHeader, err := c.FormFile("file"); err == nil {
		src, err := fileHeader.Open()
		if err != nil {
			return nil, "", apperr.New(apperr.CategoryStorage, err)
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return nil, "", apperr.New(apperr.CategoryStorage, err)
		}
		return data, filepath.Ext(fileHeader.Filename), nil
	}

	url := c.FormValue("url")
	if url == "" {
		return nil, "", apperr.Newf(apperr.CategoryValidation, "either file or url field is required")
	}

	resp, err := http.Get(url) //nolint:gosec // user-provided URL is the whole point of this feature
	if err != nil {
		return nil, "", apperr.New(apperr.CategoryExternalProvider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", apperr.Newf(apperr.CategoryExternalProvider, "fetching %s returned status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperr.New(apperr.CategoryExternalProvider, err)
	}

	ext := filepath.Ext(url)
	if idx := strings.IndexAny(ext, "?#"); idx != -1 {
		ext = ext[:idx]
	}
	if ext == "" {
		if mime := resp.Header.Get("Content-Type"); strings.Contains(mime, "/") {
			ext = "." + strings.TrimPrefix(mime[strings.Index(mime, "/")+1:], "x-")
		}
	}
	return data, ext, nil
}
