package httpapi

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/deco-run/deco-core/internal/apperr"
)

type deleteRequest struct {
	ProjectPath string `json:"projectPath"`
	Filename    string `json:"filename"`
}

func (s *Server) handleDelete(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, apperr.New(apperr.CategoryValidation, err))
	}
	if req.ProjectPath == "" || req.Filename == "" {
		return errResponse(c, apperr.Newf(apperr.CategoryValidation, "projectPath and filename are required"))
	}

	imagePath := filepath.Join(req.ProjectPath, "images", req.Filename)
	if err := s.importer.Delete(c.Request().Context(), req.ProjectPath, imagePath); err != nil {
		return errResponse(c, err)
	}

	s.emit.Emit("api:image-deleted", map[string]string{"filename": req.Filename, "project": req.ProjectPath})
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

type moveRequest struct {
	ProjectPath string  `json:"projectPath"`
	Filename    string  `json:"filename"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

func (s *Server) handleMove(c echo.Context) error {
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, apperr.New(apperr.CategoryValidation, err))
	}
	if req.ProjectPath == "" || req.Filename == "" {
		return errResponse(c, apperr.Newf(apperr.CategoryValidation, "projectPath and filename are required"))
	}

	if err := s.storage.MoveBoardItem(c.Request().Context(), req.ProjectPath, req.Filename, req.X, req.Y); err != nil {
		return errResponse(c, err)
	}

	s.emit.Emit("api:item-moved", map[string]any{"filename": req.Filename, "x": req.X, "y": req.Y})
	return c.JSON(http.StatusOK, map[string]bool{"moved": true})
}
