package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deco-run/deco-core/internal/apperr"
)

type embedRequest struct {
	ProjectPath string `json:"projectPath"`
	ImagePath   string `json:"imagePath"`
}

func (s *Server) handleEmbed(c echo.Context) error {
	var req embedRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, apperr.New(apperr.CategoryValidation, err))
	}
	if req.ProjectPath == "" || req.ImagePath == "" {
		return errResponse(c, apperr.Newf(apperr.CategoryValidation, "projectPath and imagePath are required"))
	}
	ctx := c.Request().Context()

	has, err := s.storage.HasEmbedding(ctx, req.ProjectPath, req.ImagePath)
	if err != nil {
		return errResponse(c, err)
	}
	if !has {
		if _, err := s.storage.EmbedProject(ctx, req.ProjectPath, []string{req.ImagePath}); err != nil {
			return errResponse(c, err)
		}
	}

	vector, err := s.storage.GetEmbedding(ctx, req.ProjectPath, req.ImagePath)
	if err != nil {
		return errResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"imagePath":  req.ImagePath,
		"dimensions": len(vector),
		"embedding":  vector,
	})
}

type embedBatchRequest struct {
	ProjectPath string   `json:"projectPath"`
	ImagePaths  []string `json:"imagePaths"`
}

func (s *Server) handleEmbedBatch(c echo.Context) error {
	var req embedBatchRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, apperr.New(apperr.CategoryValidation, err))
	}
	if req.ProjectPath == "" {
		return errResponse(c, apperr.Newf(apperr.CategoryValidation, "projectPath is required"))
	}
	ctx := c.Request().Context()

	total := len(req.ImagePaths)
	if total == 0 {
		all, err := s.storage.ListImagePaths(ctx, req.ProjectPath)
		if err != nil {
			return errResponse(c, err)
		}
		total = len(all)
	}

	embedded, err := s.storage.EmbedProject(ctx, req.ProjectPath, req.ImagePaths)
	if err != nil {
		return errResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]int{"embedded": embedded, "totalImages": total})
}
