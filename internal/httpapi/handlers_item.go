package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/domain"
)

// updateItemRequest mirrors the HTTP PATCH body. Artist is accepted for
// forward-compatibility with the GUI's edit form but is not part of the
// persisted Image record — there is nowhere in the schema for it yet.
type updateItemRequest struct {
	ProjectPath string   `json:"projectPath"`
	Filename    string   `json:"filename"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
	Styles      []string `json:"styles"`
	Moods       []string `json:"moods"`
	Era         *string  `json:"era"`
	Artist      *string  `json:"artist"`
}

func (s *Server) handleUpdateItem(c echo.Context) error {
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, apperr.New(apperr.CategoryValidation, err))
	}
	if req.ProjectPath == "" || req.Filename == "" {
		return errResponse(c, apperr.Newf(apperr.CategoryValidation, "projectPath and filename are required"))
	}

	patch := domain.ImagePatch{
		Name:        req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Style:       req.Styles,
		Mood:        req.Moods,
		Era:         req.Era,
	}

	updated, err := s.storage.UpdateImageMetadata(c.Request().Context(), req.ProjectPath, req.Filename, patch)
	if err != nil {
		return errResponse(c, err)
	}

	s.emit.Emit("api:item-updated", map[string]any{"filename": req.Filename, "metadata": updated})
	return c.JSON(http.StatusOK, updated)
}
