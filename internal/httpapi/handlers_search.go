package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deco-run/deco-core/internal/apperr"
)

const defaultLimit = 10

type similarRequest struct {
	ProjectPath string `json:"projectPath"`
	ImagePath   string `json:"imagePath"`
	Limit       int    `json:"limit"`
}

func (s *Server) handleSimilar(c echo.Context) error {
	var req similarRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, apperr.New(apperr.CategoryValidation, err))
	}
	if req.ProjectPath == "" || req.ImagePath == "" {
		return errResponse(c, apperr.Newf(apperr.CategoryValidation, "projectPath and imagePath are required"))
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}

	results, err := s.storage.FindSimilar(c.Request().Context(), req.ProjectPath, req.ImagePath, req.Limit)
	if err != nil {
		return errResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"query": req.ImagePath, "results": results})
}

type searchSemanticRequest struct {
	ProjectPath string `json:"projectPath"`
	Query       string `json:"query"`
	Limit       int    `json:"limit"`
}

// handleSearchSemantic is backed by FTS today (spec.md Open Question #2
// permits swapping in a text-CLIP embedding search later without a wire
// break); the response shape matches /api/similar so the GUI can share one
// results renderer.
func (s *Server) handleSearchSemantic(c echo.Context) error {
	var req searchSemanticRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, apperr.New(apperr.CategoryValidation, err))
	}
	if req.ProjectPath == "" || req.Query == "" {
		return errResponse(c, apperr.Newf(apperr.CategoryValidation, "projectPath and query are required"))
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}

	hits, err := s.storage.SearchText(c.Request().Context(), req.ProjectPath, req.Query, req.Limit)
	if err != nil {
		return errResponse(c, err)
	}

	results := make([]map[string]any, len(hits))
	for i, h := range hits {
		results[i] = map[string]any{
			"imagePath":   h.Path,
			"name":        h.Name,
			"score":       h.Score,
			"description": h.Description,
			"tags":        h.Tags,
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"query": req.Query, "results": results})
}

type clusterRequest struct {
	ProjectPath string  `json:"projectPath"`
	Threshold   float64 `json:"threshold"`
}

func (s *Server) handleCluster(c echo.Context) error {
	var req clusterRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, apperr.New(apperr.CategoryValidation, err))
	}
	if req.ProjectPath == "" {
		return errResponse(c, apperr.Newf(apperr.CategoryValidation, "projectPath is required"))
	}
	if req.Threshold <= 0 {
		req.Threshold = 0.7
	}

	clusters, ungrouped, err := s.storage.Cluster(c.Request().Context(), req.ProjectPath, req.Threshold)
	if err != nil {
		return errResponse(c, err)
	}

	type clusterView struct {
		ID     int      `json:"id"`
		Size   int      `json:"size"`
		Images []string `json:"images"`
	}
	views := make([]clusterView, len(clusters))
	for i, cl := range clusters {
		views[i] = clusterView{ID: i, Size: len(cl.Members), Images: cl.Members}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"clusterCount": len(views),
		"ungrouped":    ungrouped,
		"clusters":     views,
	})
}
