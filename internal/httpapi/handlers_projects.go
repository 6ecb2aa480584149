package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type projectSummary struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	ImageCount int    `json:"imageCount"`
}

func (s *Server) handleListProjects(c echo.Context) error {
	ctx := c.Request().Context()
	recents, err := s.storage.ListRecent(ctx)
	if err != nil {
		return errResponse(c, err)
	}

	summaries := make([]projectSummary, 0, len(recents))
	for _, r := range recents {
		count := 0
		if meta, err := s.storage.ReadProjectMetadata(ctx, r.Path); err == nil && meta != nil {
			count = meta.ImageCount
		}
		summaries = append(summaries, projectSummary{Name: r.Name, Path: r.Path, ImageCount: count})
	}
	return c.JSON(http.StatusOK, summaries)
}
