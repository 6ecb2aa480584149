// Package httpapi is the loopback-only HTTP surface: every storage/ops/AI
// operation is also reachable here, wrapped in JSON request/response
// bodies and paired with GUI event emission.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/deco-run/deco-core/internal/aiorchestrator"
	"github.com/deco-run/deco-core/internal/apperr"
	"github.com/deco-run/deco-core/internal/events"
	"github.com/deco-run/deco-core/internal/importer"
	"github.com/deco-run/deco-core/internal/secrets"
	"github.com/deco-run/deco-core/internal/storage"
)

const version = "0.1.0"

// Server is the local HTTP surface over a StorageProvider. It owns an echo
// instance bound to 127.0.0.1 only.
type Server struct {
	echo           *echo.Echo
	storage        storage.Provider
	importer       *importer.Importer
	secrets        *secrets.Store
	emit           *events.Emitter
	cancelWatchers context.CancelFunc
}

func New(store storage.Provider, secretStore *secrets.Store, emit *events.Emitter) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	watchCtx, cancel := context.WithCancel(context.Background())

	s := &Server{
		echo:           e,
		storage:        store,
		importer:       importer.New(store, importer.WithEmitter(emit)),
		secrets:        secretStore,
		emit:           emit,
		cancelWatchers: cancel,
	}
	s.routes()

	if err := s.importer.WatchRecentProjects(watchCtx); err != nil {
		slog.Warn("recent-projects watcher unavailable", "error", err)
	}

	return s
}

func (s *Server) routes() {
	s.echo.GET("/api/status", s.handleStatus)
	s.echo.GET("/api/projects", s.handleListProjects)
	s.echo.GET("/api/tags", s.handleGetAllTags)
	s.echo.GET("/api/events", s.handleEventStream)
	s.echo.POST("/api/import", s.handleImport)
	s.echo.DELETE("/api/delete", s.handleDelete)
	s.echo.POST("/api/move", s.handleMove)
	s.echo.PATCH("/api/item", s.handleUpdateItem)
	s.echo.POST("/api/embed", s.handleEmbed)
	s.echo.POST("/api/embed-batch", s.handleEmbedBatch)
	s.echo.POST("/api/similar", s.handleSimilar)
	s.echo.POST("/api/search-semantic", s.handleSearchSemantic)
	s.echo.POST("/api/cluster", s.handleCluster)
}

// Serve starts the loopback server on 127.0.0.1:port and blocks until it
// stops or ctx-independent Shutdown is called. Local callers control their
// own deadlines; the server itself enforces none.
func (s *Server) Serve(port int) error {
	return s.echo.Start(fmt.Sprintf("127.0.0.1:%d", port))
}

func (s *Server) Shutdown() error {
	s.cancelWatchers()
	return s.echo.Close()
}

func (s *Server) handleStatus(c echo.Context) error {
	port := 0
	if cfg, err := s.storage.ReadAppConfig(c.Request().Context()); err == nil {
		port = cfg.APIPort
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version,
		"port":    port,
	})
}

func (s *Server) handleGetAllTags(c echo.Context) error {
	projectPath := c.QueryParam("projectPath")
	if projectPath == "" {
		return errResponse(c, apperr.Newf(apperr.CategoryValidation, "projectPath is required"))
	}
	tags, err := s.storage.GetAllTags(c.Request().Context(), projectPath)
	if err != nil {
		return errResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"tags": tags})
}

// newOrchestrator constructs an AI orchestrator from the current app
// config, re-read on every call per the no-cache configuration contract.
func (s *Server) newOrchestrator(ctx echo.Context) (*aiorchestrator.Orchestrator, error) {
	cfg, err := s.storage.ReadAppConfig(ctx.Request().Context())
	if err != nil {
		return nil, err
	}
	provider, err := aiorchestrator.NewProvider(cfg.AI, s.secrets.Get)
	if err != nil {
		return nil, err
	}
	return aiorchestrator.New(provider, s.storage, s.emit), nil
}

// errResponse maps an apperr category to an HTTP status code and writes
// {error: string}.
func errResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	if cat, ok := apperr.CategoryOf(err); ok {
		switch cat {
		case apperr.CategoryValidation:
			status = http.StatusBadRequest
		case apperr.CategoryNotFound:
			status = http.StatusNotFound
		case apperr.CategoryStorage, apperr.CategoryInference:
			status = http.StatusInternalServerError
		case apperr.CategoryExternalProvider:
			status = http.StatusBadGateway
		case apperr.CategoryBestEffort:
			status = http.StatusOK
		}
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
