// Package api provides the HTTP surface for reelscope: reel/post
// browsing, profile lookup, and the viral-ideas workflow, all wrapped
// in the {success, data, message?, error?} response envelope.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/reelscope/pipeline/pkg/database"
	"github.com/reelscope/pipeline/pkg/discovery"
	"github.com/reelscope/pipeline/pkg/queue"
	"github.com/reelscope/pipeline/pkg/services"
	"github.com/reelscope/pipeline/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	dbClient   *database.Client
	pool       *queue.Pool           // nil if the worker pool isn't wired into health
	discoverer *discovery.Discoverer // nil if this pod doesn't run discovery

	reels    *services.ReelService
	profiles *services.ProfileService
	viral    *services.ViralService
}

// NewServer builds a Server and registers every route.
func NewServer(dbClient *database.Client, reels *services.ReelService, profiles *services.ProfileService, viral *services.ViralService) *Server {
	e := echo.New()

	s := &Server{
		echo:     e,
		dbClient: dbClient,
		reels:    reels,
		profiles: profiles,
		viral:    viral,
	}

	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))
	s.echo.Use(securityHeaders())
	s.setupRoutes()
	return s
}

// SetWorkerPool wires the queue worker pool into the health endpoint.
func (s *Server) SetWorkerPool(p *queue.Pool) {
	s.pool = p
}

// SetDiscoverer wires the network discoverer into the admin run
// endpoint. Left nil, /api/admin/discovery/run reports itself
// unavailable rather than panicking, since not every pod runs
// discovery.
func (s *Server) SetDiscoverer(d *discovery.Discoverer) {
	s.discoverer = d
}

func (s *Server) setupRoutes() {
	s.echo.GET("/", s.rootHandler)
	s.echo.GET("/health", s.healthHandler)

	s.echo.GET("/api/reels", s.listReelsHandler)
	s.echo.GET("/api/posts", s.listPostsHandler)
	s.echo.GET("/api/filter-options", s.filterOptionsHandler)

	s.echo.GET("/api/profile/:username", s.getProfileHandler)
	s.echo.GET("/api/profile/:username/reels", s.getProfileReelsHandler)
	s.echo.GET("/api/profile/:username/similar", s.getSimilarProfilesHandler)
	s.echo.GET("/api/profile/:username/secondary", s.getSecondaryProfileHandler)
	s.echo.POST("/api/profile/:username/request", s.requestProfileHandler)
	s.echo.GET("/api/profile/:username/status", s.profileStatusHandler)
	s.echo.GET("/api/profile/:username/similar-fast", s.similarFastHandler)
	s.echo.POST("/api/profile/:primary/add-competitor/:target", s.addCompetitorHandler)

	s.echo.POST("/api/reset-session", s.resetSessionHandler)

	s.echo.POST("/api/viral-ideas/queue", s.queueViralIdeasHandler)
	s.echo.GET("/api/viral-ideas/queue/:session_id", s.queueStatusHandler)
	s.echo.GET("/api/viral-ideas/check-existing/:username", s.checkExistingHandler)
	s.echo.POST("/api/viral-ideas/queue/:queue_id/start", s.startQueueItemHandler)
	s.echo.POST("/api/viral-ideas/queue/:queue_id/process", s.processQueueItemHandler)

	s.echo.GET("/api/viral-analysis/:queue_id/results", s.viralResultsHandler)
	s.echo.GET("/api/viral-analysis/:queue_id/content", s.viralContentHandler)

	s.echo.POST("/api/admin/discovery/run", s.runDiscoveryHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) rootHandler(c *echo.Context) error {
	return ok(c, http.StatusOK, map[string]string{"service": "reelscope"}, "")
}

func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	dbHealth, err := database.Health(reqCtx, s.dbClient.Pool)
	if err != nil {
		status = "unhealthy"
	}

	body := map[string]any{"status": status, "version": version.Full(), "database": dbHealth}
	if s.pool != nil {
		if poolHealth, err := s.pool.Health(reqCtx); err == nil {
			body["workerPool"] = poolHealth
		}
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	return ok(c, httpStatus, body, "")
}
