package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/services"
)

// queueViralIdeasRequest is the POST /api/viral-ideas/queue body.
type queueViralIdeasRequest struct {
	SessionID           string                 `json:"session_id"`
	PrimaryUsername     string                 `json:"primary_username"`
	SelectedCompetitors []string               `json:"selected_competitors"`
	ContentStrategy      models.ContentStrategy `json:"content_strategy"`
}

// queueViralIdeasHandler handles POST /api/viral-ideas/queue.
func (s *Server) queueViralIdeasHandler(c *echo.Context) error {
	var body queueViralIdeasRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req, err := s.viral.QueueViralIdeas(c.Request().Context(), services.QueueRequest{
		SessionID:           body.SessionID,
		PrimaryUsername:     body.PrimaryUsername,
		SelectedCompetitors: body.SelectedCompetitors,
		Strategy:            body.ContentStrategy,
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusAccepted, req, "viral analysis request queued")
}

// queueStatusHandler handles GET /api/viral-ideas/queue/:session_id.
func (s *Server) queueStatusHandler(c *echo.Context) error {
	req, err := s.viral.GetQueueStatus(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, req, "")
}

// checkExistingHandler handles GET /api/viral-ideas/check-existing/:username.
func (s *Server) checkExistingHandler(c *echo.Context) error {
	req, run, err := s.viral.CheckExisting(c.Request().Context(), c.Param("username"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, map[string]any{"request": req, "latestCompletedRun": run}, "")
}

func parseQueueID(c *echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("queue_id"), 10, 64)
}

// startQueueItemHandler handles POST /api/viral-ideas/queue/:queue_id/start.
func (s *Server) startQueueItemHandler(c *echo.Context) error {
	id, err := parseQueueID(c)
	if err != nil {
		return badRequest(c, "invalid queue_id")
	}
	if err := s.viral.StartQueueItem(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusAccepted, nil, "run started")
}

// processQueueItemHandler handles POST /api/viral-ideas/queue/:queue_id/process.
func (s *Server) processQueueItemHandler(c *echo.Context) error {
	id, err := parseQueueID(c)
	if err != nil {
		return badRequest(c, "invalid queue_id")
	}
	req, err := s.viral.ProcessQueueItem(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, req, "")
}

// viralResultsHandler handles GET /api/viral-analysis/:queue_id/results.
func (s *Server) viralResultsHandler(c *echo.Context) error {
	id, err := parseQueueID(c)
	if err != nil {
		return badRequest(c, "invalid queue_id")
	}
	res, err := s.viral.GetResults(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, map[string]any{
		"analysis":               res.Analysis,
		"primary_profile":        res.PrimaryProfile,
		"analyzed_reels":         res.AnalyzedReels,
		"primary_user_reels":     res.PrimaryUserReels,
		"competitor_reels":       res.CompetitorReels,
		"competitor_profiles":    res.CompetitorProfiles,
		"viral_scripts_table":    res.ViralScriptsTable,
		"analysis_data":          res.AnalysisData,
		"profile_analysis":       res.ProfileAnalysis,
		"generated_hooks":        res.GeneratedHooks,
		"individual_reel_analyses": res.IndividualReelAnalyses,
		"complete_scripts":       res.CompleteScripts,
		"scripts_summary":        res.ScriptsSummary,
		"analysis_summary":       res.AnalysisSummary,
		"viral_ideas":            res.ViralIdeas,
	}, "")
}

// viralContentHandler handles GET /api/viral-analysis/:queue_id/content.
func (s *Server) viralContentHandler(c *echo.Context) error {
	id, err := parseQueueID(c)
	if err != nil {
		return badRequest(c, "invalid queue_id")
	}
	contentType := c.QueryParam("content_type")
	if contentType == "" {
		contentType = "all"
	}
	res, err := s.viral.GetContent(c.Request().Context(), id, contentType, queryInt(c, "limit", 24), queryInt(c, "offset", 0))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, map[string]any{"reels": res.Reels, "isLastPage": res.IsLastPage}, "")
}
