package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// getProfileHandler handles GET /api/profile/:username.
func (s *Server) getProfileHandler(c *echo.Context) error {
	p, err := s.profiles.GetProfile(c.Request().Context(), c.Param("username"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, p, "")
}

// getProfileReelsHandler handles GET /api/profile/:username/reels.
func (s *Server) getProfileReelsHandler(c *echo.Context) error {
	res, err := s.profiles.GetProfileReels(c.Request().Context(), c.Param("username"),
		c.QueryParam("sort_by"), queryInt(c, "limit", 24), queryInt(c, "offset", 0))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, map[string]any{"reels": res.Reels, "isLastPage": res.IsLastPage}, "")
}

// getSimilarProfilesHandler handles GET /api/profile/:username/similar.
func (s *Server) getSimilarProfilesHandler(c *echo.Context) error {
	entries, err := s.profiles.GetSimilarProfiles(c.Request().Context(), c.Param("username"), queryInt(c, "limit", 20))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, entries, "")
}

// getSecondaryProfileHandler handles GET /api/profile/:username/secondary.
func (s *Server) getSecondaryProfileHandler(c *echo.Context) error {
	p, err := s.profiles.GetSecondaryProfile(c.Request().Context(), c.Param("username"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, p, "")
}

// requestProfileHandler handles POST /api/profile/:username/request.
func (s *Server) requestProfileHandler(c *echo.Context) error {
	source := c.QueryParam("source")
	if source == "" {
		source = "manual"
	}
	res, err := s.profiles.RequestProfile(c.Request().Context(), c.Param("username"), source)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, res, res.Message)
}

// profileStatusHandler handles GET /api/profile/:username/status.
func (s *Server) profileStatusHandler(c *echo.Context) error {
	res, err := s.profiles.ProfileStatus(c.Request().Context(), c.Param("username"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, res, "")
}

// similarFastHandler handles GET /api/profile/:username/similar-fast.
func (s *Server) similarFastHandler(c *echo.Context) error {
	limit := queryInt(c, "limit", 20)
	if limit < 1 {
		limit = 1
	}
	if limit > 80 {
		limit = 80
	}
	res, err := s.profiles.SimilarFast(c.Request().Context(), c.Param("username"), limit, queryBool(c, "force_refresh", false))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, res, "")
}

// addCompetitorHandler handles POST /api/profile/:primary/add-competitor/:target.
func (s *Server) addCompetitorHandler(c *echo.Context) error {
	row, err := s.profiles.AddCompetitor(c.Request().Context(), c.Param("primary"), c.Param("target"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, row, "competitor added")
}
