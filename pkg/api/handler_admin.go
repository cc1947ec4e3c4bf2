package api

import (
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/reelscope/pipeline/pkg/models"
)

// runDiscoveryHandler handles POST /api/admin/discovery/run, kicking
// off one bounded discovery run synchronously and returning its
// summary. There's no request body: the seed and round limits come
// from configuration, not the caller.
func (s *Server) runDiscoveryHandler(c *echo.Context) error {
	if s.discoverer == nil {
		return fail(c, models.NewKindedError(models.ErrorKindFatal, errors.New("discovery is not configured on this pod")))
	}
	result, err := s.discoverer.Run(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, result, "discovery run complete")
}
