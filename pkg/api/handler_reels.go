package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/reelscope/pipeline/pkg/services"
	"github.com/reelscope/pipeline/pkg/store"
)

func parseReelFilter(c *echo.Context) store.ReelFilter {
	return store.ReelFilter{
		Search:              c.QueryParam("search"),
		PrimaryCategories:   queryCSV(c, "primary_categories"),
		SecondaryCategories: queryCSV(c, "secondary_categories"),
		TertiaryCategories:  queryCSV(c, "tertiary_categories"),
		Keywords:            queryCSV(c, "keywords"),
		MinOutlierScore:     queryFloatPtr(c, "min_outlier_score"),
		MaxOutlierScore:     queryFloatPtr(c, "max_outlier_score"),
		MinViews:            queryInt64Ptr(c, "min_views"),
		MaxViews:            queryInt64Ptr(c, "max_views"),
		MinFollowers:        queryInt64Ptr(c, "min_followers"),
		MaxFollowers:        queryInt64Ptr(c, "max_followers"),
		MinLikes:            queryInt64Ptr(c, "min_likes"),
		MaxLikes:            queryInt64Ptr(c, "max_likes"),
		MinComments:         queryInt64Ptr(c, "min_comments"),
		MaxComments:         queryInt64Ptr(c, "max_comments"),
		DateRange:           c.QueryParam("date_range"),
		IsVerified:          queryBoolPtr(c, "is_verified"),
		RandomOrder:         queryBool(c, "random_order", false),
		ContentTypes:        queryCSV(c, "content_types"),
		AccountTypes:        queryCSV(c, "account_types"),
		Languages:           queryCSV(c, "languages"),
		Styles:              queryCSV(c, "content_styles"),
		ExcludedUsernames:   queryCSV(c, "excluded_usernames"),
		SortBy:              c.QueryParam("sort_by"),
		Limit:               queryInt(c, "limit", 24),
		Offset:              queryInt(c, "offset", 0),
	}
}

// listReelsHandler handles GET /api/reels.
func (s *Server) listReelsHandler(c *echo.Context) error {
	params := services.ListReelsParams{ReelFilter: parseReelFilter(c), SessionID: c.QueryParam("session_id")}
	res, err := s.reels.ListReels(c.Request().Context(), params)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, map[string]any{"reels": res.Reels, "isLastPage": res.IsLastPage}, "")
}

// listPostsHandler handles GET /api/posts.
func (s *Server) listPostsHandler(c *echo.Context) error {
	params := services.ListReelsParams{ReelFilter: parseReelFilter(c), SessionID: c.QueryParam("session_id")}
	res, err := s.reels.ListPosts(c.Request().Context(), params)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, map[string]any{"reels": res.Reels, "isLastPage": res.IsLastPage}, "")
}

// filterOptionsHandler handles GET /api/filter-options.
func (s *Server) filterOptionsHandler(c *echo.Context) error {
	opts, err := s.reels.FilterOptions(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, opts, "")
}

// resetSessionHandler handles POST /api/reset-session.
func (s *Server) resetSessionHandler(c *echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return badRequest(c, "session_id is required")
	}
	s.reels.ResetSession(sessionID)
	return ok(c, http.StatusOK, nil, "session reset")
}
