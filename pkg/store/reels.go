package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reelscope/pipeline/pkg/models"
)

// ReelFilter is the query shape behind GET /api/reels and /api/posts:
// every field is optional and zero-valued fields are not applied.
type ReelFilter struct {
	Search string

	PrimaryCategories   []string
	SecondaryCategories []string
	TertiaryCategories  []string
	Keywords            []string

	MinOutlierScore, MaxOutlierScore *float64
	MinViews, MaxViews               *int64
	MinFollowers, MaxFollowers       *int64
	MinLikes, MaxLikes               *int64
	MinComments, MaxComments         *int64

	// DateRange is one of day/week/month/year/all.
	DateRange string

	IsVerified   *bool
	RandomOrder  bool
	ContentTypes []string
	AccountTypes []string
	Languages    []string
	Styles       []string

	ExcludedUsernames []string

	// ExcludedContentIDs is populated by the random-order session tracker
	// (pkg/services) so repeated pages don't repeat already-shown reels.
	ExcludedContentIDs []int64

	// Username restricts the listing to a single profile's content, used
	// by the profile-reels feed endpoint.
	Username string

	// SortBy is one of popular/views/likes/comments/recent/oldest/
	// followers/account_engagement/content_engagement.
	SortBy string

	Limit  int
	Offset int
}

// ListReels runs the filtered, paginated reel/post listing behind
// GET /api/reels and /api/posts. isLastPage is true when fewer than
// limit+1 rows came back (one extra row is fetched to detect it without
// a second COUNT query).
func (s *Store) ListReels(ctx context.Context, f ReelFilter) (reels []*models.Content, isLastPage bool, err error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		where = append(where, "(c.description ILIKE "+arg("%"+f.Search+"%")+" OR c.profile_owner ILIKE "+arg("%"+f.Search+"%")+")")
	}
	if len(f.PrimaryCategories) > 0 {
		where = append(where, "c.primary_category = ANY("+arg(f.PrimaryCategories)+")")
	}
	if len(f.SecondaryCategories) > 0 {
		where = append(where, "c.secondary_category = ANY("+arg(f.SecondaryCategories)+")")
	}
	if len(f.TertiaryCategories) > 0 {
		where = append(where, "c.tertiary_category = ANY("+arg(f.TertiaryCategories)+")")
	}
	if len(f.Keywords) > 0 {
		kw := arg(f.Keywords)
		where = append(where, "(c.keyword_1 = ANY("+kw+") OR c.keyword_2 = ANY("+kw+") OR c.keyword_3 = ANY("+kw+") OR c.keyword_4 = ANY("+kw+"))")
	}
	if f.MinOutlierScore != nil {
		where = append(where, "c.outlier_score >= "+arg(*f.MinOutlierScore))
	}
	if f.MaxOutlierScore != nil {
		where = append(where, "c.outlier_score <= "+arg(*f.MaxOutlierScore))
	}
	if f.MinViews != nil {
		where = append(where, "c.view_count >= "+arg(*f.MinViews))
	}
	if f.MaxViews != nil {
		where = append(where, "c.view_count <= "+arg(*f.MaxViews))
	}
	if f.MinLikes != nil {
		where = append(where, "c.like_count >= "+arg(*f.MinLikes))
	}
	if f.MaxLikes != nil {
		where = append(where, "c.like_count <= "+arg(*f.MaxLikes))
	}
	if f.MinComments != nil {
		where = append(where, "c.comment_count >= "+arg(*f.MinComments))
	}
	if f.MaxComments != nil {
		where = append(where, "c.comment_count <= "+arg(*f.MaxComments))
	}
	if len(f.ContentTypes) > 0 {
		where = append(where, "c.kind = ANY("+arg(f.ContentTypes)+")")
	}
	if len(f.Styles) > 0 {
		where = append(where, "c.style = ANY("+arg(f.Styles)+")")
	}
	if len(f.Languages) > 0 {
		where = append(where, "c.transcript_language = ANY("+arg(f.Languages)+")")
	}
	if len(f.ExcludedUsernames) > 0 {
		where = append(where, "c.profile_owner != ALL("+arg(normalizeAll(f.ExcludedUsernames))+")")
	}
	if len(f.ExcludedContentIDs) > 0 {
		where = append(where, "c.content_id != ALL("+arg(f.ExcludedContentIDs)+")")
	}
	if f.Username != "" {
		where = append(where, "c.profile_owner = "+arg(models.NormalizeUsername(f.Username)))
	}
	if since := dateRangeSince(f.DateRange); since != nil {
		where = append(where, "c.date_posted >= "+arg(*since))
	}
	// Followers/verified/account-type filters, and the two account-level
	// sorts, join the owning primary profile since those values live on
	// the profile, not the reel.
	joinProfile := f.MinFollowers != nil || f.MaxFollowers != nil || f.IsVerified != nil || len(f.AccountTypes) > 0 ||
		f.SortBy == "followers" || f.SortBy == "account_engagement"
	if f.MinFollowers != nil {
		where = append(where, "p.followers >= "+arg(*f.MinFollowers))
	}
	if f.MaxFollowers != nil {
		where = append(where, "p.followers <= "+arg(*f.MaxFollowers))
	}
	if f.IsVerified != nil {
		where = append(where, "p.is_verified = "+arg(*f.IsVerified))
	}
	if len(f.AccountTypes) > 0 {
		where = append(where, "p.account_type = ANY("+arg(f.AccountTypes)+")")
	}

	from := "content c"
	if joinProfile {
		from += " JOIN primary_profiles p ON p.username = c.profile_owner"
	}

	orderBy := sortClause(f.SortBy, f.RandomOrder)

	limit := f.Limit
	if limit <= 0 {
		limit = 24
	}
	limitArg := arg(limit + 1)
	offsetArg := arg(f.Offset)

	query := fmt.Sprintf(`
		SELECT c.content_id, c.shortcode, c.profile_owner, c.kind, c.style, c.url, c.description,
			c.thumb_key, c.display_key, c.view_count, c.like_count, c.comment_count, c.date_posted,
			c.outlier_score, c.primary_category, c.secondary_category, c.tertiary_category,
			c.keyword_1, c.keyword_2, c.keyword_3, c.keyword_4, c.confidence,
			c.transcript, c.transcript_language, c.transcript_fetched_at, c.transcript_available
		FROM %s
		WHERE %s
		ORDER BY %s
		LIMIT %s OFFSET %s
	`, from, strings.Join(where, " AND "), orderBy, limitArg, offsetArg)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list reels: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanContentRow(rows)
		if err != nil {
			return nil, false, err
		}
		reels = append(reels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("list reels rows: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}

	isLastPage = len(reels) <= limit
	if !isLastPage {
		reels = reels[:limit]
	}
	return reels, isLastPage, nil
}

// normalizeAll lowercases+trims a batch of usernames for comparison
// against the already-normalized profile_owner column.
func normalizeAll(usernames []string) []string {
	out := make([]string, len(usernames))
	for i, u := range usernames {
		out[i] = models.NormalizeUsername(u)
	}
	return out
}

func dateRangeSince(r string) *time.Time {
	now := time.Now().UTC()
	var d time.Duration
	switch r {
	case "day":
		d = 24 * time.Hour
	case "week":
		d = 7 * 24 * time.Hour
	case "month":
		d = 30 * 24 * time.Hour
	case "year":
		d = 365 * 24 * time.Hour
	default:
		return nil
	}
	t := now.Add(-d)
	return &t
}

func sortClause(sortBy string, random bool) string {
	if random {
		return "random()"
	}
	switch sortBy {
	case "views":
		return "c.view_count DESC"
	case "likes":
		return "c.like_count DESC"
	case "comments":
		return "c.comment_count DESC"
	case "recent":
		return "c.date_posted DESC"
	case "oldest":
		return "c.date_posted ASC"
	case "followers":
		return "p.followers DESC, c.date_posted DESC"
	case "account_engagement":
		return "(p.total_likes + p.total_comments) DESC, c.date_posted DESC"
	case "content_engagement":
		return "(c.like_count + c.comment_count) DESC"
	case "popular":
		fallthrough
	default:
		return "c.outlier_score DESC"
	}
}

// FilterOptionsResult is the distinct-values payload behind
// GET /api/filter-options.
type FilterOptionsResult struct {
	PrimaryCategories   []string
	SecondaryCategories []string
	TertiaryCategories  []string
	Keywords            []string
	Usernames           []string
	AccountTypes        []string
	ContentTypes        []string
	Languages           []string
	ContentStyles       []string
}

// FilterOptions lists the distinct values available for each filterable
// facet, for populating the reel browser's filter UI.
func (s *Store) FilterOptions(ctx context.Context) (*FilterOptionsResult, error) {
	out := &FilterOptionsResult{}
	queries := []struct {
		sql    string
		target *[]string
	}{
		{`SELECT DISTINCT primary_category FROM content WHERE primary_category != '' ORDER BY 1`, &out.PrimaryCategories},
		{`SELECT DISTINCT secondary_category FROM content WHERE secondary_category != '' ORDER BY 1`, &out.SecondaryCategories},
		{`SELECT DISTINCT tertiary_category FROM content WHERE tertiary_category != '' ORDER BY 1`, &out.TertiaryCategories},
		{`SELECT DISTINCT k FROM (SELECT keyword_1 AS k FROM content UNION SELECT keyword_2 FROM content UNION SELECT keyword_3 FROM content UNION SELECT keyword_4 FROM content) kws WHERE k != '' ORDER BY 1`, &out.Keywords},
		{`SELECT DISTINCT profile_owner FROM content ORDER BY 1`, &out.Usernames},
		{`SELECT DISTINCT account_type FROM primary_profiles WHERE account_type != '' ORDER BY 1`, &out.AccountTypes},
		{`SELECT DISTINCT kind FROM content ORDER BY 1`, &out.ContentTypes},
		{`SELECT DISTINCT transcript_language FROM content WHERE transcript_language != '' ORDER BY 1`, &out.Languages},
		{`SELECT DISTINCT style FROM content ORDER BY 1`, &out.ContentStyles},
	}
	for _, q := range queries {
		rows, err := s.pool.Query(ctx, q.sql)
		if err != nil {
			return nil, fmt.Errorf("filter options: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		var vals []string
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan filter option: %w", models.NewKindedError(models.ErrorKindFatal, err))
			}
			vals = append(vals, v)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("filter options rows: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		*q.target = vals
	}
	return out, nil
}

// GetSecondaryProfile looks up a discovered (non-primary) profile by
// username, used by the loading-state lookup endpoint. Returns a
// NotFound-kinded error if absent.
func (s *Store) GetSecondaryProfile(ctx context.Context, username string) (*models.SecondaryProfile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, full_name, bio, followers, following, media_count, image_key,
			is_verified, account_type, primary_category, secondary_category, tertiary_category,
			discovered_by, similarity_rank
		FROM secondary_profiles WHERE username = $1
	`, models.NormalizeUsername(username))

	p := &models.SecondaryProfile{}
	var accountType string
	if err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.Bio, &p.Followers, &p.Following, &p.MediaCount, &p.ImageKey,
		&p.IsVerified, &accountType, &p.PrimaryCategory, &p.SecondaryCategory, &p.TertiaryCategory,
		&p.DiscoveredBy, &p.SimilarityRank); err != nil {
		return nil, classifyRowError(err, "secondary profile", username)
	}
	p.AccountType = models.AccountType(accountType)
	return p, nil
}
