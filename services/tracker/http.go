package tracker

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"blogtracker-backend/lib/scrapers/naverblog"
	"blogtracker-backend/lib/scrapers/naverrss"
	"blogtracker-backend/lib/timezone"

	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

type visitorStatJson struct {
	Date     string `json:"date"`
	Visitors int    `json:"visitors"`
}

type visitorStatsResponse struct {
	BlogId  string            `json:"blog_id"`
	Stats   []visitorStatJson `json:"stats"`
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
}

type postJson struct {
	Title     string `json:"title"`
	Url       string `json:"url"`
	Date      string `json:"date"`
	Timestamp string `json:"timestamp"`
}

type recentPostsResponse struct {
	BlogId  string     `json:"blog_id"`
	Posts   []postJson `json:"posts"`
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
}

type exposureRequest struct {
	BlogId    string `json:"blog_id"`
	PostTitle string `json:"post_title"`
	PostUrl   string `json:"post_url"`
}

type exposureResponse struct {
	BlogId     string `json:"blog_id"`
	PostTitle  string `json:"post_title"`
	PostUrl    string `json:"post_url"`
	Exposed    bool   `json:"exposed"`
	Confidence string `json:"confidence"`
	CheckedAt  string `json:"checked_at"`
}

type allDataRequest struct {
	BlogIds []string `json:"blog_ids"`
}

type allDataPostJson struct {
	BlogId string `json:"blog_id"`
	postJson
}

type allDataResponse struct {
	VisitorStats map[string][]visitorStatJson `json:"visitor_stats"`
	RecentPosts  []allDataPostJson            `json:"recent_posts"`
	CheckedAt    string                       `json:"checked_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func statsJson(stats []naverblog.VisitorStat) []visitorStatJson {
	out := []visitorStatJson{}
	for _, stat := range stats {
		out = append(out, visitorStatJson{
			Date:     stat.Date.Format(dateLayout),
			Visitors: stat.Visitors,
		})
	}
	return out
}

func postsJson(posts []naverrss.Post) []postJson {
	out := []postJson{}
	for _, post := range posts {
		date := ""
		timestamp := ""
		if !post.PublishedAt.IsZero() {
			published := post.PublishedAt.In(timezone.Location)
			date = published.Format(dateLayout)
			timestamp = published.Format(time.RFC3339)
		}
		out = append(out, postJson{
			Title:     post.Title,
			Url:       post.Url,
			Date:      date,
			Timestamp: timestamp,
		})
	}
	return out
}

// RegisterRoutes mounts the JSON API on e. Handlers respond 200 with
// success=false for "looked and found nothing" outcomes, 400 for
// invalid requests and 500 only for transport-level failures.
func RegisterRoutes(e *echo.Echo, s *Service) {
	e.GET("/health", s.handleHealth)
	e.GET("/api/visitor-stats/:blogId", s.handleVisitorStats)
	e.GET("/api/recent-posts/:blogId", s.handleRecentPosts)
	e.POST("/api/check-exposure", s.handleCheckExposure)
	e.POST("/api/all-data", s.handleAllData)
}

func (s *Service) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "blog tracker API server is running",
	})
}

func (s *Service) handleVisitorStats(c echo.Context) error {
	blogId := c.Param("blogId")
	if blogId == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "blog_id is required"})
	}

	stats, err := s.VisitorStats(c.Request().Context(), blogId, timezone.Now())
	if errors.Is(err, naverblog.ErrNoData) {
		return c.JSON(http.StatusOK, visitorStatsResponse{
			BlogId:  blogId,
			Stats:   []visitorStatJson{},
			Success: false,
			Message: "no visitor data found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	response := visitorStatsResponse{
		BlogId:  blogId,
		Stats:   statsJson(stats),
		Success: true,
	}
	if s.Config.StrictInsufficientData && len(stats) < s.Config.StatDays {
		response.Success = false
		response.Message = "insufficient visitor data"
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Service) handleRecentPosts(c echo.Context) error {
	blogId := c.Param("blogId")
	if blogId == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "blog_id is required"})
	}

	limit := defaultRecentPosts
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
		}
		limit = parsed
	}

	posts, err := s.RecentPosts(c.Request().Context(), blogId, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, recentPostsResponse{
		BlogId:  blogId,
		Posts:   postsJson(posts),
		Success: true,
	})
}

func (s *Service) handleCheckExposure(c echo.Context) error {
	var request exposureRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if request.BlogId == "" || request.PostTitle == "" || request.PostUrl == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error: "blog_id, post_title and post_url are required",
		})
	}

	result := s.CheckExposure(c.Request().Context(), ExposureQuery{
		BlogId:  request.BlogId,
		Title:   request.PostTitle,
		PostUrl: request.PostUrl,
	})

	return c.JSON(http.StatusOK, exposureResponse{
		BlogId:     request.BlogId,
		PostTitle:  request.PostTitle,
		PostUrl:    request.PostUrl,
		Exposed:    result.Exposed,
		Confidence: string(result.Confidence),
		CheckedAt:  timezone.Now().Format(time.RFC3339),
	})
}

func (s *Service) handleAllData(c echo.Context) error {
	var request allDataRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if len(request.BlogIds) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "blog_ids is required"})
	}

	data := s.AllData(c.Request().Context(), request.BlogIds, timezone.Now())

	visitorStats := map[string][]visitorStatJson{}
	for blogId, d := range data {
		if d.StatsErr != nil {
			// failed blogs are omitted, not rendered as empty series
			continue
		}
		visitorStats[blogId] = statsJson(d.Stats)
	}

	recentPosts := []allDataPostJson{}
	for _, post := range MergeRecentPosts(data) {
		entry := postsJson([]naverrss.Post{post.Post})[0]
		recentPosts = append(recentPosts, allDataPostJson{
			BlogId:   post.BlogId,
			postJson: entry,
		})
	}

	return c.JSON(http.StatusOK, allDataResponse{
		VisitorStats: visitorStats,
		RecentPosts:  recentPosts,
		CheckedAt:    timezone.Now().Format(time.RFC3339),
	})
}
