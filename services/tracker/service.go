package tracker

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"blogtracker-backend/lib/scrapers/naverblog"
	"blogtracker-backend/lib/scrapers/naverrss"
	"blogtracker-backend/lib/scrapers/naversearch"
	"blogtracker-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type EndpointConfig struct {
	BlogBaseUrl   string `json:"blog_base_url"`
	SearchBaseUrl string `json:"search_base_url"`
	RssBaseUrl    string `json:"rss_base_url"`
}

type Config struct {
	Port      int            `json:"port"`
	Endpoints EndpointConfig `json:"endpoints"`
	UserAgent string         `json:"user_agent"`
	// TimeoutSeconds applies to every upstream request.
	TimeoutSeconds int `json:"timeout_seconds"`
	// StatDays is how many daily data points a full series has.
	StatDays int `json:"stat_days"`
	// StrictInsufficientData reports a short series as a failure
	// instead of silently serving fewer days than requested.
	StrictInsufficientData bool `json:"strict_insufficient_data"`
}

const (
	defaultStatDays       = 5
	defaultRecentPosts    = 5
	maxRecentPosts        = 20
	allDataPostLimit      = 5
	allDataBlogLimit      = 5
	defaultTimeoutSeconds = 10
)

type Service struct {
	Config Config

	blog     *naverblog.Client
	search   *naversearch.Client
	rss      *naverrss.Client
	pipeline naverblog.Pipeline
}

func NewService(config Config) (*Service, error) {
	if config.StatDays <= 0 {
		config.StatDays = defaultStatDays
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = defaultTimeoutSeconds
	}
	timeout := time.Duration(config.TimeoutSeconds) * time.Second

	blog, err := naverblog.NewClient(naverblog.ClientOptions{
		BaseUrl:   config.Endpoints.BlogBaseUrl,
		UserAgent: config.UserAgent,
		Timeout:   timeout,
	})
	if err != nil {
		return nil, err
	}
	search, err := naversearch.NewClient(naversearch.ClientOptions{
		BaseUrl:   config.Endpoints.SearchBaseUrl,
		UserAgent: config.UserAgent,
		Timeout:   timeout,
	})
	if err != nil {
		return nil, err
	}
	rss, err := naverrss.NewClient(naverrss.ClientOptions{
		BaseUrl:   config.Endpoints.RssBaseUrl,
		UserAgent: config.UserAgent,
		Timeout:   timeout,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		Config:   config,
		blog:     blog,
		search:   search,
		rss:      rss,
		pipeline: naverblog.NewPipeline(),
	}, nil
}

// VisitorStats extracts the daily visitor series from the blog's main
// page, following the visitor widget iframe when the main document
// yields nothing. Returns naverblog.ErrNoData when no genuine series
// exists anywhere; fetch failures propagate as-is.
func (s *Service) VisitorStats(ctx context.Context, blogId string, referenceDay time.Time) ([]naverblog.VisitorStat, error) {
	ctx, span := tracer.Start(ctx, "VisitorStats")
	defer span.End()
	span.SetAttributes(attribute.String("blog_id", blogId))

	doc, err := s.blog.FetchMainPage(ctx, blogId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	series, err := s.pipeline.Extract(ctx, doc, s.Config.StatDays)
	if errors.Is(err, naverblog.ErrNoData) {
		series, err = s.extractFromWidgetFrame(ctx, doc)
	}
	if err != nil {
		if !errors.Is(err, naverblog.ErrNoData) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	stats := naverblog.Normalize(series, s.Config.StatDays, timezone.Day(referenceDay))
	span.SetAttributes(
		attribute.String("strategy", series.Strategy),
		attribute.Int("days", len(stats)),
	)
	return stats, nil
}

// extractFromWidgetFrame retries the pipeline against the visitor
// widget iframe document. A missing widget or a failing frame fetch
// degrades to no-data, it never fails the whole lookup.
func (s *Service) extractFromWidgetFrame(ctx context.Context, doc *goquery.Document) (naverblog.CandidateSeries, error) {
	src, ok := naverblog.WidgetFrameSrc(doc)
	if !ok {
		return naverblog.CandidateSeries{}, naverblog.ErrNoData
	}

	frameDoc, err := s.blog.FetchWidgetFrame(ctx, src)
	if err != nil {
		slog.WarnContext(ctx, "visitor widget frame fetch failed", "err", err)
		return naverblog.CandidateSeries{}, naverblog.ErrNoData
	}
	return s.pipeline.Extract(ctx, frameDoc, s.Config.StatDays)
}

// RecentPosts serves up to limit feed entries, newest first. Limits
// outside [1, maxRecentPosts] are clamped.
func (s *Service) RecentPosts(ctx context.Context, blogId string, limit int) ([]naverrss.Post, error) {
	ctx, span := tracer.Start(ctx, "RecentPosts")
	defer span.End()

	if limit <= 0 {
		limit = defaultRecentPosts
	}
	if limit > maxRecentPosts {
		limit = maxRecentPosts
	}
	return s.rss.RecentPosts(ctx, blogId, limit)
}

// CheckExposure consults every search source in priority order and
// stops at the first corpus containing a match. Source failures are
// skipped: a verdict of "absent" is only confirmed when at least one
// source was scanned successfully.
func (s *Service) CheckExposure(ctx context.Context, query ExposureQuery) ExposureResult {
	ctx, span := tracer.Start(ctx, "CheckExposure")
	defer span.End()
	span.SetAttributes(
		attribute.String("blog_id", query.BlogId),
		attribute.String("title", query.Title),
	)

	anyScanned := false
	for _, source := range naversearch.Sources() {
		corpus, err := s.search.FetchCorpus(ctx, source, query.Title)
		if err != nil {
			slog.WarnContext(ctx, "search source failed, skipping",
				"source", source, "err", err)
			continue
		}
		anyScanned = true

		result, found := MatchCorpus(query, corpus)
		slog.DebugContext(ctx, "search source scanned",
			"source", source, "entries", len(corpus), "matched", found)
		if found {
			span.SetAttributes(
				attribute.String("matched_source", string(source)),
				attribute.String("confidence", string(result.Confidence)),
			)
			return result
		}
	}

	if !anyScanned {
		span.SetStatus(codes.Error, "every search source failed")
		return ExposureResult{Exposed: false, Confidence: ConfidenceUnknown}
	}
	return ExposureResult{Exposed: false, Confidence: ConfidenceConfirmedAbsent}
}

// BlogPost is a feed entry tagged with the blog it came from, for
// merged multi-blog listings.
type BlogPost struct {
	BlogId string
	naverrss.Post
}

type BlogData struct {
	Stats    []naverblog.VisitorStat
	StatsErr error
	Posts    []naverrss.Post
	PostsErr error
}

// AllData gathers visitor stats and recent posts for several blogs in
// parallel. Per-blog failures are recorded, never fatal, so one broken
// blog cannot empty the whole response.
func (s *Service) AllData(ctx context.Context, blogIds []string, referenceDay time.Time) map[string]*BlogData {
	ctx, span := tracer.Start(ctx, "AllData")
	defer span.End()
	span.SetAttributes(attribute.Int("blogs", len(blogIds)))

	if len(blogIds) > allDataBlogLimit {
		blogIds = blogIds[:allDataBlogLimit]
	}

	result := map[string]*BlogData{}
	var mutex sync.Mutex
	var wg sync.WaitGroup

	for _, blogId := range blogIds {
		blogId := blogId
		wg.Add(1)
		go func() {
			defer wg.Done()

			data := &BlogData{}
			data.Stats, data.StatsErr = s.VisitorStats(ctx, blogId, referenceDay)
			data.Posts, data.PostsErr = s.RecentPosts(ctx, blogId, allDataPostLimit)
			if data.StatsErr != nil {
				slog.WarnContext(ctx, "all-data: visitor stats failed",
					"blog_id", blogId, "err", data.StatsErr)
			}
			if data.PostsErr != nil {
				slog.WarnContext(ctx, "all-data: recent posts failed",
					"blog_id", blogId, "err", data.PostsErr)
			}

			mutex.Lock()
			defer mutex.Unlock()
			result[blogId] = data
		}()
	}
	wg.Wait()

	return result
}

// MergeRecentPosts flattens per-blog post lists into one newest-first
// list of at most allDataPostLimit entries. Ties sort by blog id then
// url so concurrent gathering cannot reorder the output.
func MergeRecentPosts(data map[string]*BlogData) []BlogPost {
	var merged []BlogPost
	for blogId, d := range data {
		for _, post := range d.Posts {
			merged = append(merged, BlogPost{BlogId: blogId, Post: post})
		}
	}

	slices.SortFunc(merged, func(a, b BlogPost) int {
		if !a.PublishedAt.Equal(b.PublishedAt) {
			if a.PublishedAt.After(b.PublishedAt) {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.BlogId, b.BlogId); c != 0 {
			return c
		}
		return strings.Compare(a.Url, b.Url)
	})

	if len(merged) > allDataPostLimit {
		merged = merged[:allDataPostLimit]
	}
	return merged
}
