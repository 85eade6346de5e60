package naverrss

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"blogtracker-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Post is one feed entry. The feed serves entries most-recent-first,
// the order is preserved here.
type Post struct {
	Title       string
	Url         string
	PublishedAt time.Time
}

type ClientOptions struct {
	// BaseUrl defaults to the public feed host.
	BaseUrl   string
	UserAgent string
	Timeout   time.Duration
}

type Client struct {
	Http   *resty.Client
	parser *gofeed.Parser
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://rss.blog.naver.com"
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 10
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	if opts.UserAgent != "" {
		client.SetHeader("user-agent", opts.UserAgent)
	}
	client.SetTimeout(opts.Timeout)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{
		Http:   client,
		parser: gofeed.NewParser(),
	}, nil
}

// RecentPosts fetches and parses the blog's feed, returning up to limit
// entries.
func (c *Client) RecentPosts(ctx context.Context, blogId string, limit int) ([]Post, error) {
	ctx, span := tracer.Start(ctx, "RecentPosts")
	defer span.End()
	span.SetAttributes(attribute.String("blog_id", blogId))

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/" + url.PathEscape(blogId) + ".xml")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.StatusCode() >= 300 {
		err := fmt.Errorf("fetch feed: unexpected status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	feed, err := c.parser.ParseString(res.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var posts []Post
	for _, item := range feed.Items {
		if len(posts) >= limit {
			break
		}
		published := time.Time{}
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}
		posts = append(posts, Post{
			Title:       item.Title,
			Url:         item.Link,
			PublishedAt: published,
		})
	}

	span.SetAttributes(attribute.Int("posts", len(posts)))
	return posts, nil
}
