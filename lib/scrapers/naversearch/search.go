package naversearch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"blogtracker-backend/lib/htmlutil"
	"blogtracker-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Source is one search endpoint that yields a corpus. Sources() gives
// the fixed priority order in which they are consulted.
type Source string

const (
	SourceViewTab Source = "view_tab"
	SourceBlogTab Source = "blog_tab"
)

func Sources() []Source {
	return []Source{SourceViewTab, SourceBlogTab}
}

var sourceWhereParam = map[Source]string{
	SourceViewTab: "view",
	SourceBlogTab: "blog",
}

type ClientOptions struct {
	// BaseUrl defaults to the public search host.
	BaseUrl   string
	UserAgent string
	Timeout   time.Duration
}

type Client struct {
	Http *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://search.naver.com"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 10
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{Http: client}, nil
}

var noResultsRegex = regexp.MustCompile(`not_found|no_result`)

// FetchCorpus runs a title query against one search source and harvests
// every (text, href) pair of the result page in document order. An
// explicit "no results" marker yields an empty corpus, which is a
// successful scan, not a failure.
func (c *Client) FetchCorpus(ctx context.Context, source Source, query string) ([]htmlutil.Anchor, error) {
	ctx, span := tracer.Start(ctx, "FetchCorpus")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", string(source)),
		attribute.String("query", query),
	)

	where, ok := sourceWhereParam[source]
	if !ok {
		err := fmt.Errorf("unknown search source: %s", source)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	params := url.Values{}
	params.Set("where", where)
	params.Set("sm", "tab_jum")
	params.Set("query", query)

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get("/search.naver")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.StatusCode() >= 300 {
		err := fmt.Errorf("search %s: unexpected status %d", source, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	empty := false
	doc.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if noResultsRegex.MatchString(div.AttrOr("class", "")) {
			empty = true
			return false
		}
		return true
	})
	if empty {
		span.AddEvent("no results marker")
		return []htmlutil.Anchor{}, nil
	}

	return htmlutil.GetAnchors(ctx, doc.Find("a[href]")), nil
}
