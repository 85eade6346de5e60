package naverblog

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"blogtracker-backend/lib/restyutil"

	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	// BaseUrl defaults to the public blog host.
	BaseUrl   string
	UserAgent string
	Timeout   time.Duration
}

// Client fetches blog pages and visitor widget frames. The parsed
// documents it returns are owned by the caller and never retained.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://blog.naver.com"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 10
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}, nil
}

// FetchMainPage requests the blog's main page and parses it.
func (c *Client) FetchMainPage(ctx context.Context, blogId string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "FetchMainPage")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/" + url.PathEscape(blogId))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.StatusCode() >= 300 {
		err := fmt.Errorf("fetch blog page: unexpected status %d", res.StatusCode())
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
	return doc, nil
}

var visitorFrameIdRegex = regexp.MustCompile(`(?i)visitor`)

// WidgetFrameSrc looks for the visitor widget iframe on a blog main
// page. ok is false when the widget is not configured.
func WidgetFrameSrc(doc *goquery.Document) (src string, ok bool) {
	doc.Find("iframe").EachWithBreak(func(_ int, frame *goquery.Selection) bool {
		id := frame.AttrOr("id", "")
		if !visitorFrameIdRegex.MatchString(id) {
			return true
		}
		frameSrc, exists := frame.Attr("src")
		if !exists || frameSrc == "" {
			return true
		}
		src = frameSrc
		ok = true
		return false
	})
	return src, ok
}

// FetchWidgetFrame fetches the visitor widget document behind an iframe
// src, resolving relative srcs against the blog host.
func (c *Client) FetchWidgetFrame(ctx context.Context, src string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "FetchWidgetFrame")
	defer span.End()

	if !strings.HasPrefix(src, "http") {
		ref, err := url.Parse(src)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		src = c.BaseUrl.ResolveReference(ref).String()
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(src)
	if err != nil {
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
	return doc, nil
}
