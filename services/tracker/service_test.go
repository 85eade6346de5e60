package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogtracker-backend/lib/scrapers/naverblog"
	"blogtracker-backend/lib/scrapers/naverrss"
	"blogtracker-backend/lib/telemetry"
	"blogtracker-backend/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const blogPageWithScript = `<html><head><script>
var visitorcnt = [120, 135, 98, 150, 142];
</script></head><body>welcome</body></html>`

const blogPageWithWidgetFrame = `<html><body>
<iframe id="visitorWidget" src="/widget/visitor"></iframe>
</body></html>`

const widgetFrameDoc = `<html><body>
<visitorcnt cnt="10"></visitorcnt>
<visitorcnt cnt="20"></visitorcnt>
<visitorcnt cnt="30"></visitorcnt>
</body></html>`

const searchResultsPage = `<html><body>
<a href="https://blog.example.com/travel123/987">My Trip to Busan</a>
</body></html>`

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>b</title>
<item>
	<title>My Trip to Busan</title>
	<link>https://blog.example.com/travel123/987</link>
	<pubDate>Fri, 10 May 2024 09:30:00 +0900</pubDate>
</item>
<item>
	<title>Packing List</title>
	<link>https://blog.example.com/travel123/986</link>
	<pubDate>Thu, 09 May 2024 18:00:00 +0900</pubDate>
</item>
</channel></rss>`

type upstreams struct {
	blog   http.HandlerFunc
	search http.HandlerFunc
	rss    http.HandlerFunc
}

func newTestService(t *testing.T, up upstreams) *Service {
	t.Helper()
	t.Cleanup(telemetry.SetupForTesting(t, "test:services/tracker"))

	serve := func(h http.HandlerFunc) string {
		if h == nil {
			h = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}
		}
		server := httptest.NewServer(h)
		t.Cleanup(server.Close)
		return server.URL
	}

	service, err := NewService(Config{
		Endpoints: EndpointConfig{
			BlogBaseUrl:   serve(up.blog),
			SearchBaseUrl: serve(up.search),
			RssBaseUrl:    serve(up.rss),
		},
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	return service
}

func referenceDay(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2024, 5, 10, 15, 0, 0, 0, timezone.Location)
}

func TestVisitorStatsFromScript(t *testing.T) {
	service := newTestService(t, upstreams{
		blog: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(blogPageWithScript))
		},
	})

	stats, err := service.VisitorStats(context.Background(), "travel123", referenceDay(t))
	require.NoError(t, err)

	expected := []naverblog.VisitorStat{
		{Date: timezone.Day(time.Date(2024, 5, 6, 0, 0, 0, 0, timezone.Location)), Visitors: 120},
		{Date: timezone.Day(time.Date(2024, 5, 7, 0, 0, 0, 0, timezone.Location)), Visitors: 135},
		{Date: timezone.Day(time.Date(2024, 5, 8, 0, 0, 0, 0, timezone.Location)), Visitors: 98},
		{Date: timezone.Day(time.Date(2024, 5, 9, 0, 0, 0, 0, timezone.Location)), Visitors: 150},
		{Date: timezone.Day(time.Date(2024, 5, 10, 0, 0, 0, 0, timezone.Location)), Visitors: 142},
	}
	require.Empty(t, cmp.Diff(expected, stats))
}

func TestVisitorStatsFollowsWidgetFrame(t *testing.T) {
	service := newTestService(t, upstreams{
		blog: func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/widget/visitor" {
				w.Write([]byte(widgetFrameDoc))
				return
			}
			w.Write([]byte(blogPageWithWidgetFrame))
		},
	})

	stats, err := service.VisitorStats(context.Background(), "travel123", referenceDay(t))
	require.NoError(t, err)

	// only three genuine data points exist; the series stays short and
	// still ends at the reference day
	require.Len(t, stats, 3)
	require.Equal(t, []int{10, 20, 30}, []int{stats[0].Visitors, stats[1].Visitors, stats[2].Visitors})
	require.Equal(t, timezone.Day(referenceDay(t)), stats[2].Date)
}

func TestVisitorStatsNoData(t *testing.T) {
	service := newTestService(t, upstreams{
		blog: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body>nothing here</body></html>`))
		},
	})

	_, err := service.VisitorStats(context.Background(), "travel123", referenceDay(t))
	require.ErrorIs(t, err, naverblog.ErrNoData)
}

func TestVisitorStatsTransportError(t *testing.T) {
	service := newTestService(t, upstreams{})

	_, err := service.VisitorStats(context.Background(), "travel123", referenceDay(t))
	require.Error(t, err)
	require.NotErrorIs(t, err, naverblog.ErrNoData)
}

func TestRecentPostsLimitCap(t *testing.T) {
	var feed strings.Builder
	feed.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>b</title>`)
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&feed,
			`<item><title>Post %d</title><link>https://blog.example.com/travel123/%d</link><pubDate>Fri, 10 May 2024 09:30:00 +0900</pubDate></item>`,
			i, i)
	}
	feed.WriteString(`</channel></rss>`)

	service := newTestService(t, upstreams{
		rss: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(feed.String()))
		},
	})

	posts, err := service.RecentPosts(context.Background(), "travel123", 50)
	require.NoError(t, err)
	require.Len(t, posts, 20)
}

func TestCheckExposureMatch(t *testing.T) {
	service := newTestService(t, upstreams{
		search: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(searchResultsPage))
		},
	})

	result := service.CheckExposure(context.Background(), busanQuery)
	require.True(t, result.Exposed)
	require.Equal(t, ConfidenceCorroborated, result.Confidence)
}

func TestCheckExposureSkipsFailingSource(t *testing.T) {
	service := newTestService(t, upstreams{
		search: func(w http.ResponseWriter, r *http.Request) {
			// the first source is down, the second one has the post
			if r.URL.Query().Get("where") == "view" {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(searchResultsPage))
		},
	})

	result := service.CheckExposure(context.Background(), busanQuery)
	require.True(t, result.Exposed)
	require.Equal(t, ConfidenceCorroborated, result.Confidence)
}

func TestCheckExposureConfirmedAbsent(t *testing.T) {
	service := newTestService(t, upstreams{
		search: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body><a href="https://other.example.com/1">Unrelated</a></body></html>`))
		},
	})

	result := service.CheckExposure(context.Background(), busanQuery)
	require.False(t, result.Exposed)
	require.Equal(t, ConfidenceConfirmedAbsent, result.Confidence)
}

func TestCheckExposureAllSourcesFailed(t *testing.T) {
	service := newTestService(t, upstreams{})

	result := service.CheckExposure(context.Background(), busanQuery)
	require.False(t, result.Exposed)
	require.Equal(t, ConfidenceUnknown, result.Confidence)
}

func TestAllData(t *testing.T) {
	service := newTestService(t, upstreams{
		blog: func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/broken" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(blogPageWithScript))
		},
		rss: func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/broken.xml" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(rssFeed))
		},
	})

	data := service.AllData(context.Background(), []string{"travel123", "broken"}, referenceDay(t))
	require.Len(t, data, 2)

	require.NoError(t, data["travel123"].StatsErr)
	require.Len(t, data["travel123"].Stats, 5)
	require.NoError(t, data["travel123"].PostsErr)
	require.Len(t, data["travel123"].Posts, 2)

	// the broken blog records its failures without affecting the other
	require.Error(t, data["broken"].StatsErr)
	require.Error(t, data["broken"].PostsErr)
}

func TestMergeRecentPostsDeterministic(t *testing.T) {
	newer := time.Date(2024, 5, 10, 9, 30, 0, 0, timezone.Location)
	older := time.Date(2024, 5, 9, 18, 0, 0, 0, timezone.Location)

	singlePost := func(url string, published time.Time) []naverrss.Post {
		return []naverrss.Post{{Title: "post", Url: url, PublishedAt: published}}
	}

	for i := 0; i < 10; i++ {
		merged := MergeRecentPosts(map[string]*BlogData{
			"bbb": {Posts: singlePost("bbb/1", older)},
			"aaa": {Posts: singlePost("aaa/1", newer)},
			"ccc": {Posts: singlePost("ccc/1", older)},
		})
		require.Len(t, merged, 3)
		require.Equal(t, "aaa", merged[0].BlogId)
		// equal timestamps tie-break by blog id
		require.Equal(t, "bbb", merged[1].BlogId)
		require.Equal(t, "ccc", merged[2].BlogId)
	}
}
