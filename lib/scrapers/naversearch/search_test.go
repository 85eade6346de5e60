package naversearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogtracker-backend/lib/htmlutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="total_wrap">
	<a href="https://blog.example.com/travel123/987">My Trip to Busan</a>
	<a href="https://blog.example.com/other/1">Somewhere else entirely</a>
</div>
</body></html>`

const noResultsPage = `<html><body>
<div class="api_no_result">
	<p>no matches</p>
	<a href="/suggested">suggested query</a>
</div>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)
	return client, server
}

func TestFetchCorpus(t *testing.T) {
	var gotWhere, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotWhere = r.URL.Query().Get("where")
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(resultsPage))
	})

	corpus, err := client.FetchCorpus(context.Background(), SourceViewTab, "My Trip to Busan")
	require.NoError(t, err)
	require.Equal(t, "view", gotWhere)
	require.Equal(t, "My Trip to Busan", gotQuery)

	expected := []htmlutil.Anchor{
		{Text: "My Trip to Busan", Href: "https://blog.example.com/travel123/987"},
		{Text: "Somewhere else entirely", Href: "https://blog.example.com/other/1"},
	}
	require.Empty(t, cmp.Diff(expected, corpus))
}

func TestFetchCorpusNoResultsMarker(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(noResultsPage))
	})

	corpus, err := client.FetchCorpus(context.Background(), SourceBlogTab, "whatever")
	require.NoError(t, err)
	require.Empty(t, corpus)
}

func TestFetchCorpusBadStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.FetchCorpus(context.Background(), SourceViewTab, "whatever")
	require.Error(t, err)
}

func TestSourceOrderIsFixed(t *testing.T) {
	require.Equal(t, []Source{SourceViewTab, SourceBlogTab}, Sources())
}
