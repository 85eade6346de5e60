package tracker

import (
	"testing"

	"blogtracker-backend/lib/htmlutil"

	"github.com/stretchr/testify/require"
)

var busanQuery = ExposureQuery{
	BlogId:  "travel123",
	Title:   "My Trip to Busan",
	PostUrl: "https://blog.example.com/travel123/987",
}

func TestMatchCorpusExact(t *testing.T) {
	corpus := []htmlutil.Anchor{
		{Text: "Somewhere else entirely", Href: "https://blog.example.com/other/1"},
		{Text: "My Trip to Busan", Href: "https://blog.example.com/travel123/987"},
	}

	result, found := MatchCorpus(busanQuery, corpus)
	require.True(t, found)
	require.True(t, result.Exposed)
	require.Equal(t, ConfidenceCorroborated, result.Confidence)
}

func TestMatchCorpusTitleOnlyConfidence(t *testing.T) {
	// exact title but the link points at an aggregator, not the post
	corpus := []htmlutil.Anchor{
		{Text: "My Trip to Busan", Href: "https://aggregator.example.com/feed/42"},
	}

	result, found := MatchCorpus(busanQuery, corpus)
	require.True(t, found)
	require.Equal(t, ConfidenceTitleOnly, result.Confidence)
}

func TestMatchCorpusContainment(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		matched bool
	}{
		{
			name:    "title with short decoration",
			text:    "My Trip to Busan (2024)",
			matched: true,
		},
		{
			name:    "title quoted inside a much longer entry",
			text:    "A roundup of fifty posts we loved this month, including My Trip to Busan and others",
			matched: false,
		},
		{
			name:    "unrelated entry",
			text:    "Cooking at home",
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corpus := []htmlutil.Anchor{{Text: tt.text, Href: "https://example.com/x"}}
			_, found := MatchCorpus(busanQuery, corpus)
			require.Equal(t, tt.matched, found)
		})
	}
}

func TestMatchCorpusFuzzyRequiresCorroboration(t *testing.T) {
	// same title with different casing: not an exact match, and not a
	// containment match either
	entry := htmlutil.Anchor{Text: "my trip to busan"}

	entry.Href = "https://blog.example.com/travel123/987"
	result, found := MatchCorpus(busanQuery, []htmlutil.Anchor{entry})
	require.True(t, found)
	require.Equal(t, ConfidenceCorroborated, result.Confidence)

	entry.Href = "https://aggregator.example.com/feed/42"
	_, found = MatchCorpus(busanQuery, []htmlutil.Anchor{entry})
	require.False(t, found)
}

func TestMatchCorpusFirstMatchWins(t *testing.T) {
	corpus := []htmlutil.Anchor{
		{Text: "My Trip to Busan", Href: "https://aggregator.example.com/feed/42"},
		{Text: "My Trip to Busan", Href: "https://blog.example.com/travel123/987"},
	}

	// the earlier, weaker match is returned; later entries are not
	// consulted once a match exists
	result, found := MatchCorpus(busanQuery, corpus)
	require.True(t, found)
	require.Equal(t, ConfidenceTitleOnly, result.Confidence)
}

func TestMatchCorpusEmpty(t *testing.T) {
	_, found := MatchCorpus(busanQuery, nil)
	require.False(t, found)
}

func TestCorroborates(t *testing.T) {
	tests := []struct {
		name string
		href string
		want bool
	}{
		{"blog id and post id", "https://blog.example.com/travel123/987", true},
		{"trailing slash post url", "https://blog.example.com/travel123/987/", true},
		{"blog id only", "https://blog.example.com/travel123", false},
		{"post id only", "https://other.example.com/repost/987", false},
		{"empty href", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, corroborates(busanQuery, tt.href))
		})
	}
}
