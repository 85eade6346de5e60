package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const anchorDoc = `
<html><body>
<a href="https://blog.example.com/travel123/987">My   Trip to
Busan</a>
<a href="/relative/path">Other post</a>
<a>No link here</a>
</body></html>`

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(anchorDoc))
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), doc.Find("a"))
	expected := []Anchor{
		{Text: "My Trip to Busan", Href: "https://blog.example.com/travel123/987"},
		{Text: "Other post", Href: "/relative/path"},
		{Text: "No link here", Href: ""},
	}

	diff := cmp.Diff(expected, anchors)
	require.Empty(t, diff)
}

func TestVisibleTextSkipsScripts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><p>visible 42</p><script>var hidden = [1,2,3];</script><style>.a{}</style></body></html>`,
	))
	require.NoError(t, err)

	text := VisibleText(doc.Selection.Nodes[0])
	require.Contains(t, text, "visible 42")
	require.NotContains(t, text, "hidden")
	require.NotContains(t, text, "1,2,3")
}
