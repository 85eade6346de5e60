package tracker

import (
	"strings"
	"unicode/utf8"

	"blogtracker-backend/lib/htmlutil"

	"github.com/antzucaro/matchr"
)

// Confidence qualifies an exposure verdict. A confirmed absence is a
// distinct state from "every source failed": callers must be able to
// tell "we looked and it is not there" apart from "we could not look".
type Confidence string

const (
	ConfidenceCorroborated    Confidence = "corroborated"
	ConfidenceTitleOnly       Confidence = "title-only"
	ConfidenceConfirmedAbsent Confidence = "confirmed-absent"
	ConfidenceUnknown         Confidence = "unknown-due-to-failure"
)

type ExposureQuery struct {
	BlogId  string
	Title   string
	PostUrl string
}

type ExposureResult struct {
	Exposed    bool
	Confidence Confidence
}

// an entry may contain the title plus decoration (ellipsis, category
// labels), but an entry much longer than the title is probably an
// unrelated page that merely quotes it
const containmentLengthFactor = 1.5

// near-identical titles (typo fixes, re-published posts) are accepted
// only when the entry's link corroborates the match
const fuzzyTitleThreshold = 0.95

func postIdOf(postUrl string) string {
	trimmed := strings.TrimRight(postUrl, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}

func corroborates(query ExposureQuery, href string) bool {
	if href == "" {
		return false
	}
	postId := postIdOf(query.PostUrl)
	if postId == "" {
		return false
	}
	return strings.Contains(href, query.BlogId) && strings.Contains(href, postId)
}

func titleMatches(query ExposureQuery, entry htmlutil.Anchor) bool {
	title := htmlutil.NormalizeText(query.Title)
	text := entry.Text
	if title == "" || text == "" {
		return false
	}

	if text == title {
		return true
	}
	if strings.Contains(text, title) &&
		float64(utf8.RuneCountInString(text)) <= containmentLengthFactor*float64(utf8.RuneCountInString(title)) {
		return true
	}
	if corroborates(query, entry.Href) &&
		matchr.JaroWinkler(strings.ToLower(text), strings.ToLower(title), false) >= fuzzyTitleThreshold {
		return true
	}
	return false
}

// MatchCorpus scans one corpus in document order and returns the first
// match. found is false when the corpus was scanned successfully but
// contains no match.
func MatchCorpus(query ExposureQuery, corpus []htmlutil.Anchor) (ExposureResult, bool) {
	for _, entry := range corpus {
		if !titleMatches(query, entry) {
			continue
		}
		confidence := ConfidenceTitleOnly
		if corroborates(query, entry.Href) {
			confidence = ConfidenceCorroborated
		}
		return ExposureResult{Exposed: true, Confidence: confidence}, true
	}
	return ExposureResult{}, false
}
