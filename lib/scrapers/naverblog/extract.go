package naverblog

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"blogtracker-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoData means a strategy (or the whole pipeline) found nothing to
// extract. It is an expected outcome, not a failure.
var ErrNoData = errors.New("no visitor data found")

// CandidateSeries is the raw output of one extraction strategy.
// Values are in document order, which for every strategy here means
// oldest first and newest last.
type CandidateSeries struct {
	Values   []int
	Strategy string
}

// Strategy is one self-contained extraction attempt. It returns the
// values it found, or ErrNoData. Any other error is a parse failure
// and degrades to no-data for that strategy only.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, doc *goquery.Document, targetLen int) ([]int, error)
}

// Pipeline runs strategies in a fixed priority order. The first
// strategy that returns at least one value is authoritative, even when
// it returns fewer than targetLen values: a short genuine series beats
// anything a lower-priority strategy could add.
type Pipeline struct {
	strategies []Strategy
}

func NewPipeline() Pipeline {
	return Pipeline{
		strategies: []Strategy{
			scriptVariableStrategy{},
			widgetElementStrategy{},
			visibleTextStrategy{},
		},
	}
}

func (p Pipeline) Extract(ctx context.Context, doc *goquery.Document, targetLen int) (CandidateSeries, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.Extract")
	defer span.End()

	for _, s := range p.strategies {
		values, err := s.Extract(ctx, doc, targetLen)
		if errors.Is(err, ErrNoData) {
			slog.DebugContext(ctx, "extraction strategy attempt",
				"strategy", s.Name(), "outcome", "no_data")
			span.AddEvent("strategy", trace.WithAttributes(
				attribute.String("name", s.Name()),
				attribute.String("outcome", "no_data"),
			))
			continue
		}
		if err != nil {
			slog.WarnContext(ctx, "extraction strategy attempt",
				"strategy", s.Name(), "outcome", "parse_error", "err", err)
			span.AddEvent("strategy", trace.WithAttributes(
				attribute.String("name", s.Name()),
				attribute.String("outcome", "parse_error"),
			))
			continue
		}

		slog.DebugContext(ctx, "extraction strategy attempt",
			"strategy", s.Name(), "outcome", "ok", "values", len(values))
		span.AddEvent("strategy", trace.WithAttributes(
			attribute.String("name", s.Name()),
			attribute.String("outcome", "ok"),
			attribute.Int("values", len(values)),
		))
		return CandidateSeries{Values: values, Strategy: s.Name()}, nil
	}

	return CandidateSeries{}, ErrNoData
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// identifiers the platform has been observed to use for the visitor
// series across widget revisions
var visitorAssignRegex = regexp.MustCompile(
	`(?i)(visitorcnt|visitor_?counts?|daily_?visitors?|visitor_?list|visit_?counts?)\s*=\s*\[([^\]]*)\]`,
)

type scriptVariableStrategy struct{}

func (scriptVariableStrategy) Name() string { return "script_variable" }

func (scriptVariableStrategy) Extract(ctx context.Context, doc *goquery.Document, _ int) ([]int, error) {
	for _, script := range doc.Find("script").Nodes {
		text := htmlutil.GetText(script)
		if text == "" {
			continue
		}

		for _, groups := range visitorAssignRegex.FindAllStringSubmatch(text, -1) {
			values := parseTokenList(groups[2])
			if len(values) > 0 {
				// first assignment with values wins, later
				// matches are never merged in
				return values, nil
			}
		}
	}
	return nil, ErrNoData
}

func parseTokenList(list string) []int {
	var values []int
	for _, tok := range strings.Split(list, ",") {
		tok = strings.Trim(tok, " \t\n'\"")
		if strings.HasPrefix(tok, "-") && isDigits(tok[1:]) {
			// numeric, but negative counts are not representable
			continue
		}
		if !isDigits(tok) {
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values
}

var countClassRegex = regexp.MustCompile(`(?i)visitor|count`)

type widgetElementStrategy struct{}

func (widgetElementStrategy) Name() string { return "widget_element" }

func (widgetElementStrategy) Extract(ctx context.Context, doc *goquery.Document, _ int) ([]int, error) {
	// the widget frame serves one <visitorcnt cnt="..."> element per day
	var values []int
	doc.Find("visitorcnt").Each(func(_ int, el *goquery.Selection) {
		cnt := el.AttrOr("cnt", "")
		if isDigits(cnt) {
			v, err := strconv.Atoi(cnt)
			if err == nil {
				values = append(values, v)
			}
		}
	})
	if len(values) > 0 {
		return values, nil
	}

	doc.Find("[data-visitor-count]").Each(func(_ int, el *goquery.Selection) {
		cnt := el.AttrOr("data-visitor-count", "")
		if isDigits(cnt) {
			v, err := strconv.Atoi(cnt)
			if err == nil {
				values = append(values, v)
			}
		}
	})
	if len(values) > 0 {
		return values, nil
	}

	// older widget markup renders the count as element text
	doc.Find("span,div").Each(func(_ int, el *goquery.Selection) {
		class := el.AttrOr("class", "")
		if !countClassRegex.MatchString(class) {
			return
		}
		text := strings.TrimSpace(el.Text())
		if isDigits(text) {
			v, err := strconv.Atoi(text)
			if err == nil {
				values = append(values, v)
			}
		}
	})
	if len(values) > 0 {
		return values, nil
	}

	return nil, ErrNoData
}

var digitRunRegex = regexp.MustCompile(`\d+`)

// upper bound on a believable daily visitor count when scraping digits
// out of free text
const plausibleVisitorMax = 10000

type visibleTextStrategy struct{}

func (visibleTextStrategy) Name() string { return "visible_text" }

func (visibleTextStrategy) Extract(ctx context.Context, doc *goquery.Document, targetLen int) ([]int, error) {
	if len(doc.Selection.Nodes) == 0 {
		return nil, ErrNoData
	}
	text := htmlutil.VisibleText(doc.Selection.Nodes[0])

	var values []int
	for _, run := range digitRunRegex.FindAllString(text, -1) {
		v, err := strconv.Atoi(run)
		if err != nil {
			continue
		}
		if v > plausibleVisitorMax {
			continue
		}
		values = append(values, v)
	}

	// free text is too noisy to trust unless there are at least as
	// many plausible numbers as requested days
	if len(values) < targetLen {
		return nil, ErrNoData
	}
	return values, nil
}
