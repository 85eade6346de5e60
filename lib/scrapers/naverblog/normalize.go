package naverblog

import "time"

// VisitorStat is one canonical data point of the visitor series.
type VisitorStat struct {
	Date     time.Time
	Visitors int
}

// Normalize maps a raw candidate series onto calendar days ending at
// referenceDay. It keeps the most recent min(n, len) entries and never
// pads: if fewer genuine data points exist the series comes back short.
// referenceDay is injected by the caller so output is reproducible.
func Normalize(series CandidateSeries, n int, referenceDay time.Time) []VisitorStat {
	if n <= 0 {
		return nil
	}

	values := series.Values
	if len(values) > n {
		values = values[len(values)-n:]
	}

	stats := make([]VisitorStat, 0, len(values))
	for i, v := range values {
		if v < 0 {
			// not representable, degrade to zero rather than drop
			// the day and shift every other date
			v = 0
		}
		stats = append(stats, VisitorStat{
			Date:     referenceDay.AddDate(0, 0, -(len(values) - 1 - i)),
			Visitors: v,
		})
	}
	return stats
}
