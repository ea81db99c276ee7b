// Package summary computes descriptive statistics for a dataset and turns
// them, together with detection counts, into LLM-written reports.
package summary

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/autonomous-analyst/internal/dataset"
)

// NoCategoricalColumns replaces the categorical block when there is nothing
// to report.
const NoCategoricalColumns = "No categorical columns."

// TopValues is how many values are listed per categorical column.
const TopValues = 5

// NumericSummary is the count/mean/std/quartile summary of one column.
type NumericSummary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string
	Count int
}

// CategoricalSummary lists the most frequent values of one column.
type CategoricalSummary struct {
	Column string
	Top    []ValueCount
}

// Stats is the descriptive summary of a whole dataset.
type Stats struct {
	Numeric     []NumericSummary
	Categorical []CategoricalSummary
}

// Describe summarizes every column of ds in column order.
func Describe(ds *dataset.Dataset) Stats {
	var s Stats
	for _, col := range ds.Columns() {
		switch col.Kind {
		case dataset.KindNumeric:
			s.Numeric = append(s.Numeric, describeNumeric(col.Name, col.Numbers))
		case dataset.KindCategorical:
			s.Categorical = append(s.Categorical, CategoricalSummary{
				Column: col.Name,
				Top:    topValues(col.Values, TopValues),
			})
		}
	}
	return s
}

func describeNumeric(name string, values []float64) NumericSummary {
	ns := NumericSummary{Column: name, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		ns.Mean, ns.Std, ns.Min, ns.Q25, ns.Q50, ns.Q75, ns.Max = nan, nan, nan, nan, nan, nan, nan
		return ns
	}

	ns.Mean, ns.Std = stat.MeanStdDev(values, nil)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	ns.Min = floats.Min(sorted)
	ns.Max = floats.Max(sorted)
	ns.Q25 = Percentile(sorted, 0.25)
	ns.Q50 = Percentile(sorted, 0.50)
	ns.Q75 = Percentile(sorted, 0.75)
	return ns
}

// Percentile returns the q-quantile (0 ≤ q ≤ 1) of sorted values using linear
// interpolation between the closest ranks.
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	pos := q * float64(n-1)
	lower := int(math.Floor(pos))
	if lower >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}

// topValues counts values and returns at most limit of them, most frequent
// first with ties broken by value.
func topValues(values []string, limit int) []ValueCount {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}

	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NumericTable renders the numeric summaries as an aligned table with one
// row per statistic and one column per dataset column, rounded to two
// decimals.
func (s Stats) NumericTable() string {
	if len(s.Numeric) == 0 {
		return "No numeric columns."
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := make([]string, 0, len(s.Numeric)+1)
	header = append(header, "")
	for _, ns := range s.Numeric {
		header = append(header, ns.Column)
	}
	writeRow(tw, header)

	rows := []struct {
		name string
		get  func(NumericSummary) float64
	}{
		{"count", func(ns NumericSummary) float64 { return float64(ns.Count) }},
		{"mean", func(ns NumericSummary) float64 { return ns.Mean }},
		{"std", func(ns NumericSummary) float64 { return ns.Std }},
		{"min", func(ns NumericSummary) float64 { return ns.Min }},
		{"25%", func(ns NumericSummary) float64 { return ns.Q25 }},
		{"50%", func(ns NumericSummary) float64 { return ns.Q50 }},
		{"75%", func(ns NumericSummary) float64 { return ns.Q75 }},
		{"max", func(ns NumericSummary) float64 { return ns.Max }},
	}
	for _, r := range rows {
		cells := make([]string, 0, len(s.Numeric)+1)
		cells = append(cells, r.name)
		for _, ns := range s.Numeric {
			cells = append(cells, formatStat(r.get(ns)))
		}
		writeRow(tw, cells)
	}

	_ = tw.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

func writeRow(tw *tabwriter.Writer, cells []string) {
	_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', 2, 64)
}

// CategoricalBlock renders one line per categorical column, or the
// NoCategoricalColumns placeholder.
func (s Stats) CategoricalBlock() string {
	if len(s.Categorical) == 0 {
		return NoCategoricalColumns
	}

	lines := make([]string, len(s.Categorical))
	for i, cs := range s.Categorical {
		parts := make([]string, len(cs.Top))
		for j, vc := range cs.Top {
			parts[j] = fmt.Sprintf("%s: %d", vc.Value, vc.Count)
		}
		lines[i] = fmt.Sprintf("%s: {%s}", cs.Column, strings.Join(parts, ", "))
	}
	return strings.Join(lines, "\n")
}
