package pipeline

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datatidy-cli/internal/cleaning"
	"github.com/KaramelBytes/datatidy-cli/internal/utils"
)

// ColumnSummary holds descriptive statistics of a numeric column's present values.
type ColumnSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize describes vals; ok is false when vals is empty.
func Summarize(vals []float64) (ColumnSummary, bool) {
	if len(vals) == 0 {
		return ColumnSummary{}, false
	}
	s := ColumnSummary{Count: len(vals), Mean: cleaning.Mean(vals), Median: cleaning.Median(vals), Min: vals[0], Max: vals[0]}
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	for _, v := range vals[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s, true
}

// Comparison pairs a numeric column's summary before and after cleaning.
type Comparison struct {
	Column string        `json:"column"`
	Before ColumnSummary `json:"before"`
	After  ColumnSummary `json:"after"`
}

// Compare summarizes every snapshotted column before and after cleaning.
// Columns without present values on either side are skipped.
func (r *Result) Compare() []Comparison {
	if r.Report == nil || r.Report.Snapshot == nil || r.Table == nil {
		return nil
	}
	var out []Comparison
	for _, name := range r.Report.Snapshot.Names() {
		before, ok := Summarize(r.Report.Snapshot.Present(name))
		if !ok {
			continue
		}
		col, ok := r.Table.Column(name)
		if !ok {
			continue
		}
		after, ok := Summarize(col.Present())
		if !ok {
			continue
		}
		out = append(out, Comparison{Column: name, Before: before, After: after})
	}
	return out
}

type jsonResult struct {
	*Result
	Comparisons []Comparison `json:"comparisons,omitempty"`
}

// JSON renders the result, including before/after comparisons, as indented JSON.
func (r *Result) JSON() ([]byte, error) {
	return utils.PrettyJSON(jsonResult{Result: r, Comparisons: r.Compare()})
}

// Markdown renders a human-readable report of the run.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[RUN SUMMARY]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	b.WriteString(fmt.Sprintf("Initial shape: %s\n", r.Initial))
	b.WriteString(fmt.Sprintf("Duplicates removed: %d\n", r.Duplicates.Removed))
	b.WriteString(fmt.Sprintf("Final shape: %s\n", r.Final))

	if len(r.InitialMissing) > 0 {
		b.WriteString("\n[INITIAL MISSING VALUES]\n")
		for _, m := range r.InitialMissing {
			b.WriteString(fmt.Sprintf("- %s: %d\n", safeName(m.Column), m.Missing))
		}
	}

	if len(r.Coercions) > 0 {
		b.WriteString("\n[TYPE COERCION]\n")
		for _, c := range r.Coercions {
			b.WriteString(fmt.Sprintf("- %s\n", safeVal(c.String())))
		}
	}

	rep := r.Report
	if rep != nil && len(rep.Imputations) > 0 {
		b.WriteString("\n[IMPUTATION]\n")
		for _, imp := range rep.Imputations {
			b.WriteString(fmt.Sprintf("- %s: missing %d", safeName(imp.Column), imp.Missing))
			if imp.Strategy == cleaning.StrategyNone {
				b.WriteString(", not filled\n")
				continue
			}
			if imp.SkewDefined {
				b.WriteString(fmt.Sprintf(", skewness %.3f", imp.Skewness))
			} else {
				b.WriteString(", skewness undefined (treated as 0)")
			}
			b.WriteString(fmt.Sprintf(", filled %d with %s %.4g\n", imp.Filled, imp.Strategy, imp.Value))
		}
	}

	if rep != nil && len(rep.Outliers) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		for _, o := range rep.Outliers {
			if !o.Defined {
				b.WriteString(fmt.Sprintf("- %s: fences undefined\n", safeName(o.Column)))
				continue
			}
			f := o.Fences
			b.WriteString(fmt.Sprintf("- %s: Q1 %.4g, Q3 %.4g, IQR %.4g, fences [%.4g, %.4g], flagged %d\n",
				safeName(o.Column), f.Q1, f.Q3, f.IQR, f.Lower, f.Upper, o.Count))
		}
		b.WriteString(fmt.Sprintf("Total flagged: %d\n", rep.TotalOutliers()))
	}

	if cmp := r.Compare(); len(cmp) > 0 {
		b.WriteString("\n[BEFORE VS AFTER]\n")
		for _, c := range cmp {
			b.WriteString(fmt.Sprintf("- %s: n %d → %d, mean %.4g → %.4g, std %.4g → %.4g, median %.4g → %.4g\n",
				safeName(c.Column), c.Before.Count, c.After.Count,
				c.Before.Mean, c.After.Mean, c.Before.Std, c.After.Std, c.Before.Median, c.After.Median))
		}
	}

	if rep != nil && len(rep.Failures) > 0 {
		b.WriteString("\n[FAILURES]\n")
		for _, f := range rep.Failures {
			b.WriteString(fmt.Sprintf("- %s (%s): %s\n", safeName(f.Column), f.Stage, safeVal(f.Message)))
		}
	}

	if len(r.Notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range r.Notes {
			b.WriteString(fmt.Sprintf("- %s\n", safeVal(n)))
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
