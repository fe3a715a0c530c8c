package cleaning

import (
	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Report aggregates what the numeric stages did. It is filled as stages
// complete and never recomputes values.
type Report struct {
	Numeric       []string        `json:"numeric_columns"`
	OutlierCounts map[string]int  `json:"outlier_counts"`
	Masks         []string        `json:"mask_columns"`
	Imputations   []Imputation    `json:"imputations"`
	Outliers      []OutlierResult `json:"outliers"`
	Failures      []ColumnFailure `json:"failures,omitempty"`
	Snapshot      *Snapshot       `json:"-"`
}

func newReport(numeric []string) *Report {
	return &Report{
		Numeric:       append([]string(nil), numeric...),
		OutlierCounts: make(map[string]int, len(numeric)),
	}
}

// TotalOutliers sums the outlier counts across columns.
func (r *Report) TotalOutliers() int {
	n := 0
	for _, c := range r.OutlierCounts {
		n += c
	}
	return n
}

// Imputation returns the decision recorded for column, if any.
func (r *Report) Imputation(column string) (Imputation, bool) {
	for _, imp := range r.Imputations {
		if imp.Column == column {
			return imp, true
		}
	}
	return Imputation{}, false
}

// Outlier returns the flagging result recorded for column, if any.
func (r *Report) Outlier(column string) (OutlierResult, bool) {
	for _, o := range r.Outliers {
		if o.Column == column {
			return o, true
		}
	}
	return OutlierResult{}, false
}

// Snapshot is a read-only copy of numeric columns taken before mutation, kept
// for before/after comparisons.
type Snapshot struct {
	names []string
	cols  map[string]*table.Column
}

// TakeSnapshot deep-copies the named columns of t.
func TakeSnapshot(t *table.Table, names []string) *Snapshot {
	s := &Snapshot{cols: make(map[string]*table.Column, len(names))}
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			continue
		}
		s.names = append(s.names, name)
		s.cols[name] = c.Clone()
	}
	return s
}

// Names lists the captured columns in table order.
func (s *Snapshot) Names() []string { return append([]string(nil), s.names...) }

// Column returns a copy of the captured column.
func (s *Snapshot) Column(name string) (*table.Column, bool) {
	c, ok := s.cols[name]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Present returns the captured column's non-missing values.
func (s *Snapshot) Present(name string) []float64 {
	c, ok := s.cols[name]
	if !ok {
		return nil
	}
	return c.Present()
}
