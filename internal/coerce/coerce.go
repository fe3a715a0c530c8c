// Package coerce reinterprets raw text columns as numeric or datetime columns.
// A column is converted only when every present cell parses; otherwise it stays
// text and the result records the first value that failed.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Options controls type coercion.
type Options struct {
	// DecimalSeparator used by numeric cells; 0 means '.'.
	DecimalSeparator rune
	// ThousandsSeparator stripped from numeric cells; 0 means none.
	ThousandsSeparator rune
	// Lowercase asks the pipeline to fold text cells with FoldText once
	// duplicates are removed; Apply itself never changes text.
	Lowercase bool
}

// DefaultOptions returns the defaults used by the clean command.
func DefaultOptions() Options {
	return Options{DecimalSeparator: '.', Lowercase: true}
}

// Result is the outcome of coercing one text column.
type Result struct {
	Column  string     `json:"column"`
	Kind    table.Kind `json:"kind"`
	Coerced bool       `json:"coerced"`
	// Reason explains why the column stayed text.
	Reason string `json:"reason,omitempty"`
}

func (r Result) String() string {
	if r.Coerced {
		return fmt.Sprintf("%s: %s", r.Column, r.Kind)
	}
	return fmt.Sprintf("%s: text (%s)", r.Column, r.Reason)
}

// Apply coerces every text column of t in place and returns one Result per
// text column in table order.
func Apply(t *table.Table, opt Options) ([]Result, error) {
	names := t.NamesOf(table.KindText)
	results := make([]Result, 0, len(names))
	for _, name := range names {
		col, _ := t.Column(name)
		res, next := coerceColumn(col, opt)
		if next != col {
			if err := t.Replace(next); err != nil {
				return nil, fmt.Errorf("coerce %q: %w", name, err)
			}
		}
		results = append(results, res)
	}
	return results, nil
}

func coerceColumn(col *table.Column, opt Options) (Result, *table.Column) {
	res := Result{Column: col.Name, Kind: table.KindText}
	present := 0
	for i := range col.Texts {
		if col.Valid[i] {
			present++
		}
	}
	if present == 0 {
		res.Reason = "no values"
		return res, col
	}

	nums := make([]float64, col.Len())
	numFail := -1
	for i, s := range col.Texts {
		if !col.Valid[i] {
			continue
		}
		x, ok := ParseNumeric(s, opt)
		if !ok {
			numFail = i
			break
		}
		nums[i] = x
	}
	if numFail < 0 {
		res.Kind, res.Coerced = table.KindNumeric, true
		return res, table.NewNumeric(col.Name, nums, append([]bool(nil), col.Valid...))
	}

	times := make([]time.Time, col.Len())
	timeFail := -1
	for i, s := range col.Texts {
		if !col.Valid[i] {
			continue
		}
		ts, ok := ParseTime(s)
		if !ok {
			timeFail = i
			break
		}
		times[i] = ts
	}
	if timeFail < 0 {
		res.Kind, res.Coerced = table.KindTemporal, true
		return res, table.NewTemporal(col.Name, times, append([]bool(nil), col.Valid...))
	}

	res.Reason = fmt.Sprintf("row %d value %q is neither numeric nor a date", numFail+1, col.Texts[numFail])
	return res, col
}

// FoldText lowercases every text cell of t in place and returns the number of
// cells it changed. It runs after de-duplication, so rows that differ only in
// case are not merged.
func FoldText(t *table.Table) int {
	changed := 0
	for _, name := range t.NamesOf(table.KindText) {
		col, _ := t.Column(name)
		for i, s := range col.Texts {
			if !col.Valid[i] {
				continue
			}
			if lower := strings.ToLower(s); lower != s {
				col.Texts[i] = lower
				changed++
			}
		}
	}
	return changed
}

// ParseNumeric parses a finite number, ignoring '%' signs and the configured
// thousands separator. Spellings of infinity and NaN are rejected.
func ParseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	if thou := opt.ThousandsSeparator; thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	// strconv accepts underscores and hex floats only with a base prefix; reject
	// them so identifiers like "0x1F" stay text.
	if strings.ContainsAny(raw, "_xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"January 2, 2006", "2 January 2006", "Jan 2, 2006",
}

// ParseTime tries the supported date layouts in order.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseSeparator maps a user-facing separator name to a rune.
func ParseSeparator(s string, allowSpace bool) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "space":
		if allowSpace {
			return ' ', nil
		}
	}
	return 0, fmt.Errorf("unsupported separator: %q", s)
}
