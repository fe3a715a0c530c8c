// Package export writes a cleaned table to its destinations: delimited text,
// Parquet files and Postgres tables.
package export

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Format selects the file encoding of an export.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "parquet", "pq":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("unsupported format %q (use csv or parquet)", s)
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == FormatParquet {
		return ".parquet"
	}
	return ".csv"
}

// FormatForPath picks parquet for .parquet paths and fallback otherwise.
func FormatForPath(path string, fallback Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet
	case ".csv", ".tsv":
		return FormatCSV
	}
	return fallback
}

// WriteFile encodes t to path in format f.
func WriteFile(path string, t *table.Table, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSVFile(path, t)
	case FormatParquet:
		return WriteParquetFile(path, t)
	}
	return fmt.Errorf("unsupported format %q", f)
}

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = time.RFC3339
)

// timeLayout prints date-only columns without a clock component.
func timeLayout(c *table.Column) string {
	for i, ts := range c.Times {
		if !c.Valid[i] {
			continue
		}
		h, m, s := ts.Clock()
		if h != 0 || m != 0 || s != 0 || ts.Nanosecond() != 0 {
			return datetimeLayout
		}
	}
	return dateLayout
}

// cellFormatter renders the cells of one column; ok is false for missing cells.
type cellFormatter func(i int) (s string, ok bool)

func formatterFor(c *table.Column) cellFormatter {
	switch c.Kind {
	case table.KindNumeric:
		return func(i int) (string, bool) {
			if c.IsMissing(i) {
				return "", false
			}
			return strconv.FormatFloat(c.Nums[i], 'f', -1, 64), true
		}
	case table.KindTemporal:
		layout := timeLayout(c)
		return func(i int) (string, bool) {
			if c.IsMissing(i) {
				return "", false
			}
			return c.Times[i].Format(layout), true
		}
	case table.KindFlag:
		return func(i int) (string, bool) {
			if c.Flags[i] {
				return "1", true
			}
			return "0", true
		}
	default:
		return func(i int) (string, bool) {
			if c.IsMissing(i) {
				return "", false
			}
			return c.Texts[i], true
		}
	}
}
