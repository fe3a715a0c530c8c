// Package ingest reads a delimited file into an all-text table, normalizing
// headers, recognizing missing-value tokens and dropping unusable columns.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Options controls how a CSV file is read.
type Options struct {
	// Delimiter for CSV. If 0, picked from the file extension (.tsv -> tab, else comma).
	Delimiter rune
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// MissingTokens are compared case-insensitively after trimming.
	MissingTokens []string
	// ASCIIHeaders folds header names to [a-z0-9_].
	ASCIIHeaders bool
}

// DefaultMissingTokens mirrors the common spreadsheet/pandas spellings of "no value".
var DefaultMissingTokens = []string{"", "na", "n/a", "nan", "null", "none", "<na>", "#n/a", "-nan"}

// DefaultOptions returns reasonable defaults for reading raw exports.
func DefaultOptions() Options {
	return Options{MissingTokens: DefaultMissingTokens}
}

// Info describes what ingestion did to the raw file.
type Info struct {
	Name           string
	Rows           int // data rows in the file
	Loaded         int // data rows kept in the table
	InitialColumns int
	Dropped        []string
	Notes          []string
}

// Load reads the CSV at path.
func Load(path string, opt Options) (*table.Table, *Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return Read(filepath.Base(path), f, opt)
}

// Read parses CSV content from r. name labels the resulting table.
func Read(name string, r io.Reader, opt Options) (*table.Table, *Info, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comma = delim

	info := &Info{Name: name}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return table.New(name, 0), info, nil
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	header = stripHeaderBOM(header)
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = NormalizeHeader(h, opt.ASCIIHeaders)
	}
	names = uniqueHeaders(names)
	ncol := len(names)
	info.InitialColumns = ncol

	missing := make(map[string]struct{}, len(opt.MissingTokens))
	for _, tok := range opt.MissingTokens {
		missing[strings.ToLower(strings.TrimSpace(tok))] = struct{}{}
	}

	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	texts := make([][]string, ncol)
	valid := make([][]bool, ncol)
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read row %d: %w", info.Rows+1, err)
		}
		info.Rows++
		if info.Loaded >= maxRows {
			continue
		}
		info.Loaded++
		for j := 0; j < ncol; j++ {
			var v string
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			_, isMissing := missing[strings.ToLower(v)]
			texts[j] = append(texts[j], v)
			valid[j] = append(valid[j], !isMissing)
		}
	}
	if info.Loaded < info.Rows {
		info.Notes = append(info.Notes, fmt.Sprintf("processed only %d/%d rows due to MaxRows", info.Loaded, info.Rows))
	}

	t := table.New(name, info.Loaded)
	for j := 0; j < ncol; j++ {
		col := table.NewText(names[j], texts[j], valid[j])
		if reason := dropReason(col); reason != "" {
			info.Dropped = append(info.Dropped, names[j])
			info.Notes = append(info.Notes, fmt.Sprintf("dropped column %q (%s)", names[j], reason))
			continue
		}
		if err := t.Add(col); err != nil {
			return nil, nil, fmt.Errorf("build table: %w", err)
		}
	}
	return t, info, nil
}

// dropReason reports why a raw column should not enter the pipeline: it is an
// index artifact ("unnamed: 0") or it has rows but no values at all.
func dropReason(c *table.Column) string {
	if strings.HasPrefix(strings.ToLower(c.Name), "unnamed") {
		return "unnamed index column"
	}
	if c.Len() > 0 && c.MissingCount() == c.Len() {
		return "all values missing"
	}
	return ""
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// ParseDelimiter maps a user-facing delimiter name to a rune.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}
