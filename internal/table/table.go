// Package table holds the in-memory dataset the cleaning pipeline mutates:
// an ordered set of uniquely named, equally long, kind-tagged columns.
package table

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Kind tags the payload a Column carries.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindTemporal
	// KindFlag holds 0/1 annotations such as missingness masks and outlier flags.
	KindFlag
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTemporal:
		return "datetime"
	case KindFlag:
		return "flag"
	default:
		return "text"
	}
}

// MarshalText encodes the kind by name in JSON reports.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ErrDuplicateColumn is returned when a column name is already taken.
var ErrDuplicateColumn = errors.New("duplicate column name")

// ShapeMismatchError reports a column whose length differs from the table's row count.
type ShapeMismatchError struct {
	Column string
	Want   int
	Got    int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: column %q has %d rows, table has %d", e.Column, e.Got, e.Want)
}

// Column is a named sequence of cells. Exactly one payload slice is populated,
// selected by Kind. Valid[i] == false marks a missing cell; flag columns never
// have missing cells.
type Column struct {
	Name  string
	Kind  Kind
	Nums  []float64
	Texts []string
	Times []time.Time
	Flags []bool
	Valid []bool
}

// NewNumeric builds a numeric column; NaN entries in vals are data, missing
// cells are expressed through valid.
func NewNumeric(name string, vals []float64, valid []bool) *Column {
	return &Column{Name: name, Kind: KindNumeric, Nums: vals, Valid: valid}
}

// NewText builds a text column.
func NewText(name string, vals []string, valid []bool) *Column {
	return &Column{Name: name, Kind: KindText, Texts: vals, Valid: valid}
}

// NewTemporal builds a datetime column.
func NewTemporal(name string, vals []time.Time, valid []bool) *Column {
	return &Column{Name: name, Kind: KindTemporal, Times: vals, Valid: valid}
}

// NewFlag builds a 0/1 annotation column.
func NewFlag(name string, flags []bool) *Column {
	valid := make([]bool, len(flags))
	for i := range valid {
		valid[i] = true
	}
	return &Column{Name: name, Kind: KindFlag, Flags: flags, Valid: valid}
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Valid) }

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool { return !c.Valid[i] }

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// Present returns the non-missing numeric values in row order.
func (c *Column) Present() []float64 {
	out := make([]float64, 0, len(c.Nums))
	for i, v := range c.Nums {
		if c.Valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// FlagCount returns the number of true flags.
func (c *Column) FlagCount() int {
	n := 0
	for _, f := range c.Flags {
		if f {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (c *Column) Clone() *Column {
	cp := &Column{Name: c.Name, Kind: c.Kind}
	cp.Valid = append([]bool(nil), c.Valid...)
	switch c.Kind {
	case KindNumeric:
		cp.Nums = append([]float64(nil), c.Nums...)
	case KindTemporal:
		cp.Times = append([]time.Time(nil), c.Times...)
	case KindFlag:
		cp.Flags = append([]bool(nil), c.Flags...)
	default:
		cp.Texts = append([]string(nil), c.Texts...)
	}
	return cp
}

// Key returns a canonical string encoding of row i, used for equality checks.
func (c *Column) Key(i int) string {
	if !c.Valid[i] {
		return "\x00"
	}
	switch c.Kind {
	case KindNumeric:
		return fmt.Sprintf("%016x", math.Float64bits(c.Nums[i]))
	case KindTemporal:
		return c.Times[i].UTC().Format(time.RFC3339Nano)
	case KindFlag:
		if c.Flags[i] {
			return "1"
		}
		return "0"
	default:
		return c.Texts[i]
	}
}

func (c *Column) length() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Nums)
	case KindTemporal:
		return len(c.Times)
	case KindFlag:
		return len(c.Flags)
	default:
		return len(c.Texts)
	}
}

// keep retains only the given rows, in order.
func (c *Column) keep(rows []int) {
	valid := make([]bool, len(rows))
	for j, i := range rows {
		valid[j] = c.Valid[i]
	}
	switch c.Kind {
	case KindNumeric:
		out := make([]float64, len(rows))
		for j, i := range rows {
			out[j] = c.Nums[i]
		}
		c.Nums = out
	case KindTemporal:
		out := make([]time.Time, len(rows))
		for j, i := range rows {
			out[j] = c.Times[i]
		}
		c.Times = out
	case KindFlag:
		out := make([]bool, len(rows))
		for j, i := range rows {
			out[j] = c.Flags[i]
		}
		c.Flags = out
	default:
		out := make([]string, len(rows))
		for j, i := range rows {
			out[j] = c.Texts[i]
		}
		c.Texts = out
	}
	c.Valid = valid
}

// Table is an ordered collection of uniquely named columns of equal length.
type Table struct {
	Name  string
	rows  int
	cols  []*Column
	index map[string]int
}

// New creates an empty table with a fixed row count.
func New(name string, rows int) *Table {
	return &Table{Name: name, rows: rows, index: make(map[string]int)}
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.rows }

// Width returns the column count.
func (t *Table) Width() int { return len(t.cols) }

// Add appends a column, enforcing name uniqueness and the row count.
func (t *Table) Add(c *Column) error {
	if _, ok := t.index[c.Name]; ok {
		return fmt.Errorf("add %q: %w", c.Name, ErrDuplicateColumn)
	}
	if c.length() != t.rows || len(c.Valid) != t.rows {
		got := c.length()
		if got == t.rows {
			got = len(c.Valid)
		}
		return &ShapeMismatchError{Column: c.Name, Want: t.rows, Got: got}
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// Replace swaps the column with the same name, keeping its position.
func (t *Table) Replace(c *Column) error {
	idx, ok := t.index[c.Name]
	if !ok {
		return fmt.Errorf("replace %q: column not found", c.Name)
	}
	if c.length() != t.rows || len(c.Valid) != t.rows {
		return &ShapeMismatchError{Column: c.Name, Want: t.rows, Got: c.length()}
	}
	t.cols[idx] = c
	return nil
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	idx, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[idx], true
}

// Columns returns a copy of the column list; mutating the returned slice does
// not affect the table.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Names returns column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// NamesOf returns, in order, the names of columns with the given kind.
func (t *Table) NamesOf(kind Kind) []string {
	var out []string
	for _, c := range t.cols {
		if c.Kind == kind {
			out = append(out, c.Name)
		}
	}
	return out
}

// KeepRows retains only the listed row indexes across all columns.
func (t *Table) KeepRows(rows []int) {
	for _, c := range t.cols {
		c.keep(rows)
	}
	t.rows = len(rows)
}

// RowKey returns the canonical encoding of row i across all columns.
func (t *Table) RowKey(i int) []string {
	out := make([]string, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Key(i)
	}
	return out
}
