// Package pipeline drives one cleaning run end to end:
// ingest, coerce, dedup, then the numeric cleaning stages.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datatidy-cli/internal/cleaning"
	"github.com/KaramelBytes/datatidy-cli/internal/coerce"
	"github.com/KaramelBytes/datatidy-cli/internal/dedup"
	"github.com/KaramelBytes/datatidy-cli/internal/ingest"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Options bundles the settings of every stage.
type Options struct {
	Ingest   ingest.Options
	Coerce   coerce.Options
	Cleaning cleaning.Options
	Logger   *zap.Logger
}

// DefaultOptions returns the defaults of every stage.
func DefaultOptions() Options {
	return Options{
		Ingest:   ingest.DefaultOptions(),
		Coerce:   coerce.DefaultOptions(),
		Cleaning: cleaning.DefaultOptions(),
	}
}

// Shape is a (rows, columns) pair.
type Shape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

func (s Shape) String() string { return fmt.Sprintf("(%d, %d)", s.Rows, s.Columns) }

func shapeOf(t *table.Table) Shape { return Shape{Rows: t.Rows(), Columns: t.Width()} }

// ColumnMissing is a column's missing-cell count.
type ColumnMissing struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
}

// Result is everything one run produced.
type Result struct {
	RunID          string           `json:"run_id"`
	Source         string           `json:"source"`
	StartedAt      time.Time        `json:"started_at"`
	Duration       time.Duration    `json:"duration_ns"`
	Initial        Shape            `json:"initial_shape"`
	Final          Shape            `json:"final_shape"`
	InitialMissing []ColumnMissing  `json:"initial_missing"`
	Dropped        []string         `json:"dropped_columns,omitempty"`
	Notes          []string         `json:"notes,omitempty"`
	Coercions      []coerce.Result  `json:"coercions"`
	Duplicates     dedup.Result     `json:"duplicates"`
	Report         *cleaning.Report `json:"report"`

	Table *table.Table `json:"-"`
}

// Run loads the file at path and cleans it.
func Run(ctx context.Context, path string, opt Options) (*Result, error) {
	t, info, err := ingest.Load(path, opt.Ingest)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	res, err := Process(ctx, t, info, opt)
	if err != nil {
		return nil, err
	}
	res.Source = path
	return res, nil
}

// Process cleans an already loaded table in place. info may be nil.
func Process(ctx context.Context, t *table.Table, info *ingest.Info, opt Options) (*Result, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opt.Cleaning.Logger == nil {
		opt.Cleaning.Logger = log
	}
	res := &Result{
		RunID:     uuid.NewString(),
		Source:    t.Name,
		StartedAt: time.Now(),
		Initial:   shapeOf(t),
		Table:     t,
	}
	if info != nil {
		res.Dropped = append(res.Dropped, info.Dropped...)
		res.Notes = append(res.Notes, info.Notes...)
	}
	for _, c := range t.Columns() {
		res.InitialMissing = append(res.InitialMissing, ColumnMissing{Column: c.Name, Missing: c.MissingCount()})
	}
	log.Debug("loaded table", zap.String("source", t.Name), zap.Stringer("shape", res.Initial))

	coercions, err := coerce.Apply(t, opt.Coerce)
	if err != nil {
		return nil, fmt.Errorf("coerce: %w", err)
	}
	res.Coercions = coercions
	for _, c := range coercions {
		log.Debug("coerced column", zap.String("column", c.Column), zap.Stringer("kind", c.Kind), zap.String("reason", c.Reason))
	}

	res.Duplicates = dedup.Apply(t)
	log.Debug("removed duplicates", zap.Int("removed", res.Duplicates.Removed), zap.Int("rows", res.Duplicates.After()))
	if opt.Coerce.Lowercase {
		n := coerce.FoldText(t)
		log.Debug("lowercased text", zap.Int("cells", n))
	}

	rep, err := cleaning.Clean(ctx, t, opt.Cleaning)
	if err != nil {
		return nil, err
	}
	res.Report = rep
	res.Final = shapeOf(t)
	res.Duration = time.Since(res.StartedAt)
	return res, nil
}
