// Package cleaning implements the numeric core of the pipeline: missingness
// masks, skew-adaptive imputation and IQR outlier flagging.
//
// Stages run in a fixed order over an immutable list of numeric column names
// taken up front. Per-column statistics are computed concurrently, but every
// write to the table happens afterwards, sequentially, in name order.
package cleaning

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

const (
	// DefaultSkewThreshold bounds the closed interval [-t, t] treated as symmetric.
	DefaultSkewThreshold = 0.5
	// DefaultIQRMultiplier scales the IQR to place the outlier fences.
	DefaultIQRMultiplier = 1.5

	maskSuffix = "_was_missing"
	flagSuffix = "_outlier_flag"
)

// Options controls the numeric cleaning stages.
type Options struct {
	SkewThreshold float64
	IQRMultiplier float64
	// Strict turns the first per-column failure into a run error. When false,
	// failures are collected in the report and other columns proceed.
	Strict bool
	// Workers bounds per-column concurrency; 0 uses GOMAXPROCS.
	Workers int
	// Snapshot keeps a copy of the numeric columns before any mutation.
	Snapshot bool
	Logger   *zap.Logger
}

// DefaultOptions returns the documented policy defaults.
func DefaultOptions() Options {
	return Options{
		SkewThreshold: DefaultSkewThreshold,
		IQRMultiplier: DefaultIQRMultiplier,
		Snapshot:      true,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// MaskName is the auxiliary column holding a column's missingness mask.
func MaskName(column string) string { return column + maskSuffix }

// FlagName is the auxiliary column holding a column's outlier flags.
func FlagName(column string) string { return column + flagSuffix }

// Clean runs mask extraction, imputation and outlier flagging over every
// numeric column of t, in that order, and returns the aggregated report.
func Clean(ctx context.Context, t *table.Table, opt Options) (*Report, error) {
	numeric := t.NamesOf(table.KindNumeric)
	rep := newReport(numeric)
	if opt.Snapshot {
		rep.Snapshot = TakeSnapshot(t, numeric)
	}

	masks, err := TrackMissing(t, numeric)
	if err != nil {
		return nil, fmt.Errorf("track missing: %w", err)
	}
	rep.Masks = masks

	imps, failures, err := Impute(ctx, t, numeric, opt)
	if err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}
	rep.Imputations = imps
	rep.Failures = append(rep.Failures, failures...)

	outs, failures, err := FlagOutliers(ctx, t, numeric, opt)
	if err != nil {
		return nil, fmt.Errorf("flag outliers: %w", err)
	}
	rep.Outliers = outs
	rep.Failures = append(rep.Failures, failures...)
	for _, o := range outs {
		rep.OutlierCounts[o.Column] = o.Count
	}
	return rep, nil
}

// numericColumns resolves names to numeric columns, failing on any other kind.
func numericColumns(t *table.Table, names []string) ([]*table.Column, error) {
	cols := make([]*table.Column, len(names))
	for i, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		if c.Kind != table.KindNumeric {
			return nil, &TypeMismatchError{Column: name, Kind: c.Kind}
		}
		cols[i] = c
	}
	return cols, nil
}

// forEachColumn runs fn for every index in [0, n) with bounded concurrency.
// fn must only read shared state and write to its own index.
func forEachColumn(ctx context.Context, n, workers int, fn func(i int) error) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
