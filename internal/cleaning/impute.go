package cleaning

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Strategy names the statistic used to fill a column's gaps.
type Strategy string

const (
	StrategyNone   Strategy = "none"
	StrategyMean   Strategy = "mean"
	StrategyMedian Strategy = "median"
)

// Imputation records the decision taken for one numeric column.
type Imputation struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
	Present int    `json:"present"`
	// Skewness is 0 when SkewDefined is false (fewer than 3 values or no spread).
	Skewness    float64  `json:"skewness"`
	SkewDefined bool     `json:"skew_defined"`
	Symmetric   bool     `json:"symmetric"`
	Strategy    Strategy `json:"strategy"`
	Value       float64  `json:"value"`
	Filled      int      `json:"filled"`
}

type imputePlan struct {
	imp Imputation
	err error
}

// Impute fills the missing cells of each listed numeric column with a single
// per-column value: the mean when the column's skewness lies within
// [-SkewThreshold, SkewThreshold], the median otherwise. Statistics come from
// present values only and are computed before any cell is written. Columns
// without missing values are not touched.
//
// A column with no present values yields an UndefinedStatisticError: with
// Strict it aborts, otherwise it is returned as a ColumnFailure and the column
// stays missing.
func Impute(ctx context.Context, t *table.Table, numeric []string, opt Options) ([]Imputation, []ColumnFailure, error) {
	cols, err := numericColumns(t, numeric)
	if err != nil {
		return nil, nil, err
	}
	threshold := opt.SkewThreshold
	log := opt.logger()

	plans := make([]imputePlan, len(cols))
	err = forEachColumn(ctx, len(cols), opt.workers(), func(i int) error {
		plans[i] = planImputation(cols[i], threshold)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var (
		out      []Imputation
		failures []ColumnFailure
	)
	for i, c := range cols {
		p := plans[i]
		if p.err != nil {
			if opt.Strict {
				return nil, nil, fmt.Errorf("column %q: %w", c.Name, p.err)
			}
			log.Warn("imputation skipped", zap.String("column", c.Name), zap.Error(p.err))
			failures = append(failures, newFailure(c.Name, "impute", p.err))
			out = append(out, p.imp)
			continue
		}
		if p.imp.Strategy == StrategyNone {
			continue
		}
		for row := 0; row < c.Len(); row++ {
			if c.IsMissing(row) {
				c.Nums[row] = p.imp.Value
				c.Valid[row] = true
				p.imp.Filled++
			}
		}
		log.Debug("imputed column",
			zap.String("column", c.Name),
			zap.Int("missing", p.imp.Missing),
			zap.Float64("skewness", p.imp.Skewness),
			zap.Bool("skew_defined", p.imp.SkewDefined),
			zap.String("strategy", string(p.imp.Strategy)),
			zap.Float64("value", p.imp.Value),
		)
		out = append(out, p.imp)
	}
	return out, failures, nil
}

func planImputation(c *table.Column, threshold float64) imputePlan {
	missing := c.MissingCount()
	imp := Imputation{Column: c.Name, Missing: missing, Present: c.Len() - missing, Strategy: StrategyNone}
	if missing == 0 {
		return imputePlan{imp: imp}
	}
	present := c.Present()
	if len(present) == 0 {
		return imputePlan{imp: imp, err: &UndefinedStatisticError{Column: c.Name, Statistic: "skewness"}}
	}
	if !allFinite(present) {
		return imputePlan{imp: imp, err: &UndefinedStatisticError{Column: c.Name, Statistic: "skewness", NonFinite: true}}
	}
	imp.Skewness, imp.SkewDefined = Skewness(present)
	imp.Symmetric = imp.Skewness >= -threshold && imp.Skewness <= threshold
	if imp.Symmetric {
		imp.Strategy, imp.Value = StrategyMean, Mean(present)
	} else {
		imp.Strategy, imp.Value = StrategyMedian, Median(present)
	}
	return imputePlan{imp: imp}
}

// IsUndefinedStatistic reports whether err is, or wraps, an UndefinedStatisticError.
func IsUndefinedStatistic(err error) bool {
	var u *UndefinedStatisticError
	return errors.As(err, &u)
}
