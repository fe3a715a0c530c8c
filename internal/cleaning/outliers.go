package cleaning

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Fences are the IQR bounds of one column.
type Fences struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	IQR   float64 `json:"iqr"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Outside reports whether v lies strictly beyond either fence.
func (f Fences) Outside(v float64) bool { return v < f.Lower || v > f.Upper }

// ComputeFences derives Q1, Q3 (type 7 quantiles) and the fences
// Q1 - k*IQR and Q3 + k*IQR from vals.
func ComputeFences(vals []float64, k float64) (Fences, bool) {
	if len(vals) == 0 {
		return Fences{}, false
	}
	sorted := sortedCopy(vals)
	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	return Fences{Q1: q1, Q3: q3, IQR: iqr, Lower: q1 - k*iqr, Upper: q3 + k*iqr}, true
}

// OutlierResult is the flagging outcome for one numeric column.
type OutlierResult struct {
	Column  string `json:"column"`
	Flag    string `json:"flag_column"`
	Fences  Fences `json:"fences"`
	Defined bool   `json:"defined"`
	Count   int    `json:"count"`
}

type flagPlan struct {
	res   OutlierResult
	flags []bool
	err   error
}

// FlagOutliers writes a <column>_outlier_flag column for every listed numeric
// column, true where the value lies strictly outside the IQR fences. Values are
// never altered and missing cells are never flagged. An existing flag column
// is recomputed in place, so repeated runs produce identical flags.
func FlagOutliers(ctx context.Context, t *table.Table, numeric []string, opt Options) ([]OutlierResult, []ColumnFailure, error) {
	cols, err := numericColumns(t, numeric)
	if err != nil {
		return nil, nil, err
	}
	k := opt.IQRMultiplier
	log := opt.logger()

	plans := make([]flagPlan, len(cols))
	err = forEachColumn(ctx, len(cols), opt.workers(), func(i int) error {
		plans[i] = planFlags(cols[i], k)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	out := make([]OutlierResult, 0, len(cols))
	var failures []ColumnFailure
	for i, c := range cols {
		p := plans[i]
		if p.err != nil {
			if opt.Strict {
				return nil, nil, fmt.Errorf("column %q: %w", c.Name, p.err)
			}
			log.Warn("outlier fences undefined", zap.String("column", c.Name), zap.Error(p.err))
			failures = append(failures, newFailure(c.Name, "outliers", p.err))
		}
		flagCol := table.NewFlag(p.res.Flag, p.flags)
		if _, exists := t.Column(p.res.Flag); exists {
			err = t.Replace(flagCol)
		} else {
			err = t.Add(flagCol)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("attach flags: %w", err)
		}
		log.Debug("flagged column",
			zap.String("column", c.Name),
			zap.Float64("q1", p.res.Fences.Q1),
			zap.Float64("q3", p.res.Fences.Q3),
			zap.Float64("lower", p.res.Fences.Lower),
			zap.Float64("upper", p.res.Fences.Upper),
			zap.Int("count", p.res.Count),
		)
		out = append(out, p.res)
	}
	return out, failures, nil
}

func planFlags(c *table.Column, k float64) flagPlan {
	res := OutlierResult{Column: c.Name, Flag: FlagName(c.Name)}
	flags := make([]bool, c.Len())
	present := c.Present()
	if len(present) > 0 && !allFinite(present) {
		return flagPlan{res: res, flags: flags, err: &UndefinedStatisticError{Column: c.Name, Statistic: "quartiles", NonFinite: true}}
	}
	fences, ok := ComputeFences(present, k)
	if !ok {
		return flagPlan{res: res, flags: flags, err: &UndefinedStatisticError{Column: c.Name, Statistic: "quartiles"}}
	}
	res.Fences, res.Defined = fences, true
	for i, v := range c.Nums {
		if c.Valid[i] && fences.Outside(v) {
			flags[i] = true
			res.Count++
		}
	}
	return flagPlan{res: res, flags: flags}
}
