package cleaning

import (
	"fmt"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// UndefinedStatisticError indicates a statistic was requested over a column
// with no present values, or whose present values include infinities or NaN.
type UndefinedStatisticError struct {
	Column    string
	Statistic string
	NonFinite bool
}

func (e *UndefinedStatisticError) Error() string {
	if e.NonFinite {
		return fmt.Sprintf("undefined %s for column %q: non-finite values present", e.Statistic, e.Column)
	}
	return fmt.Sprintf("undefined %s for column %q: no present values", e.Statistic, e.Column)
}

// TypeMismatchError indicates a numeric stage was pointed at a non-numeric column.
type TypeMismatchError struct {
	Column string
	Kind   table.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: column %q is %s, want numeric", e.Column, e.Kind)
}

// ColumnFailure records a per-column failure that did not abort the run.
type ColumnFailure struct {
	Column  string `json:"column"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func newFailure(column, stage string, err error) ColumnFailure {
	return ColumnFailure{Column: column, Stage: stage, Message: err.Error(), Err: err}
}
