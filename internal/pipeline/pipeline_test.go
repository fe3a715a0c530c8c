package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datatidy-cli/internal/cleaning"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

const rawCSV = ` ID ,Price,Qty,City,Date,Unnamed: 5
1,1,1,Paris,2024-01-01,
2,,2,Oslo,2024-01-02,
3,3,3,ROME,2024-01-03,
4,4,4,Oslo,2024-01-04,
5,100,5,Paris,2024-01-05,
5,100,5,Paris,2024-01-05,
6,3,100,paris,2024-01-06,
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCleansEndToEnd(t *testing.T) {
	path := writeFixture(t, "raw.csv", rawCSV)
	res, err := Run(context.Background(), path, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, path, res.Source)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, Shape{Rows: 7, Columns: 5}, res.Initial)
	assert.Equal(t, 1, res.Duplicates.Removed)
	assert.Equal(t, Shape{Rows: 6, Columns: 9}, res.Final)
	assert.Equal(t, []string{"unnamed: 5"}, res.Dropped)
	assert.Contains(t, res.InitialMissing, ColumnMissing{Column: "price", Missing: 1})

	tb := res.Table
	assert.Equal(t, []string{
		"id", "price", "qty", "city", "date",
		"price_was_missing", "id_outlier_flag", "price_outlier_flag", "qty_outlier_flag",
	}, tb.Names())

	city, _ := tb.Column("city")
	assert.Equal(t, table.KindText, city.Kind)
	assert.Equal(t, "rome", city.Texts[2])
	date, _ := tb.Column("date")
	assert.Equal(t, table.KindTemporal, date.Kind)

	imp, ok := res.Report.Imputation("price")
	require.True(t, ok)
	assert.Equal(t, cleaning.StrategyMedian, imp.Strategy)
	assert.Equal(t, 3.0, imp.Value)

	assert.Equal(t, map[string]int{"id": 0, "price": 2, "qty": 1}, res.Report.OutlierCounts)
	assert.Empty(t, res.Report.Failures)
}

func TestMarkdownReport(t *testing.T) {
	path := writeFixture(t, "raw.csv", rawCSV)
	res, err := Run(context.Background(), path, DefaultOptions())
	require.NoError(t, err)

	md := res.Markdown()
	for _, want := range []string{
		"[RUN SUMMARY]",
		"Initial shape: (7, 5)",
		"Duplicates removed: 1",
		"Final shape: (6, 9)",
		"[INITIAL MISSING VALUES]",
		"- price: 1",
		"[TYPE COERCION]",
		"- date: datetime",
		"[IMPUTATION]",
		"- price: missing 1",
		"filled 1 with median 3",
		"[OUTLIERS]",
		"Total flagged: 3",
		"[BEFORE VS AFTER]",
		"- price: n 5 → 6",
		"[NOTES]",
		`dropped column "unnamed: 5"`,
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "[FAILURES]")
}

func TestJSONReport(t *testing.T) {
	path := writeFixture(t, "raw.csv", rawCSV)
	res, err := Run(context.Background(), path, DefaultOptions())
	require.NoError(t, err)

	b, err := res.JSON()
	require.NoError(t, err)
	var got struct {
		RunID  string `json:"run_id"`
		Report struct {
			OutlierCounts map[string]int `json:"outlier_counts"`
		} `json:"report"`
		Coercions []struct {
			Column string `json:"column"`
			Kind   string `json:"kind"`
		} `json:"coercions"`
		Comparisons []Comparison `json:"comparisons"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, res.RunID, got.RunID)
	assert.Equal(t, 2, got.Report.OutlierCounts["price"])
	assert.Len(t, got.Comparisons, 3)
	kinds := map[string]string{}
	for _, c := range got.Coercions {
		kinds[c.Column] = c.Kind
	}
	assert.Equal(t, "numeric", kinds["price"])
	assert.Equal(t, "text", kinds["city"])
	assert.False(t, strings.Contains(string(b), "\"Table\""))
}

func TestProcessStrictFailsOnAllMissingColumn(t *testing.T) {
	tb := table.New("mem", 2)
	require.NoError(t, tb.Add(table.NewNumeric("gone", []float64{0, 0}, []bool{false, false})))
	opt := DefaultOptions()
	opt.Cleaning.Strict = true
	_, err := Process(context.Background(), tb, nil, opt)
	require.Error(t, err)
	assert.True(t, cleaning.IsUndefinedStatistic(err))
}

func TestProcessLenientReportsFailure(t *testing.T) {
	tb := table.New("mem", 2)
	require.NoError(t, tb.Add(table.NewNumeric("gone", []float64{0, 0}, []bool{false, false})))
	res, err := Process(context.Background(), tb, nil, DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, res.Report.Failures)
	md := res.Markdown()
	assert.Contains(t, md, "[FAILURES]")
	assert.Contains(t, md, "- gone (impute)")
	assert.Contains(t, md, "- gone: missing 2, not filled")
	assert.Contains(t, md, "- gone: fences undefined")
}

func TestCaseOnlyDifferencesAreNotDuplicates(t *testing.T) {
	path := writeFixture(t, "cities.csv", "city,n\nParis,1\nparis,1\nParis,1\n")
	res, err := Run(context.Background(), path, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Duplicates.Removed)
	assert.Equal(t, 2, res.Final.Rows)
	city, _ := res.Table.Column("city")
	assert.Equal(t, []string{"paris", "paris"}, city.Texts)
}

func TestInfinityIsNotImputed(t *testing.T) {
	path := writeFixture(t, "inf.csv", "x,y\n1,1\n2,2\nNA,3\n3,4\ninf,5\n")
	res, err := Run(context.Background(), path, DefaultOptions())
	require.NoError(t, err)

	x, _ := res.Table.Column("x")
	assert.Equal(t, table.KindText, x.Kind)
	assert.True(t, x.IsMissing(2))
	_, imputed := res.Report.Imputation("x")
	assert.False(t, imputed)
	_, masked := res.Table.Column("x_was_missing")
	assert.False(t, masked)
}

func TestNonFiniteValuesFailInsteadOfFilling(t *testing.T) {
	tb := table.New("mem", 5)
	require.NoError(t, tb.Add(table.NewNumeric("x",
		[]float64{1, 2, 0, 3, math.Inf(1)},
		[]bool{true, true, false, true, true})))
	res, err := Process(context.Background(), tb, nil, DefaultOptions())
	require.NoError(t, err)

	x, _ := tb.Column("x")
	assert.True(t, x.IsMissing(2), "missing cell must not be filled with a non-finite mean")
	require.Len(t, res.Report.Failures, 2)
	assert.True(t, cleaning.IsUndefinedStatistic(res.Report.Failures[0].Err))
	assert.Contains(t, res.Report.Failures[0].Message, "non-finite")

	opt := DefaultOptions()
	opt.Cleaning.Strict = true
	tb2 := table.New("mem", 3)
	require.NoError(t, tb2.Add(table.NewNumeric("x", []float64{1, 0, math.Inf(-1)}, []bool{true, false, true})))
	_, err = Process(context.Background(), tb2, nil, opt)
	assert.True(t, cleaning.IsUndefinedStatistic(err))
}

func TestSummarize(t *testing.T) {
	s, ok := Summarize([]float64{4, 1, 3, 100})
	require.True(t, ok)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 27.0, s.Mean)
	assert.Equal(t, 3.5, s.Median)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
	_, ok = Summarize(nil)
	assert.False(t, ok)
}
