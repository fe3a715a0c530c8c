package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tb := table.New("sample", 3)
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, tb.Add(table.NewText("city", []string{"paris", "", "oslo, no"}, []bool{true, false, true})))
	require.NoError(t, tb.Add(table.NewNumeric("price", []float64{3.5, 100, 0}, []bool{true, true, false})))
	require.NoError(t, tb.Add(table.NewTemporal("day", []time.Time{day(1), day(2), {}}, []bool{true, true, false})))
	require.NoError(t, tb.Add(table.NewFlag("price_was_missing", []bool{false, false, true})))
	return tb
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable(t), ','))
	want := "city,price,day,price_was_missing\n" +
		"paris,3.5,2024-01-01,0\n" +
		",100,2024-01-02,0\n" +
		"\"oslo, no\",,,1\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVUsesRFC3339ForClockTimes(t *testing.T) {
	tb := table.New("ts", 1)
	ts := time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC)
	require.NoError(t, tb.Add(table.NewTemporal("at", []time.Time{ts}, []bool{true})))
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tb, ';'))
	assert.Equal(t, "at\n2024-03-04T15:30:00Z\n", buf.String())
}

// onlyFile asserts dir holds exactly the named file and no temp leftovers.
func onlyFile(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, name, entries[0].Name())
}

func TestWriteCSVFileIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	require.NoError(t, WriteFile(path, sampleTable(t), FormatCSV))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "city,price,day,price_was_missing\n"))
	onlyFile(t, dir, "out.csv")
}

func TestWriteParquetFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.parquet")
	require.NoError(t, WriteFile(path, sampleTable(t), FormatParquet))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(b), 8)
	assert.Equal(t, "PAR1", string(b[:4]))
	assert.Equal(t, "PAR1", string(b[len(b)-4:]))
	onlyFile(t, dir, "out.parquet")
}

func TestParquetSchemaDisambiguatesFoldedNames(t *testing.T) {
	tb := table.New("s", 0)
	require.NoError(t, tb.Add(table.NewText("a b", nil, nil)))
	require.NoError(t, tb.Add(table.NewText("a_b", nil, nil)))
	require.NoError(t, tb.Add(table.NewText("a.b", nil, nil)))
	meta := ParquetSchema(tb)
	assert.True(t, strings.HasPrefix(meta[0], "name=a_b,"))
	assert.True(t, strings.HasPrefix(meta[1], "name=a_b_2,"))
	assert.True(t, strings.HasPrefix(meta[2], "name=a_b_3,"))

	path := filepath.Join(t.TempDir(), "dup.parquet")
	require.NoError(t, WriteParquetFile(path, tb))
}

func TestParquetSchema(t *testing.T) {
	tb := table.New("s", 0)
	require.NoError(t, tb.Add(table.NewNumeric("unit price", nil, nil)))
	require.NoError(t, tb.Add(table.NewFlag("x_outlier_flag", nil)))
	require.NoError(t, tb.Add(table.NewText("a=b", nil, nil)))
	assert.Equal(t, []string{
		"name=unit_price, type=DOUBLE, repetitiontype=OPTIONAL",
		"name=x_outlier_flag, type=INT32, repetitiontype=OPTIONAL",
		"name=a_b, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
	}, ParquetSchema(tb))
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat("Parquet")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)
	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
	assert.Equal(t, FormatParquet, FormatForPath("out/x.parquet", FormatCSV))
	assert.Equal(t, FormatCSV, FormatForPath("x.csv", FormatParquet))
	assert.Equal(t, FormatParquet, FormatForPath("x.dat", FormatParquet))
	assert.Equal(t, ".parquet", FormatParquet.Ext())
}

func TestTableIdentifier(t *testing.T) {
	assert.Equal(t, pgx.Identifier{"public", "sales"}, TableIdentifier("public", "sales"))
	assert.Equal(t, pgx.Identifier{"stage", "sales"}, TableIdentifier("public", "stage.sales"))
	assert.Equal(t, pgx.Identifier{"sales"}, TableIdentifier("", "sales"))
}

func TestCreateTableSQL(t *testing.T) {
	sql := CreateTableSQL(pgx.Identifier{"public", "clean"}, sampleTable(t))
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS \"public\".\"clean\" (\n"+
		"  \"city\" TEXT,\n"+
		"  \"price\" DOUBLE PRECISION,\n"+
		"  \"day\" TIMESTAMPTZ,\n"+
		"  \"price_was_missing\" BOOLEAN NOT NULL\n"+
		")", sql)
}

func TestCopyRows(t *testing.T) {
	rows := CopyRows(sampleTable(t))
	require.Len(t, rows, 3)
	assert.Equal(t, "paris", rows[0][0])
	assert.Nil(t, rows[1][0])
	assert.Equal(t, 3.5, rows[0][1])
	assert.Nil(t, rows[2][1])
	assert.Nil(t, rows[2][2])
	assert.Equal(t, true, rows[2][3])
}

func TestPostgresSinkLive(t *testing.T) {
	dsn := os.Getenv("DATATIDY_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("DATATIDY_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	sink, closeFn, err := NewPostgresSink(ctx, PostgresConfig{DSN: dsn, Schema: "public", Table: "datatidy_export_test", Replace: true})
	require.NoError(t, err)
	defer closeFn()
	n, err := sink.Load(ctx, sampleTable(t))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestNewPostgresSinkRequiresDSN(t *testing.T) {
	_, _, err := NewPostgresSink(context.Background(), PostgresConfig{Table: "x"})
	assert.Error(t, err)
}
