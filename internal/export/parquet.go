package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
	"github.com/KaramelBytes/datatidy-cli/internal/utils"
)

// parquetParallelism is the number of goroutines the writer uses to encode pages.
const parquetParallelism = 4

// ParquetSchema returns the CSV-writer schema for t: numeric columns are
// DOUBLE, flags INT32 0/1, text and datetimes UTF8 strings. Every column is
// OPTIONAL so missing cells become nulls.
func ParquetSchema(t *table.Table) []string {
	cols := t.Columns()
	names := parquetNames(t.Names())
	meta := make([]string, len(cols))
	for i, c := range cols {
		switch c.Kind {
		case table.KindNumeric:
			meta[i] = fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", names[i])
		case table.KindFlag:
			meta[i] = fmt.Sprintf("name=%s, type=INT32, repetitiontype=OPTIONAL", names[i])
		default:
			meta[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", names[i])
		}
	}
	return meta
}

// parquetNames strips characters the schema tag syntax cannot carry, then
// suffixes names that became equal with _2, _3...
func parquetNames(names []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	for i, name := range names {
		n := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '.', ';', ',', '=':
				return '_'
			}
			return r
		}, name)
		if n == "" {
			n = fmt.Sprintf("column_%d", i)
		}
		cand := n
		for k := 2; taken[cand]; k++ {
			cand = fmt.Sprintf("%s_%d", n, k)
		}
		taken[cand] = true
		out[i] = cand
	}
	return out
}

// WriteParquetFile writes t to path as a Snappy-compressed Parquet file. The
// file is built under a temporary name and renamed into place on success.
func WriteParquetFile(path string, t *table.Table) error {
	return utils.WriteAtomic(path, func(tmp string) error {
		return writeParquet(tmp, path, t)
	})
}

func writeParquet(tmp, path string, t *table.Table) (err error) {
	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	pw, err := writer.NewCSVWriter(ParquetSchema(t), fw, parquetParallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("create writer %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	defer func() {
		if stopErr := pw.WriteStop(); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("stop writer %s: %w", path, stopErr))
		}
		if closeErr := fw.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close file %s: %w", path, closeErr))
		}
	}()

	cols := t.Columns()
	fmts := make([]cellFormatter, len(cols))
	for j, c := range cols {
		fmts[j] = formatterFor(c)
	}
	for i := 0; i < t.Rows(); i++ {
		rec := make([]*string, len(cols))
		for j, f := range fmts {
			if s, ok := f(i); ok {
				rec[j] = &s
			}
		}
		if err := pw.WriteString(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}
