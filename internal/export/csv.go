package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
	"github.com/KaramelBytes/datatidy-cli/internal/utils"
)

// WriteCSV writes t with a header row. Missing cells are empty fields and flag
// columns are written as 0/1.
func WriteCSV(w io.Writer, t *table.Table, delim rune) error {
	cw := csv.NewWriter(w)
	if delim != 0 {
		cw.Comma = delim
	}
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	cols := t.Columns()
	fmts := make([]cellFormatter, len(cols))
	for j, c := range cols {
		fmts[j] = formatterFor(c)
	}
	rec := make([]string, len(cols))
	for i := 0; i < t.Rows(); i++ {
		for j, f := range fmts {
			rec[j], _ = f(i)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes t as comma-separated text to path atomically.
func WriteCSVFile(path string, t *table.Table) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t, ','); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
