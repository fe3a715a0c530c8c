// Package dedup removes exact-duplicate records from a table. Rows are
// compared on every column; the first occurrence wins and input order is kept.
package dedup

import (
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Result summarizes one de-duplication pass.
type Result struct {
	Before  int `json:"before"`
	Removed int `json:"removed"`
}

// After returns the row count after de-duplication.
func (r Result) After() int { return r.Before - r.Removed }

// Apply drops exact-duplicate rows from t in place.
func Apply(t *table.Table) Result {
	res := Result{Before: t.Rows()}
	if t.Rows() < 2 || t.Width() == 0 {
		return res
	}
	// Rows are bucketed by a 64-bit hash of their canonical key; rows in the
	// same bucket are compared in full so hash collisions never drop data.
	buckets := make(map[uint64][]int, t.Rows())
	keys := make([]string, t.Rows())
	keep := make([]int, 0, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		keys[i] = strings.Join(t.RowKey(i), "\x1f")
		h := xxh3.HashString(keys[i])
		dup := false
		for _, j := range buckets[h] {
			if keys[j] == keys[i] {
				dup = true
				break
			}
		}
		if dup {
			res.Removed++
			continue
		}
		buckets[h] = append(buckets[h], i)
		keep = append(keep, i)
	}
	if res.Removed > 0 {
		t.KeepRows(keep)
	}
	return res
}
