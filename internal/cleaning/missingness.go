package cleaning

import (
	"fmt"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// TrackMissing attaches a <column>_was_missing flag column for every listed
// numeric column that has at least one missing value, and returns the names of
// the masks it added. It must run before any value is filled. Every mask is
// built and checked before the first is attached, so on error t is unchanged.
func TrackMissing(t *table.Table, numeric []string) ([]string, error) {
	cols, err := numericColumns(t, numeric)
	if err != nil {
		return nil, err
	}
	var masks []*table.Column
	for _, c := range cols {
		if c.MissingCount() == 0 {
			continue
		}
		name := MaskName(c.Name)
		if _, taken := t.Column(name); taken {
			return nil, fmt.Errorf("attach mask: add %q: %w", name, table.ErrDuplicateColumn)
		}
		mask := make([]bool, c.Len())
		for i := range mask {
			mask[i] = c.IsMissing(i)
		}
		masks = append(masks, table.NewFlag(name, mask))
	}
	added := make([]string, 0, len(masks))
	for _, m := range masks {
		if err := t.Add(m); err != nil {
			return added, fmt.Errorf("attach mask: %w", err)
		}
		added = append(added, m.Name)
	}
	return added, nil
}
