package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestLinesWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	Success(&buf, "Saved %s", "out.csv")
	Warn(&buf, "column %q skipped", "x")
	Error(&buf, errors.New("boom"))
	Step(&buf, 2, 5, "Processing %s", "a.csv")

	assert.Equal(t,
		"✓ Saved out.csv\n"+
			"⚠ Warning: column \"x\" skipped\n"+
			"✗ Error: boom\n"+
			"[2/5] Processing a.csv\n",
		buf.String())
}
