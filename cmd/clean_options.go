package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datatidy-cli/internal/coerce"
	"github.com/KaramelBytes/datatidy-cli/internal/export"
	"github.com/KaramelBytes/datatidy-cli/internal/ingest"
	"github.com/KaramelBytes/datatidy-cli/internal/pipeline"
	"github.com/KaramelBytes/datatidy-cli/internal/project"
	"github.com/KaramelBytes/datatidy-cli/internal/ui"
)

// cleanSettings holds the policy flags shared by clean and clean-batch.
type cleanSettings struct {
	format       string
	skew         float64
	iqr          float64
	strict       bool
	workers      int
	delimiter    string
	decimal      string
	thousands    string
	maxRows      int
	asciiHeaders bool
	noLowercase  bool
	project      string
	quiet        bool
}

func addCleanFlags(c *cobra.Command, s *cleanSettings) {
	f := c.Flags()
	f.StringVar(&s.format, "format", "", "output format: csv|parquet (default from config)")
	f.Float64Var(&s.skew, "skew-threshold", 0.5, "skewness bound within which a column counts as symmetric")
	f.Float64Var(&s.iqr, "iqr-multiplier", 1.5, "IQR multiplier placing the outlier fences")
	f.BoolVar(&s.strict, "strict", false, "fail the run on the first per-column failure")
	f.IntVar(&s.workers, "workers", 0, "columns processed concurrently (0 = GOMAXPROCS)")
	f.StringVar(&s.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	f.StringVar(&s.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	f.StringVar(&s.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	f.IntVar(&s.maxRows, "max-rows", 0, "maximum rows to process (0 = unlimited)")
	f.BoolVar(&s.asciiHeaders, "ascii-headers", false, "fold column names to ASCII snake_case")
	f.BoolVar(&s.noLowercase, "no-lowercase", false, "keep the case of text values")
	f.StringVarP(&s.project, "project", "p", "", "project to record the run in")
	f.BoolVar(&s.quiet, "quiet", false, "suppress progress and non-essential output")
}

// resolveOptions layers defaults, config, project overrides and flags, in
// that order, into pipeline options and an output format.
func resolveOptions(cmd *cobra.Command, s *cleanSettings, proj *project.Project) (pipeline.Options, export.Format, error) {
	opt := pipeline.DefaultOptions()
	c, err := activeConfig()
	if err != nil {
		return opt, "", err
	}
	flags := cmd.Flags()

	opt.Cleaning.SkewThreshold = c.SkewThreshold
	opt.Cleaning.IQRMultiplier = c.IQRMultiplier
	opt.Cleaning.Strict = c.Strict
	opt.Cleaning.Workers = c.Workers
	formatName := c.OutputFormat
	if proj != nil && proj.Config != nil {
		if proj.Config.SkewThreshold > 0 {
			opt.Cleaning.SkewThreshold = proj.Config.SkewThreshold
		}
		if proj.Config.IQRMultiplier > 0 {
			opt.Cleaning.IQRMultiplier = proj.Config.IQRMultiplier
		}
		if proj.Config.OutputFormat != "" {
			formatName = proj.Config.OutputFormat
		}
	}
	if flags.Changed("skew-threshold") {
		opt.Cleaning.SkewThreshold = s.skew
	}
	if flags.Changed("iqr-multiplier") {
		opt.Cleaning.IQRMultiplier = s.iqr
	}
	if flags.Changed("strict") {
		opt.Cleaning.Strict = s.strict
	}
	if flags.Changed("workers") {
		opt.Cleaning.Workers = s.workers
	}
	if opt.Cleaning.SkewThreshold < 0 {
		return opt, "", errors.New("--skew-threshold must be >= 0")
	}
	if opt.Cleaning.IQRMultiplier <= 0 {
		return opt, "", errors.New("--iqr-multiplier must be > 0")
	}
	if opt.Cleaning.Workers < 0 {
		return opt, "", errors.New("--workers must be >= 0")
	}

	if len(c.MissingTokens) > 0 {
		opt.Ingest.MissingTokens = c.MissingTokens
	}
	opt.Ingest.MaxRows = c.MaxRows
	if flags.Changed("max-rows") {
		opt.Ingest.MaxRows = s.maxRows
	}
	if opt.Ingest.MaxRows < 0 {
		return opt, "", errors.New("--max-rows must be >= 0")
	}
	opt.Ingest.ASCIIHeaders = c.ASCIIHeaders || s.asciiHeaders
	if s.delimiter != "" {
		d, err := ingest.ParseDelimiter(s.delimiter)
		if err != nil {
			return opt, "", err
		}
		opt.Ingest.Delimiter = d
	}

	opt.Coerce.Lowercase = c.TextLowercase && !s.noLowercase
	if s.decimal != "" {
		d, err := coerce.ParseSeparator(s.decimal, false)
		if err != nil {
			return opt, "", fmt.Errorf("--decimal: %w", err)
		}
		opt.Coerce.DecimalSeparator = d
	}
	if s.thousands != "" {
		t, err := coerce.ParseSeparator(s.thousands, true)
		if err != nil {
			return opt, "", fmt.Errorf("--thousands: %w", err)
		}
		opt.Coerce.ThousandsSeparator = t
	}

	if flags.Changed("format") {
		formatName = s.format
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return opt, "", err
	}
	opt.Logger = newLogger()
	opt.Cleaning.Logger = opt.Logger
	return opt, format, nil
}

// printRunSummary prints the console summary of a run: shapes, missing
// counts, outlier counts and per-column failures.
func printRunSummary(out, errOut io.Writer, res *pipeline.Result, quiet bool) {
	if !quiet {
		fmt.Fprintf(out, "Initial dataset shape: %s\n", res.Initial)
		fmt.Fprintln(out, "Initial missing values:")
		width := 0
		for _, m := range res.InitialMissing {
			if len(m.Column) > width {
				width = len(m.Column)
			}
		}
		for _, m := range res.InitialMissing {
			fmt.Fprintf(out, "  %-*s %d\n", width, m.Column, m.Missing)
		}
		if res.Duplicates.Removed > 0 {
			fmt.Fprintf(out, "Removed %d duplicate rows\n", res.Duplicates.Removed)
		}
	}
	for _, f := range res.Report.Failures {
		ui.Warn(errOut, "column %q (%s): %s", f.Column, f.Stage, f.Message)
	}
	if quiet {
		return
	}
	for _, o := range res.Report.Outliers {
		if o.Count > 0 {
			fmt.Fprintf(out, "Flagged %d outliers in '%s'\n", o.Count, o.Column)
		}
	}
	fmt.Fprintf(out, "\nFinal dataset shape: %s\n", res.Final)
}
