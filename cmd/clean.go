package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datatidy-cli/internal/export"
	"github.com/KaramelBytes/datatidy-cli/internal/pipeline"
	"github.com/KaramelBytes/datatidy-cli/internal/project"
	"github.com/KaramelBytes/datatidy-cli/internal/ui"
	"github.com/KaramelBytes/datatidy-cli/internal/utils"
)

const defaultOutputStem = "cleaned_dataset"

var (
	cleanFlags     cleanSettings
	cleanOutput    string
	cleanReport    string
	cleanPGTable   string
	cleanPGDSN     string
	cleanPGReplace bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a CSV/TSV: dedup, coerce types, impute missing numbers, flag outliers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		var proj *project.Project
		if cleanFlags.project != "" {
			p, err := loadProjectRef(cleanFlags.project)
			if err != nil {
				return err
			}
			proj = p
		}
		opt, format, err := resolveOptions(cmd, &cleanFlags, proj)
		if err != nil {
			return err
		}
		defer func() { _ = opt.Logger.Sync() }()

		outPath := ""
		if cmd.Flags().Changed("output") {
			outPath = cleanOutput
			if !cmd.Flags().Changed("format") {
				format = export.FormatForPath(outPath, format)
			}
		} else if proj == nil {
			outPath = defaultOutputStem + format.Ext()
		}

		res, err := pipeline.Run(cmd.Context(), path, opt)
		if err != nil {
			return err
		}
		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
		printRunSummary(out, errOut, res, cleanFlags.quiet)

		if outPath != "" {
			if err := export.WriteFile(outPath, res.Table, format); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if !cleanFlags.quiet {
				ui.Success(out, "Cleaned dataset saved as '%s'", outPath)
			}
		}
		if cleanReport != "" {
			if err := writeReport(cleanReport, res); err != nil {
				return err
			}
			if !cleanFlags.quiet {
				ui.Success(out, "Report written to %s", cleanReport)
			}
		}
		if cleanPGTable != "" {
			n, err := loadPostgres(cmd.Context(), res, cleanPGDSN, cleanPGTable, cleanPGReplace)
			if err != nil {
				return err
			}
			if !cleanFlags.quiet {
				ui.Success(out, "Loaded %d rows into Postgres table %s", n, cleanPGTable)
			}
		}
		if proj != nil {
			run, err := recordRun(proj, path, res, format)
			if err != nil {
				return err
			}
			if !cleanFlags.quiet {
				ui.Success(out, "Recorded run %s in project '%s' (%s)", run.ID, proj.Name, filepath.Dir(run.Output))
			}
		}
		return nil
	},
}

// writeReport writes the run report to path: JSON for a .json suffix,
// markdown otherwise.
func writeReport(path string, res *pipeline.Result) error {
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		b, err := res.JSON()
		if err != nil {
			return err
		}
		data = b
	} else {
		data = []byte(res.Markdown())
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func loadPostgres(ctx context.Context, res *pipeline.Result, dsn, tableName string, replace bool) (int64, error) {
	c, err := activeConfig()
	if err != nil {
		return 0, err
	}
	if dsn == "" {
		dsn = c.PostgresDSN
	}
	sink, closeFn, err := export.NewPostgresSink(ctx, export.PostgresConfig{
		DSN:     dsn,
		Schema:  c.PostgresSchema,
		Table:   tableName,
		Replace: replace,
	})
	if err != nil {
		return 0, err
	}
	defer closeFn()
	n, err := sink.Load(ctx, res.Table)
	if err != nil {
		return 0, fmt.Errorf("load postgres: %w", err)
	}
	return n, nil
}

// recordRun stores the cleaned dataset and both report renderings under the
// project's run directory and records the run.
func recordRun(p *project.Project, source string, res *pipeline.Result, format export.Format) (*project.Run, error) {
	run := project.NewRun(res.RunID, source)
	dir := p.RunDir(run.ID)
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure run dir: %w", err)
	}
	run.Output = filepath.Join(dir, "cleaned"+format.Ext())
	if err := export.WriteFile(run.Output, res.Table, format); err != nil {
		return nil, fmt.Errorf("write run output: %w", err)
	}
	reportPath, err := p.WriteArtifact(run.ID, "report.md", []byte(res.Markdown()))
	if err != nil {
		return nil, err
	}
	js, err := res.JSON()
	if err != nil {
		return nil, err
	}
	if _, err := p.WriteArtifact(run.ID, "report.json", js); err != nil {
		return nil, err
	}
	run.Report = reportPath
	run.Rows = res.Final.Rows
	run.Columns = res.Final.Columns
	run.DuplicatesRemoved = res.Duplicates.Removed
	run.Outliers = res.Report.TotalOutliers()
	run.Failures = len(res.Report.Failures)
	if err := p.AddRun(run); err != nil {
		return nil, err
	}
	if err := p.Save(); err != nil {
		return nil, err
	}
	return run, nil
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	addCleanFlags(cleanCmd, &cleanFlags)
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", defaultOutputStem+".csv", "path of the cleaned dataset")
	cleanCmd.Flags().StringVar(&cleanReport, "report", "", "write the run report to this path (.json for JSON, markdown otherwise)")
	cleanCmd.Flags().StringVar(&cleanPGTable, "pg-table", "", "also load the cleaned table into this Postgres table ([schema.]name)")
	cleanCmd.Flags().StringVar(&cleanPGDSN, "pg-dsn", "", "Postgres connection string (overrides postgres_dsn)")
	cleanCmd.Flags().BoolVar(&cleanPGReplace, "pg-replace", false, "drop and recreate the Postgres table before loading")
}
