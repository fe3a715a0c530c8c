package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datatidy-cli/internal/export"
	"github.com/KaramelBytes/datatidy-cli/internal/pipeline"
	"github.com/KaramelBytes/datatidy-cli/internal/project"
	"github.com/KaramelBytes/datatidy-cli/internal/ui"
	"github.com/KaramelBytes/datatidy-cli/internal/utils"
)

var (
	batchFlags     cleanSettings
	batchOutDir    string
	batchReports   bool
	batchKeepGoing bool
)

var cleanBatchCmd = &cobra.Command{
	Use:   "clean-batch <files...>",
	Short: "Clean multiple CSV/TSV files with progress and optional project recording",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		var proj *project.Project
		if batchFlags.project != "" {
			p, err := loadProjectRef(batchFlags.project)
			if err != nil {
				return err
			}
			proj = p
		}
		opt, format, err := resolveOptions(cmd, &batchFlags, proj)
		if err != nil {
			return err
		}
		defer func() { _ = opt.Logger.Sync() }()

		if batchOutDir != "" {
			if err := utils.EnsureDir(batchOutDir); err != nil {
				return fmt.Errorf("create --out-dir: %w", err)
			}
		}

		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
		taken := map[string]struct{}{}
		failed := 0
		total := len(files)
		for i, path := range files {
			if !batchFlags.quiet {
				ui.Step(out, i+1, total, "Processing %s...", filepath.Base(path))
			}
			res, err := pipeline.Run(cmd.Context(), path, opt)
			if err != nil {
				if !batchKeepGoing {
					return fmt.Errorf("%s: %w", path, err)
				}
				ui.Warn(errOut, "skipping %s: %v", path, err)
				failed++
				continue
			}
			printRunSummary(out, errOut, res, true)

			dest := batchOutputPath(path, batchOutDir, format, taken, out)
			if err := export.WriteFile(dest, res.Table, format); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if batchReports {
				rp := strings.TrimSuffix(dest, ".cleaned"+format.Ext()) + ".report.md"
				if err := writeReport(rp, res); err != nil {
					return err
				}
			}
			if proj != nil {
				if _, err := recordRun(proj, path, res, format); err != nil {
					return err
				}
			}
			if !batchFlags.quiet {
				ui.Success(out, "%s → %s (%s, %d duplicates removed, %d outliers)",
					filepath.Base(path), dest, res.Final, res.Duplicates.Removed, res.Report.TotalOutliers())
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		if proj != nil && !batchFlags.quiet {
			ui.Success(out, "Recorded %d runs in project '%s'", total, proj.Name)
		}
		return nil
	},
}

// expandInputs resolves glob patterns and literal paths into a sorted,
// de-duplicated file list.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// batchOutputPath names the output <stem>.cleaned<ext> next to the input or in
// dir, falling back to <stem>__N.cleaned<ext> when the name is already in use
// on disk or earlier in the batch.
func batchOutputPath(input, dir string, format export.Format, taken map[string]struct{}, out io.Writer) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	ext := ".cleaned" + format.Ext()

	inUse := func(p string) bool {
		if _, ok := taken[p]; ok {
			return true
		}
		_, err := os.Stat(p)
		return err == nil
	}
	dest := filepath.Join(dir, stem+ext)
	if inUse(dest) {
		for idx := 2; ; idx++ {
			cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", stem, idx, ext))
			if !inUse(cand) {
				if !batchFlags.quiet {
					ui.Warn(out, "%s exists, writing to %s to avoid overwrite", filepath.Base(dest), filepath.Base(cand))
				}
				dest = cand
				break
			}
		}
	}
	taken[dest] = struct{}{}
	return dest
}

func init() {
	rootCmd.AddCommand(cleanBatchCmd)
	addCleanFlags(cleanBatchCmd, &batchFlags)
	cleanBatchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "directory for cleaned files (default: next to each input)")
	cleanBatchCmd.Flags().BoolVar(&batchReports, "reports", false, "write <name>.report.md next to each cleaned file")
	cleanBatchCmd.Flags().BoolVar(&batchKeepGoing, "keep-going", false, "continue with the remaining files when one fails")
}
