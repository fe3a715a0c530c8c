package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datatidy-cli/internal/export"
	"github.com/KaramelBytes/datatidy-cli/internal/project"
	"github.com/KaramelBytes/datatidy-cli/internal/ui"
)

var (
	pmProject string
	pmClear   bool
	pmSkew    float64
	pmIQR     float64
	pmFormat  string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage per-project settings",
}

var projectSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set or clear a project's cleaning overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pmProject == "" {
			return fmt.Errorf("--project is required")
		}
		p, err := loadProjectRef(pmProject)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if pmClear {
			p.Config = nil
			if err := p.Save(); err != nil {
				return err
			}
			ui.Success(out, "Cleared project overrides for %s", p.Name)
			return nil
		}
		flags := cmd.Flags()
		if !flags.Changed("skew-threshold") && !flags.Changed("iqr-multiplier") && !flags.Changed("format") {
			return fmt.Errorf("nothing to set: pass --skew-threshold, --iqr-multiplier, --format or --clear")
		}
		if p.Config == nil {
			p.Config = &project.ProjectConfig{}
		}
		if flags.Changed("skew-threshold") {
			if pmSkew < 0 {
				return fmt.Errorf("--skew-threshold must be >= 0")
			}
			p.Config.SkewThreshold = pmSkew
		}
		if flags.Changed("iqr-multiplier") {
			if pmIQR <= 0 {
				return fmt.Errorf("--iqr-multiplier must be > 0")
			}
			p.Config.IQRMultiplier = pmIQR
		}
		if flags.Changed("format") {
			f, err := export.ParseFormat(pmFormat)
			if err != nil {
				return err
			}
			p.Config.OutputFormat = string(f)
		}
		if err := p.Save(); err != nil {
			return err
		}
		ui.Success(out, "Updated project overrides for %s", p.Name)
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a project's metadata and overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pmProject == "" {
			return fmt.Errorf("--project is required")
		}
		p, err := loadProjectRef(pmProject)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "name: %s\n", p.Name)
		if p.Description != "" {
			fmt.Fprintf(out, "description: %s\n", p.Description)
		}
		fmt.Fprintf(out, "root: %s\n", p.RootDir())
		fmt.Fprintf(out, "runs: %d\n", len(p.Runs))
		c := p.Config
		if c == nil {
			c = &project.ProjectConfig{}
		}
		fmt.Fprintf(out, "skew_threshold: %s\n", inherited(c.SkewThreshold > 0, fmt.Sprint(c.SkewThreshold)))
		fmt.Fprintf(out, "iqr_multiplier: %s\n", inherited(c.IQRMultiplier > 0, fmt.Sprint(c.IQRMultiplier)))
		fmt.Fprintf(out, "output_format: %s\n", inherited(c.OutputFormat != "", c.OutputFormat))
		return nil
	},
}

func inherited(set bool, v string) string {
	if !set {
		return "(inherit)"
	}
	return v
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectSetCmd, projectShowCmd)

	projectCmd.PersistentFlags().StringVarP(&pmProject, "project", "p", "", "project name")
	projectSetCmd.Flags().BoolVar(&pmClear, "clear", false, "clear all project overrides")
	projectSetCmd.Flags().Float64Var(&pmSkew, "skew-threshold", 0.5, "project skewness bound")
	projectSetCmd.Flags().Float64Var(&pmIQR, "iqr-multiplier", 1.5, "project IQR multiplier")
	projectSetCmd.Flags().StringVar(&pmFormat, "format", string(export.FormatCSV), "project output format: csv|parquet")
}
