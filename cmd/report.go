package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	reportProject string
	reportJSON    bool
)

var reportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Print the report of a run stored in a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportProject == "" {
			return fmt.Errorf("--project is required")
		}
		p, err := loadProjectRef(reportProject)
		if err != nil {
			return err
		}
		run, err := p.FindRun(args[0])
		if err != nil {
			return err
		}
		path := run.Report
		if reportJSON {
			path = filepath.Join(p.RunDir(run.ID), "report.json")
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read report: %w", err)
		}
		printReport(cmd.OutOrStdout(), body)
		return nil
	},
}

// printReport writes a stored run report to w.
func printReport(w io.Writer, body []byte) {
	fmt.Fprint(w, string(body))
	if len(body) > 0 && body[len(body)-1] != '\n' {
		fmt.Fprintln(w)
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportProject, "project", "p", "", "project holding the run")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the JSON report instead of markdown")
}
