package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datatidy-cli/internal/export"
	"github.com/KaramelBytes/datatidy-cli/internal/project"
	"github.com/KaramelBytes/datatidy-cli/internal/ui"
	"github.com/KaramelBytes/datatidy-cli/internal/utils"
)

var (
	initDescription string
	initSkew        float64
	initIQR         float64
	initFormat      string
)

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Initialize a new datatidy project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		root, err := defaultProjectsDir()
		if err != nil {
			return err
		}
		projDir := filepath.Join(root, name)
		// Refuse to overwrite an existing project.
		if info, err := os.Stat(projDir); err == nil && info.IsDir() {
			projectFile := filepath.Join(projDir, utils.ProjectFile)
			if _, err := os.Stat(projectFile); err == nil {
				return fmt.Errorf("project already exists at %s", projDir)
			}
			entries, err := os.ReadDir(projDir)
			if err != nil {
				return fmt.Errorf("inspect project directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize project", projDir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat project directory: %w", err)
		}
		if err := utils.EnsureDir(projDir); err != nil {
			return err
		}
		p := project.NewProject(name, initDescription, projDir)
		if initSkew < 0 || initIQR < 0 {
			return errors.New("--skew-threshold and --iqr-multiplier must not be negative")
		}
		p.Config.SkewThreshold = initSkew
		p.Config.IQRMultiplier = initIQR
		if initFormat != "" {
			f, err := export.ParseFormat(initFormat)
			if err != nil {
				return err
			}
			p.Config.OutputFormat = string(f)
		}
		if err := p.Save(); err != nil {
			return err
		}
		ui.Success(cmd.OutOrStdout(), "Project initialized: %s", projDir)
		return nil
	},
}

func defaultProjectsDir() (string, error) {
	if cfg != nil && cfg.ProjectsDir != "" {
		dir := cfg.ProjectsDir
		if strings.HasPrefix(dir, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home dir: %w", err)
			}
			dir = strings.TrimPrefix(dir, "~")
			dir = strings.TrimPrefix(dir, string(os.PathSeparator))
			dir = strings.TrimPrefix(dir, "/")
			dir = filepath.Join(home, dir)
		}
		dir = filepath.Clean(dir)
		if err := utils.EnsureDir(dir); err != nil {
			return "", err
		}
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".datatidy", "projects")
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveProjectDirByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("project name is required")
	}
	root, err := defaultProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// loadProjectRef loads a project by name, or by a path inside a project
// directory when ref contains a path separator.
func loadProjectRef(ref string) (*project.Project, error) {
	if strings.ContainsRune(ref, os.PathSeparator) || strings.HasPrefix(ref, ".") {
		dir, err := utils.FindProjectRoot(ref)
		if err != nil {
			return nil, err
		}
		return project.LoadProject(dir)
	}
	dir, err := resolveProjectDirByName(ref)
	if err != nil {
		return nil, err
	}
	return project.LoadProject(dir)
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "project description")
	initCmd.Flags().Float64Var(&initSkew, "skew-threshold", 0, "project skewness threshold (0 = inherit config)")
	initCmd.Flags().Float64Var(&initIQR, "iqr-multiplier", 0, "project IQR multiplier (0 = inherit config)")
	initCmd.Flags().StringVar(&initFormat, "format", "", "project output format: csv|parquet (empty = inherit config)")
}
