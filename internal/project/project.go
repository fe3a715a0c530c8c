package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/datatidy-cli/internal/utils"
)

const (
	projectFileName = utils.ProjectFile
	runsDirName     = "runs"
)

// Project represents a datatidy workspace persisted on disk.
type Project struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Runs        map[string]*Run `json:"runs"`
	Config      *ProjectConfig  `json:"config"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Not serialized: on-disk location of the project.json
	rootDir string `json:"-"`
}

// ProjectConfig holds per-project overrides of the global cleaning policy.
// Zero values inherit from the global configuration.
type ProjectConfig struct {
	SkewThreshold float64 `json:"skew_threshold,omitempty"`
	IQRMultiplier float64 `json:"iqr_multiplier,omitempty"`
	OutputFormat  string  `json:"output_format,omitempty"`
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	return &Project{
		Name:        name,
		Description: description,
		Runs:        make(map[string]*Run),
		Config:      &ProjectConfig{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// LoadProject loads a project.json from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, projectFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if p.Runs == nil {
		p.Runs = make(map[string]*Run)
	}
	if p.Config == nil {
		p.Config = &ProjectConfig{}
	}
	p.rootDir = dir
	return &p, nil
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// RunDir returns the directory holding the artifacts of run id.
func (p *Project) RunDir(id string) string {
	return filepath.Join(p.rootDir, runsDirName, id)
}

// Save writes project.json using atomic write.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := utils.EnsureDir(p.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	p.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, projectFileName), data)
}

// AddRun records r in the project. Artifacts must already be written with
// WriteArtifact; AddRun only updates metadata.
func (p *Project) AddRun(r *Run) error {
	if r == nil || r.ID == "" {
		return errors.New("run id is required")
	}
	if p.Runs == nil {
		p.Runs = make(map[string]*Run)
	}
	if _, ok := p.Runs[r.ID]; ok {
		return fmt.Errorf("run %s already recorded", r.ID)
	}
	p.Runs[r.ID] = r
	p.UpdatedAt = time.Now()
	return nil
}

// WriteArtifact atomically writes data as name inside the run directory of id
// and returns its path.
func (p *Project) WriteArtifact(id, name string, data []byte) (string, error) {
	dir := p.RunDir(id)
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("ensure run dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// SortedRuns returns runs oldest first.
func (p *Project) SortedRuns() []*Run {
	out := make([]*Run, 0, len(p.Runs))
	for _, r := range p.Runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// FindRun resolves a run by full id or unique id prefix.
func (p *Project) FindRun(ref string) (*Run, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("run id is required")
	}
	if r, ok := p.Runs[ref]; ok {
		return r, nil
	}
	var match *Run
	for id, r := range p.Runs {
		if !strings.HasPrefix(id, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run id %q is ambiguous", ref)
		}
		match = r
	}
	if match == nil {
		return nil, fmt.Errorf("run %q not found in project %s", ref, p.Name)
	}
	return match, nil
}
