package project_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/datatidy-cli/internal/project"
)

func TestSaveLoadRoundTripsRuns(t *testing.T) {
	tdir := t.TempDir()
	proj := project.NewProject("sales", "q3 exports", filepath.Join(tdir, "sales"))

	r := project.NewRun("", "raw.csv")
	if r.ID == "" {
		t.Fatalf("expected generated run id")
	}
	path, err := proj.WriteArtifact(r.ID, "report.md", []byte("# report\n"))
	if err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if filepath.Dir(path) != proj.RunDir(r.ID) {
		t.Fatalf("artifact written outside run dir: %s", path)
	}
	r.Report = path
	r.Rows = 10
	if err := proj.AddRun(r); err != nil {
		t.Fatalf("add run: %v", err)
	}
	if err := proj.AddRun(r); err == nil {
		t.Fatalf("expected duplicate run error")
	}
	if err := proj.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := project.LoadProject(proj.RootDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := loaded.Runs[r.ID]
	if !ok {
		t.Fatalf("run %s not persisted", r.ID)
	}
	if got.Rows != 10 || got.Source != "raw.csv" {
		t.Fatalf("unexpected run: %+v", got)
	}
	if _, err := os.Stat(got.Report); err != nil {
		t.Fatalf("report artifact missing: %v", err)
	}
}

func TestFindRunByPrefix(t *testing.T) {
	proj := project.NewProject("p", "", t.TempDir())
	a := project.NewRun("aaaa-1111", "a.csv")
	b := project.NewRun("abbb-2222", "b.csv")
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	for _, r := range []*project.Run{a, b} {
		if err := proj.AddRun(r); err != nil {
			t.Fatal(err)
		}
	}
	if r, err := proj.FindRun("aaaa"); err != nil || r.ID != a.ID {
		t.Fatalf("prefix lookup: %v %v", r, err)
	}
	if _, err := proj.FindRun("a"); err == nil {
		t.Fatalf("expected ambiguous prefix error")
	}
	if _, err := proj.FindRun("zzz"); err == nil {
		t.Fatalf("expected not found error")
	}
	runs := proj.SortedRuns()
	if len(runs) != 2 || runs[0].ID != a.ID {
		t.Fatalf("unexpected order: %v", runs)
	}
}

func TestLoadProjectMissing(t *testing.T) {
	if _, err := project.LoadProject(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing project")
	}
}
