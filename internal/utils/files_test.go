package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileReplacesAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.md")
	if err := SafeWriteFile(path, []byte("old")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := SafeWriteFile(path, []byte("new")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "new" {
		t.Fatalf("expected new content, got %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only report.md, found %d entries", len(entries))
	}
}

func TestWriteAtomicKeepsOriginalOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.parquet")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	boom := errors.New("encode failed")
	err := WriteAtomic(path, func(tmp string) error {
		if err := os.WriteFile(tmp, []byte("partial"), 0o644); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "original" {
		t.Fatalf("original was modified: %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %d entries", len(entries))
	}
}

func TestWriteAtomicUsesDistinctTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	var first string
	err := WriteAtomic(path, func(tmp string) error {
		first = tmp
		return WriteAtomic(path, func(inner string) error {
			if inner == first {
				t.Fatalf("nested writes share temp path %s", inner)
			}
			return os.WriteFile(inner, []byte("inner"), 0o644)
		})
	})
	if err != nil {
		t.Fatalf("nested write: %v", err)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ProjectFile), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write project file: %v", err)
	}
	deep := filepath.Join(root, "runs", "abc")
	if err := EnsureDir(deep); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	got, err := FindProjectRoot(deep)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if _, err := FindProjectRoot(t.TempDir()); !errors.Is(err, ErrNoProjectRoot) {
		t.Fatalf("expected ErrNoProjectRoot, got %v", err)
	}
}

func TestPrettyJSONEndsWithNewline(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"rows": 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "{\n  \"rows\": 3\n}\n" {
		t.Fatalf("unexpected json: %q", b)
	}
}
