package mover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"docsort/internal/logging"
	"docsort/internal/services"
	"docsort/internal/taxonomy"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestMoveCreatesCategoryTree(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	srcPath := filepath.Join(src, "invoice.pdf")
	writeFile(t, srcPath, "pdf body")

	mover := New(dest, logging.NewNop())
	got, err := mover.Move(srcPath, taxonomy.CategoryPath{"Work", "Invoices"})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	want := filepath.Join(dest, "Work", "Invoices", "invoice.pdf")
	if got != want {
		t.Fatalf("unexpected destination %q, want %q", got, want)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "pdf body" {
		t.Fatalf("destination content wrong: %q, %v", data, err)
	}
	if _, err := os.Stat(srcPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source should be gone: %v", err)
	}
}

func TestMoveCollisionSuffixes(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	mover := New(dest, logging.NewNop())

	for i, content := range []string{"first", "second", "third"} {
		srcPath := filepath.Join(src, fmt.Sprintf("staging%d", i), "report.txt")
		writeFile(t, srcPath, content)
		if _, err := mover.Move(srcPath, taxonomy.CategoryPath{"Docs"}); err != nil {
			t.Fatalf("Move %d: %v", i, err)
		}
	}

	for _, name := range []string{"report.txt", "report_1.txt", "report_2.txt"} {
		if _, err := os.Stat(filepath.Join(dest, "Docs", name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestMoveCollisionCapSkips(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	docsDir := filepath.Join(dest, "Docs")
	writeFile(t, filepath.Join(docsDir, "note.txt"), "existing")
	for i := 1; i <= maxCollisionSuffix; i++ {
		writeFile(t, filepath.Join(docsDir, fmt.Sprintf("note_%d.txt", i)), "existing")
	}

	srcPath := filepath.Join(src, "note.txt")
	writeFile(t, srcPath, "incoming")

	mover := New(dest, logging.NewNop())
	_, err := mover.Move(srcPath, taxonomy.CategoryPath{"Docs"})
	if !errors.Is(err, services.ErrSkipped) {
		t.Fatalf("expected ErrSkipped, got %v", err)
	}
	if _, statErr := os.Stat(srcPath); statErr != nil {
		t.Fatalf("skipped file must stay at source: %v", statErr)
	}
}

func TestMoveIntoExistingDirIsIdempotent(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dest, "Docs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	srcPath := filepath.Join(src, "a.txt")
	writeFile(t, srcPath, "x")
	mover := New(dest, logging.NewNop())
	if _, err := mover.Move(srcPath, taxonomy.CategoryPath{"Docs"}); err != nil {
		t.Fatalf("Move into existing dir: %v", err)
	}
}

func TestMoveMissingSourceIsMoveFailed(t *testing.T) {
	dest := t.TempDir()
	mover := New(dest, logging.NewNop())

	_, err := mover.Move(filepath.Join(t.TempDir(), "gone.txt"), taxonomy.CategoryPath{"Docs"})
	if !errors.Is(err, services.ErrMoveFailed) {
		t.Fatalf("expected ErrMoveFailed, got %v", err)
	}
}

func TestMoveDestinationCreateFailureIsMoveFailed(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	// A file where the category directory should go makes MkdirAll fail.
	writeFile(t, filepath.Join(dest, "Docs"), "not a directory")
	srcPath := filepath.Join(src, "a.txt")
	writeFile(t, srcPath, "x")

	mover := New(dest, logging.NewNop())
	_, err := mover.Move(srcPath, taxonomy.CategoryPath{"Docs"})
	if !errors.Is(err, services.ErrMoveFailed) {
		t.Fatalf("expected ErrMoveFailed, got %v", err)
	}
	if _, statErr := os.Stat(srcPath); statErr != nil {
		t.Fatalf("failed move must leave source in place: %v", statErr)
	}
}

func TestMoveConcurrentSameNameKeepsEveryFile(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	mover := New(dest, logging.NewNop())

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		srcPath := filepath.Join(src, fmt.Sprintf("staging%d", i), "scan.pdf")
		writeFile(t, srcPath, fmt.Sprintf("body %d", i))
		wg.Add(1)
		go func(i int, srcPath string) {
			defer wg.Done()
			_, errs[i] = mover.Move(srcPath, taxonomy.CategoryPath{"Docs"})
		}(i, srcPath)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Move %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(dest, "Docs"))
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("expected %d files after concurrent moves, got %d", n, len(entries))
	}
}

func TestCopyFilePreservesContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dest := filepath.Join(dir, "dest.bin")
	writeFile(t, src, "payload")

	if err := copyFile(src, dest); err != nil {
		t.Fatalf("copyFile: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "payload" {
		t.Fatalf("unexpected copy %q, %v", data, err)
	}
}
