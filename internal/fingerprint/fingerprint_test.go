package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docsort/internal/services"
)

func TestHashFileMatchesDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	content := []byte("quarterly numbers\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := HashFile(context.Background(), path)
	if err != nil {
		t.Fatalf("HashFile returned error: %v", err)
	}
	sum := sha256.Sum256(content)
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("hash mismatch: got %s want %s", got, want)
	}
}

func TestHashFileLargeFileStreams(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	// Larger than one chunk so multiple reads happen.
	content := make([]byte, 3*hashChunkSize+17)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := HashFile(context.Background(), path)
	if err != nil {
		t.Fatalf("HashFile returned error: %v", err)
	}
	sum := sha256.Sum256(content)
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("hash mismatch for chunked read")
	}
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(context.Background(), filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, services.ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestHashFileCancelled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := HashFile(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewRecordAndExt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Resume.PDF")
	if err := os.WriteFile(path, []byte("pdf"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	rec := NewRecord(path, info)
	if rec.Name != "Resume.PDF" || rec.Size != 3 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Ext() != ".pdf" {
		t.Fatalf("unexpected ext %q", rec.Ext())
	}
}
