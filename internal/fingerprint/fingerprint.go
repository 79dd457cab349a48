// Package fingerprint produces content hashes and metadata records for
// scanned files. Hashes stream through a fixed-size buffer so large files
// never load fully into memory.
package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docsort/internal/services"
)

const hashChunkSize = 8 * 1024

// FileRecord describes one candidate file discovered during scanning.
type FileRecord struct {
	Path        string
	Name        string
	Size        int64
	ModTime     time.Time
	ContentHash string
}

// Ext returns the lowercased filename extension including the dot.
func (r FileRecord) Ext() string {
	return strings.ToLower(filepath.Ext(r.Name))
}

// NewRecord builds a FileRecord from stat metadata without hashing.
func NewRecord(path string, info fs.FileInfo) FileRecord {
	return FileRecord{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// HashFile computes the hex SHA-256 digest of the file contents, reading in
// fixed-size chunks and honoring context cancellation between chunks.
func HashFile(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrUnreadable, "fingerprint", "hash", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	buf := make([]byte, hashChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, readErr := file.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", services.Wrap(services.ErrUnreadable, "fingerprint", "hash", path, readErr)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
