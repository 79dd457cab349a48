// Package mover places classified files into their destination directories.
//
// Destination trees are created on demand, name collisions get a numeric
// suffix, and moves fall back to copy plus remove when the destination sits
// on a different filesystem.
package mover

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docsort/internal/logging"
	"docsort/internal/services"
	"docsort/internal/taxonomy"
)

// maxCollisionSuffix bounds the rename counter; a directory with this many
// same-named files gets the file skipped instead.
const maxCollisionSuffix = 100

// Mover moves files under a destination root. Safe for concurrent use.
type Mover struct {
	destRoot string
	logger   *slog.Logger
	mu       sync.Mutex
}

// New constructs a mover rooted at destRoot.
func New(destRoot string, logger *slog.Logger) *Mover {
	return &Mover{
		destRoot: destRoot,
		logger:   logging.NewComponentLogger(logger, "mover"),
	}
}

// Move places the file into the category directory, returning the final
// destination path. Collisions resolve to name_1.ext, name_2.ext and so on;
// exhausting the counter returns ErrSkipped and leaves the source in place.
func (m *Mover) Move(srcPath string, category taxonomy.CategoryPath) (string, error) {
	destDir := filepath.Join(m.destRoot, category.Dir())
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrMoveFailed, "mover", "mkdir", destDir, err)
	}

	// Probing for a free name and claiming it must not interleave between
	// workers, or two same-named files resolve to one candidate and the
	// second rename overwrites the first.
	m.mu.Lock()
	defer m.mu.Unlock()

	destPath, err := resolveCollision(destDir, filepath.Base(srcPath))
	if err != nil {
		return "", err
	}

	if err := moveFile(srcPath, destPath); err != nil {
		return "", services.Wrap(services.ErrMoveFailed, "mover", "move", srcPath, err)
	}
	m.logger.Debug("file moved",
		logging.String(logging.FieldFile, srcPath),
		logging.String(logging.FieldCategory, category.String()))
	return destPath, nil
}

// resolveCollision finds a free filename in destDir, suffixing the stem with
// _1, _2, ... when the plain name is taken.
func resolveCollision(destDir, name string) (string, error) {
	candidate := filepath.Join(destDir, name)
	if !exists(candidate) {
		return candidate, nil
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= maxCollisionSuffix; i++ {
		candidate = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", services.Wrap(services.ErrSkipped, "mover", "collision", name+": too many duplicates at destination", nil)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// moveFile renames when possible, falling back to copy plus remove for
// cross-device moves.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := copyFile(src, dest); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}
