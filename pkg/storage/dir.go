package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Dir stores run artefacts beneath a base directory.
type Dir struct {
	base string
}

// NewDir creates base if needed.
func NewDir(base string) (*Dir, error) {
	if base == "" {
		base = "./runs"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	return &Dir{base: base}, nil
}

// Create opens name for writing, truncating any existing file. name must stay inside the base directory.
func (d *Dir) Create(name string) (io.WriteCloser, string, error) {
	path, err := d.resolve(name)
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, "", fmt.Errorf("prepare run directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("create run file: %w", err)
	}
	return file, path, nil
}

// Prune removes files last modified before now-ttl for which owned reports true, and returns
// their names relative to the base directory. Only the base and its direct subdirectories are
// visited.
func (d *Dir) Prune(ttl time.Duration, now time.Time, owned func(rel string) bool) ([]string, error) {
	cutoff := now.Add(-ttl)
	var removed []string
	err := filepath.WalkDir(d.base, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.base, path)
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if rel != "." && strings.Contains(filepath.ToSlash(rel), "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() || owned == nil || !owned(rel) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		removed = append(removed, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("prune run directory: %w", err)
	}
	return removed, nil
}

func (d *Dir) resolve(name string) (string, error) {
	clean := filepath.Clean(name)
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid run file name %q", name)
	}
	return filepath.Join(d.base, clean), nil
}
