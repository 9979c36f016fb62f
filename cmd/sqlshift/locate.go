package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/corvid-labs/sqlshift"
)

// location is the path-inference result for one --dir.
type location struct {
	Dir         string
	SchemaFiles []string // sorted, full paths
	Source      string   // concatenated schema source, in SchemaFiles order
	Hash        string   // first 16 hex chars of SHA-256 over LF-normalized Source
	NewDBPath   string   // deterministic: <dir>/<dirname>-<hash>.sqlite
	OldDBPath   string   // most recent <dirname>-*.sqlite that isn't NewDBPath, or "" if none
}

// locate discovers the schema source files inside dir, computes the
// deterministic new-database path, and finds the most recent pre-existing
// database file to treat as the old database.
func locate(dir string) (*location, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}

	var sqlFiles []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		sqlFiles = append(sqlFiles, filepath.Join(abs, e.Name()))
	}
	if len(sqlFiles) == 0 {
		return nil, fmt.Errorf("no .sql schema files found in %s", abs)
	}
	sort.Strings(sqlFiles)

	var src strings.Builder
	for _, f := range sqlFiles {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		src.Write(b)
		src.WriteString("\n")
	}
	source := src.String()
	hash := sqlshift.SchemaHash(source)

	base := filepath.Base(abs)
	newDBPath := filepath.Join(abs, fmt.Sprintf("%s-%s.sqlite", base, hash))

	oldDBPath, err := findOldDB(entries, abs, base, newDBPath)
	if err != nil {
		return nil, err
	}

	return &location{
		Dir:         abs,
		SchemaFiles: sqlFiles,
		Source:      source,
		Hash:        hash,
		NewDBPath:   newDBPath,
		OldDBPath:   oldDBPath,
	}, nil
}

// findOldDB picks the most recently modified file matching <base>-*.sqlite
// other than newDBPath.
func findOldDB(entries []os.DirEntry, dir, base, newDBPath string) (string, error) {
	prefix := base + "-"
	var best string
	var bestMod time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".sqlite") {
			continue
		}
		full := filepath.Join(dir, name)
		if full == newDBPath {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", full, err)
		}
		if best == "" || info.ModTime().After(bestMod) {
			best = full
			bestMod = info.ModTime()
		}
	}
	return best, nil
}
