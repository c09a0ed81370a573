package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Pair is a freshly created up/down migration file pair.
type Pair struct {
	Version  string
	UpPath   string
	DownPath string
}

// Create writes an empty <version>_<slug>.{up,down}.sql pair into dir. The
// version is the UTC creation time, so lexical order is apply order.
func Create(dir, name, description string) (Pair, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Pair{}, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := time.Now().UTC().Format("20060102150405")
	base := version + "_" + slugify(name)
	pair := Pair{
		Version:  version,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	up := fmt.Sprintf("-- %s.up.sql\n-- %s\n\n", base, description)
	if err := os.WriteFile(pair.UpPath, []byte(up), 0o644); err != nil {
		return Pair{}, fmt.Errorf("failed to write %s: %w", pair.UpPath, err)
	}

	down := fmt.Sprintf("-- %s.down.sql\n-- reverts %s\n\n", base, slugify(name))
	if err := os.WriteFile(pair.DownPath, []byte(down), 0o644); err != nil {
		os.Remove(pair.UpPath)
		return Pair{}, fmt.Errorf("failed to write %s: %w", pair.DownPath, err)
	}

	return pair, nil
}

// List returns the migration base names found in dir, sorted in apply order.
// A missing directory lists as empty.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations directory: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(match), ".up.sql"))
	}
	sort.Strings(names)
	return names, nil
}

// slugify lowercases a migration name and collapses everything that is not
// alphanumeric into single underscores.
func slugify(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}
