package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/angelmondragon/pipeline-crm/pkg/db/models"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// RequiredTables must each be created by some migration's Up section and be
// dropped again by its Down section.
var RequiredTables = []string{models.CRMSnapshot{}.TableName()}

// ValidateDir checks migration filenames, unique versions, goose section
// markers in Up-then-Down order, and that the snapshot schema is present.
func ValidateDir(dir string) error {
	return validateDir(dir, RequiredTables)
}

func validateDir(dir string, required []string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	var ups, downs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		up, down, err := splitSections(name, string(b))
		if err != nil {
			return err
		}
		ups = append(ups, up)
		downs = append(downs, down)
	}

	upSQL := strings.ToLower(strings.Join(ups, "\n"))
	downSQL := strings.ToLower(strings.Join(downs, "\n"))
	for _, table := range required {
		t := strings.ToLower(table)
		if !strings.Contains(upSQL, "create table if not exists "+t) && !strings.Contains(upSQL, "create table "+t) {
			return fmt.Errorf("no migration creates required table %q", table)
		}
		if !strings.Contains(downSQL, "drop table if exists "+t) && !strings.Contains(downSQL, "drop table "+t) {
			return fmt.Errorf("no migration drops required table %q on down", table)
		}
	}
	return nil
}

func splitSections(name, txt string) (string, string, error) {
	upAt := strings.Index(txt, "-- +goose Up")
	if upAt < 0 {
		return "", "", fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	}
	downAt := strings.Index(txt, "-- +goose Down")
	if downAt < 0 {
		return "", "", fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	}
	if downAt < upAt {
		return "", "", fmt.Errorf("migration %q has Down before Up", name)
	}
	return txt[upAt:downAt], txt[downAt:], nil
}
