package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

const latestBackupName = "latest.json"

// Backup writes timestamped JSON snapshots of the full result set. Snapshots
// are best effort: callers log failures and move on, grade data itself lives
// in the database.
type Backup struct {
	Dir string
	// Keep bounds how many timestamped snapshots stay on disk. Zero means
	// keep everything.
	Keep int
}

func NewBackup(dir string, keep int) *Backup {
	if dir == "" {
		dir = "./backups"
	}
	return &Backup{Dir: dir, Keep: keep}
}

// Write dumps the rows to a timestamped file and refreshes latest.json.
func (b *Backup) Write(rows []models.ResultRow) (string, error) {
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	name := fmt.Sprintf("results_%s.json", time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(b.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	latest := filepath.Join(b.Dir, latestBackupName)
	if err := os.WriteFile(latest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write latest backup: %w", err)
	}

	if err := b.prune(); err != nil {
		return "", err
	}

	return name, nil
}

// prune drops the oldest snapshots beyond Keep. latest.json is untouched.
func (b *Backup) prune() error {
	if b.Keep <= 0 {
		return nil
	}
	names, err := b.List()
	if err != nil {
		return err
	}
	for _, name := range names[min(b.Keep, len(names)):] {
		if err := os.Remove(filepath.Join(b.Dir, name)); err != nil {
			return fmt.Errorf("failed to prune backup %s: %w", name, err)
		}
	}
	return nil
}

// List returns the snapshot filenames, newest first.
func (b *Backup) List() ([]string, error) {
	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read backup dir: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == latestBackupName {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
