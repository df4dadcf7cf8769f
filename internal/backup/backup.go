package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/daylit-planner/internal/logger"
)

const (
	// MaxSnapshots is how many snapshots are kept per archive
	MaxSnapshots = 14
	DirName      = "backups"

	stampLayout = "20060102-150405"
)

// Snapshot is one copy of a file archive
type Snapshot struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager snapshots a SQLite or JSON run archive into a sibling backups directory
type Manager struct {
	archive string
	dir     string
	prefix  string
	ext     string
	keep    int
	now     func() time.Time
}

func NewManager(archivePath string) *Manager {
	base := filepath.Base(archivePath)
	ext := filepath.Ext(base)
	return &Manager{
		archive: archivePath,
		dir:     filepath.Join(filepath.Dir(archivePath), DirName),
		prefix:  strings.TrimSuffix(base, ext) + "-",
		ext:     ext,
		keep:    MaxSnapshots,
		now:     time.Now,
	}
}

func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) isSQLite() bool {
	return !strings.EqualFold(m.ext, ".json")
}

// Create copies the archive and prunes snapshots beyond the retention limit
func (m *Manager) Create() (string, error) {
	path, err := m.create()
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("failed to rotate old snapshots", "dir", m.dir, "error", err)
	}
	return path, nil
}

func (m *Manager) create() (string, error) {
	if _, err := os.Stat(m.archive); errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("archive does not exist: %s", m.archive)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	stamp := m.now().UTC().Format(stampLayout)
	path := filepath.Join(m.dir, m.prefix+stamp+m.ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			break
		}
		if n > 100 {
			return "", fmt.Errorf("failed to generate unique snapshot filename")
		}
		path = filepath.Join(m.dir, fmt.Sprintf("%s%s-%d%s", m.prefix, stamp, n, m.ext))
	}

	if m.isSQLite() {
		err := vacuumInto(m.archive, path)
		if err == nil {
			return path, nil
		}
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
	}
	if err := copyFile(m.archive, path); err != nil {
		return "", fmt.Errorf("failed to copy archive: %w", err)
	}
	return path, nil
}

func vacuumInto(src, dst string) error {
	db, err := sql.Open("sqlite", src+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("archive appears to be corrupted: %w", err)
	}
	_, err = db.Exec("VACUUM INTO ?", dst)
	return err
}

// List returns snapshots of this archive, newest first
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	snapshots := []Snapshot{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, m.prefix) || !strings.HasSuffix(name, m.ext) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, m.prefix), m.ext)
		if len(stamp) > len(stampLayout) {
			stamp = stamp[:len(stampLayout)]
		}
		ts, err := time.Parse(stampLayout, stamp)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{Path: filepath.Join(m.dir, name), Timestamp: ts, Size: info.Size()})
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		if !snapshots[i].Timestamp.Equal(snapshots[j].Timestamp) {
			return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
		}
		return snapshots[i].Path > snapshots[j].Path
	})
	return snapshots, nil
}

func (m *Manager) rotate() error {
	snapshots, err := m.List()
	if err != nil {
		return err
	}
	for i := m.keep; i < len(snapshots); i++ {
		if err := os.Remove(snapshots[i].Path); err != nil {
			return fmt.Errorf("failed to remove old snapshot %s: %w", snapshots[i].Path, err)
		}
	}
	return nil
}

// Resolve finds a snapshot given a path or a file name inside the backup directory
func (m *Manager) Resolve(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	if !filepath.IsAbs(name) {
		candidate := filepath.Join(m.dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("snapshot not found: tried %s and %s", name, m.dir)
}

// Restore replaces the archive with a snapshot. The current archive is snapshotted
// first and the returned path names that copy, empty when there was no archive.
// The archive must be closed by the caller.
func (m *Manager) Restore(snapshot string) (string, error) {
	if err := m.verify(snapshot); err != nil {
		return "", fmt.Errorf("snapshot is corrupted or invalid: %w", err)
	}

	var previous string
	if _, err := os.Stat(m.archive); err == nil {
		if previous, err = m.create(); err != nil {
			return "", fmt.Errorf("failed to snapshot current archive before restore: %w", err)
		}
	}

	tmp := m.archive + ".restore.tmp"
	if err := copyFile(snapshot, tmp); err != nil {
		return previous, fmt.Errorf("failed to copy snapshot: %w", err)
	}
	if err := os.Rename(tmp, m.archive); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("failed to remove temporary file", "path", tmp, "error", rmErr)
		}
		return previous, fmt.Errorf("failed to restore archive: %w", err)
	}
	return previous, nil
}

func (m *Manager) verify(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if !m.isSQLite() {
		return nil
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()
	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
