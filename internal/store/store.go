// Package store persists migrations as YAML documents, one directory per
// namespace and one zero-padded, sequence-prefixed file per migration.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"ermigrate/internal/logger"
	"ermigrate/internal/migration"
)

var (
	ErrNotFound         = errors.New("migration not found")
	ErrInvalidMigration = errors.New("invalid migration")
)

var (
	sequencePrefix = regexp.MustCompile(`^(\d{4})_`)
	nameStrip      = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z}-]`)
	nameSeparators = regexp.MustCompile(`[-\s\p{Z}]+`)
)

// Store reads and writes migration files below a root directory. It does
// no locking: callers must serialize generate and save per namespace.
type Store struct {
	fs   afero.Fs
	root string
	log  *slog.Logger
}

// New returns a Store rooted at root on fsys.
func New(fsys afero.Fs, root string) *Store {
	return &Store{fs: fsys, root: root, log: logger.Get()}
}

// NewOS returns a Store on the operating system filesystem.
func NewOS(root string) *Store {
	return New(afero.NewOsFs(), root)
}

func (s *Store) namespaceDir(namespace string) (string, error) {
	if namespace == "" {
		return "", fmt.Errorf("%w: empty namespace", ErrInvalidMigration)
	}
	if namespace != filepath.Base(namespace) || namespace == "." || namespace == ".." {
		return "", fmt.Errorf("%w: namespace %q is not a plain directory name", ErrInvalidMigration, namespace)
	}
	return filepath.Join(s.root, namespace), nil
}

// List returns the migration filenames of namespace sorted by name, which
// is sequence order. A namespace without a directory has no migrations.
func (s *Store) List(namespace string) ([]string, error) {
	dir, err := s.namespaceDir(namespace)
	if err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Load reads one migration file. A document without a namespace takes the
// namespace it was loaded from.
func (s *Store) Load(namespace, filename string) (*migration.Migration, error) {
	dir, err := s.namespaceDir(namespace)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, filename)

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	m, err := migration.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if m.Namespace == "" {
		m.Namespace = namespace
	}
	return m, nil
}

// LoadAll loads every migration of namespace in sequence order.
func (s *Store) LoadAll(namespace string) ([]*migration.Migration, error) {
	files, err := s.List(namespace)
	if err != nil {
		return nil, err
	}

	migrations := make([]*migration.Migration, 0, len(files))
	for _, f := range files {
		m, err := s.Load(namespace, f)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}
	return migrations, nil
}

// NextSequence returns one more than the highest four-digit prefix in
// namespace, or 1 when there is none.
func (s *Store) NextSequence(namespace string) (int, error) {
	files, err := s.List(namespace)
	if err != nil {
		return 0, err
	}

	highest := 0
	for _, f := range files {
		m := sequencePrefix.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		highest = max(highest, n)
	}
	return highest + 1, nil
}

// Filename returns the name the next migration of m's namespace would be
// saved under.
func (s *Store) Filename(m *migration.Migration) (string, error) {
	seq, err := s.NextSequence(m.Namespace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d_%s.yaml", seq, CleanName(m.Name)), nil
}

// Save writes m as the next migration of its namespace and returns the path
// of the new file. An existing file is never overwritten.
func (s *Store) Save(m *migration.Migration) (string, error) {
	if m == nil || m.Name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidMigration)
	}
	dir, err := s.namespaceDir(m.Namespace)
	if err != nil {
		return "", err
	}
	if CleanName(m.Name) == "" {
		return "", fmt.Errorf("%w: name %q has no usable characters", ErrInvalidMigration, m.Name)
	}

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	filename, err := s.Filename(m)
	if err != nil {
		return "", err
	}
	data, err := migration.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode migration %q: %w", m.Name, err)
	}

	path := filepath.Join(dir, filename)
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.log.Debug("saved migration", "namespace", m.Namespace, "path", path)
	return path, nil
}

// Namespaces returns the namespace directories below the root, sorted.
func (s *Store) Namespaces() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", s.root, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// MigrationID strips the YAML extension from a migration filename.
func MigrationID(filename string) string {
	for _, ext := range []string{".yaml", ".yml"} {
		if strings.HasSuffix(filename, ext) {
			return strings.TrimSuffix(filename, ext)
		}
	}
	return filename
}

// CleanName drops everything but Unicode letters and digits, underscores,
// whitespace and dashes, then joins the remaining runs of whitespace and
// dashes with underscores and lowercases the result.
func CleanName(name string) string {
	name = nameStrip.ReplaceAllString(name, "")
	return strings.ToLower(nameSeparators.ReplaceAllString(name, "_"))
}
