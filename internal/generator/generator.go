// Package generator turns a target ER model into the next migration of a
// namespace.
package generator

import (
	"fmt"
	"log/slog"
	"time"

	"ermigrate/internal/diff"
	"ermigrate/internal/logger"
	"ermigrate/internal/migration"
	"ermigrate/internal/normalize"
	"ermigrate/internal/schema"
	"ermigrate/internal/state"
	"ermigrate/internal/store"
)

// Lister lists the persisted migration filenames of a namespace in sequence
// order.
type Lister interface {
	List(namespace string) ([]string, error)
}

// Rebuilder returns the schema a namespace's history describes.
type Rebuilder interface {
	Rebuild(namespace string) (*migration.Snapshot, error)
}

// History is what a Generator needs from the migration store.
type History interface {
	Lister
	state.History
}

type Generator struct {
	rebuilder Rebuilder
	lister    Lister
	now       func() time.Time
	log       *slog.Logger
}

type Option func(*Generator)

// WithClock replaces time.Now as the source of CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// WithRebuilder replaces the default history replay.
func WithRebuilder(r Rebuilder) Option {
	return func(g *Generator) { g.rebuilder = r }
}

// New returns a Generator over history.
func New(history History, opts ...Option) *Generator {
	g := &Generator{
		lister: history,
		now:    time.Now,
		log:    logger.Get(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rebuilder == nil {
		g.rebuilder = state.New(history, g.log)
	}
	return g
}

// Generate diffs target against the rebuilt state of namespace. It returns
// nil when there is nothing to migrate. The result is not persisted.
func (g *Generator) Generate(namespace string, target *schema.Model, name string) (*migration.Migration, error) {
	previous, err := g.rebuilder.Rebuild(namespace)
	if err != nil {
		return nil, err
	}

	ops := diff.Diff(previous, normalize.Convert(target))
	if len(ops) == 0 {
		g.log.Debug("no changes detected", "namespace", namespace)
		return nil, nil
	}

	deps, err := g.dependencies(namespace)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = migrationName(previous, ops)
	}
	g.log.Debug("generated migration",
		"namespace", namespace,
		"name", name,
		"operations", len(ops),
		"dependencies", deps)

	return &migration.Migration{
		Version:      migration.Version,
		Name:         name,
		Namespace:    namespace,
		Dependencies: deps,
		Operations:   ops,
		CreatedAt:    g.now(),
	}, nil
}

// dependencies points at the last persisted migration of namespace.
func (g *Generator) dependencies(namespace string) ([]string, error) {
	files, err := g.lister.List(namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations of %q: %w", namespace, err)
	}
	if len(files) == 0 {
		return []string{}, nil
	}
	last := store.MigrationID(files[len(files)-1])
	return []string{namespace + "." + last}, nil
}

func migrationName(previous *migration.Snapshot, ops []migration.Operation) string {
	if previous.Empty() {
		return "initial"
	}
	switch op := ops[0].(type) {
	case migration.CreateTable:
		return "create_" + op.TableName
	case migration.AddColumn:
		return "add_" + op.Column.Name
	case migration.AddForeignKey:
		return "add_foreign_key"
	default:
		return "auto_migration"
	}
}
