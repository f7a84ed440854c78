package state

import (
	"fmt"
	"log/slog"

	"ermigrate/internal/logger"
	"ermigrate/internal/migration"
)

// History loads the persisted migrations of a namespace in sequence order.
type History interface {
	LoadAll(namespace string) ([]*migration.Migration, error)
}

// Rebuilder reconstructs the current schema of a namespace from its history.
type Rebuilder struct {
	history History
	log     *slog.Logger
}

// New returns a Rebuilder reading from history. A nil log uses the global
// logger.
func New(history History, log *slog.Logger) *Rebuilder {
	if log == nil {
		log = logger.Get()
	}
	return &Rebuilder{history: history, log: log}
}

// Rebuild replays every migration of namespace. A namespace without history
// yields an empty snapshot.
func (r *Rebuilder) Rebuild(namespace string) (*migration.Snapshot, error) {
	migrations, err := r.history.LoadAll(namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of %q: %w", namespace, err)
	}

	s := Replay(migrations)
	r.log.Debug("rebuilt state",
		"namespace", namespace,
		"migrations", len(migrations),
		"tables", len(s.Tables),
		"relationships", len(s.Relationships))
	return s, nil
}
