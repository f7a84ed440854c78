package migration

import (
	"sort"
	"time"

	"ermigrate/internal/schema"
)

// Migration is an immutable, ordered bundle of operations plus the metadata
// that chains it to its predecessor within a namespace.
type Migration struct {
	Version      string
	Name         string
	Namespace    string
	Dependencies []string
	Operations   []Operation
	CreatedAt    time.Time
}

// Snapshot is the normalized schema state at one point in history.
type Snapshot struct {
	Tables        map[string]*Table
	Relationships []schema.Relationship
}

func NewSnapshot() *Snapshot {
	return &Snapshot{Tables: make(map[string]*Table)}
}

// TableNames returns the table names in ascending order.
func (s *Snapshot) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Snapshot) Empty() bool {
	return len(s.Tables) == 0
}
