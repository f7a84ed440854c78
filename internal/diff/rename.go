package diff

import (
	"ermigrate/internal/migration"
)

// RenameThreshold is the minimum column-name Jaccard similarity at which a
// dropped and a created table are treated as one renamed table.
const RenameThreshold = 0.8

type rename struct {
	from, to string
}

// detectRenames pairs dropped tables with created tables. Dropped tables are
// visited in name order; each takes the most similar created table that is
// not yet paired, keeping the first candidate in name order on ties. Pairs
// below RenameThreshold fall back to drop and create.
func detectRenames(old, next *migration.Snapshot, dropped, created []string) []rename {
	var renames []rename
	taken := make(map[string]bool)

	for _, from := range dropped {
		best := ""
		bestScore := 0.0
		for _, to := range created {
			if taken[to] {
				continue
			}
			score := Similarity(old.Tables[from], next.Tables[to])
			if score > bestScore {
				best, bestScore = to, score
			}
		}
		if best != "" && bestScore >= RenameThreshold {
			taken[best] = true
			renames = append(renames, rename{from: from, to: best})
		}
	}

	return renames
}

// Similarity is the Jaccard index of the two tables' column-name sets. It is
// 0 when either table has no columns.
func Similarity(a, b *migration.Table) float64 {
	if len(a.Columns) == 0 || len(b.Columns) == 0 {
		return 0
	}

	left := make(map[string]bool, len(a.Columns))
	for _, c := range a.Columns {
		left[c.Name] = true
	}
	union := make(map[string]bool, len(a.Columns)+len(b.Columns))
	for name := range left {
		union[name] = true
	}

	shared := 0
	seen := make(map[string]bool, len(b.Columns))
	for _, c := range b.Columns {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		if left[c.Name] {
			shared++
		}
		union[c.Name] = true
	}

	return float64(shared) / float64(len(union))
}
