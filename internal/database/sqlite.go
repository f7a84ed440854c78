package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ermigrate/internal/schema"
	"ermigrate/pkg/config"
)

// sqliteType splits declared types such as VARCHAR(100) or DECIMAL(10, 2).
var sqliteType = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z ]*?)\s*\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)\s*$`)

type SQLiteExtractor struct {
	db *sql.DB
}

func (s *SQLiteExtractor) ExtractModel(ctx context.Context, cfg config.SchemaConfig) (*schema.Model, error) {
	m := &schema.Model{}

	entities, err := s.extractEntities(ctx, cfg)
	if err != nil {
		return nil, err
	}
	m.Entities = entities

	var fks []foreignKey
	for _, e := range entities {
		tableFKs, err := s.extractForeignKeys(ctx, e.Name)
		if err != nil {
			return nil, err
		}
		fks = append(fks, tableFKs...)
	}
	addForeignKeys(m, cfg, fks)

	return m, nil
}

func (s *SQLiteExtractor) extractEntities(ctx context.Context, cfg config.SchemaConfig) ([]schema.Entity, error) {
	query := `
        SELECT name
        FROM sqlite_master
        WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
        ORDER BY name
    `

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []schema.Entity
	for rows.Next() {
		var e schema.Entity
		if err := rows.Scan(&e.Name); err != nil {
			return nil, err
		}
		if cfg.Wants(e.Name) {
			entities = append(entities, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entities {
		e := &entities[i]
		if e.Columns, err = s.extractColumns(ctx, e.Name); err != nil {
			return nil, err
		}
		indexes, err := s.extractIndexes(ctx, e.Name)
		if err != nil {
			return nil, err
		}
		applyIndexes(e, indexes)
	}

	return entities, nil
}

func (s *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var cid int
		var declared string
		var defaultValue sql.NullString
		var notNull int
		var pk int

		if err := rows.Scan(
			&cid,
			&col.Name,
			&declared,
			&notNull,
			&defaultValue,
			&pk,
		); err != nil {
			return nil, err
		}

		// Columns declared without a type have BLOB affinity.
		col.Type = strings.TrimSpace(declared)
		if col.Type == "" {
			col.Type = "BLOB"
		}
		if m := sqliteType.FindStringSubmatch(declared); m != nil {
			col.Type = m[1]
			n, _ := strconv.Atoi(m[2])
			if m[3] == "" {
				col.MaxLength = &n
			} else {
				scale, _ := strconv.Atoi(m[3])
				col.Precision = &n
				col.Scale = &scale
			}
		}
		col.Nullable = notNull == 0 && pk == 0
		col.IsPK = pk > 0
		if defaultValue.Valid {
			col.Default = &defaultValue.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (s *SQLiteExtractor) extractIndexes(ctx context.Context, tableName string) ([]indexColumn, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type index struct {
		name   string
		unique bool
	}
	var indexes []index
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		if origin == "pk" || partial != 0 {
			continue
		}
		indexes = append(indexes, index{name: name, unique: unique != 0})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var columns []indexColumn
	for _, idx := range indexes {
		cols, err := s.indexColumns(ctx, idx.name)
		if err != nil {
			return nil, err
		}
		for _, c := range cols {
			columns = append(columns, indexColumn{index: idx.name, column: c, unique: idx.unique})
		}
	}
	return columns, nil
}

func (s *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(indexName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		// Expression index columns have no name.
		names = append(names, name.String)
	}
	return names, rows.Err()
}

func (s *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foreignKeys []foreignKey
	for rows.Next() {
		fk := foreignKey{table: tableName}
		var id, seq int
		var referencedColumn sql.NullString
		var onUpdate, onDelete, match string

		if err := rows.Scan(
			&id,
			&seq,
			&fk.referencedTable,
			&fk.column,
			&referencedColumn,
			&onUpdate,
			&onDelete,
			&match,
		); err != nil {
			return nil, err
		}

		// A missing "to" column references the primary key.
		fk.referencedColumn = referencedColumn.String
		if fk.referencedColumn == "" {
			fk.referencedColumn = "id"
		}
		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
