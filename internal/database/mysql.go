package database

import (
	"context"
	"database/sql"

	"ermigrate/internal/schema"
	"ermigrate/pkg/config"
)

// MySQLExtractor reads the database selected by the connection DSN.
type MySQLExtractor struct {
	db *sql.DB
}

func (x *MySQLExtractor) ExtractModel(ctx context.Context, cfg config.SchemaConfig) (*schema.Model, error) {
	m := &schema.Model{}

	entities, err := x.extractEntities(ctx, cfg)
	if err != nil {
		return nil, err
	}
	m.Entities = entities

	fks, err := x.extractForeignKeys(ctx)
	if err != nil {
		return nil, err
	}
	addForeignKeys(m, cfg, fks)

	return m, nil
}

func (x *MySQLExtractor) extractEntities(ctx context.Context, cfg config.SchemaConfig) ([]schema.Entity, error) {
	query := `
        SELECT table_name, table_comment
        FROM information_schema.tables
        WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
        ORDER BY table_name
    `

	rows, err := x.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []schema.Entity
	for rows.Next() {
		var e schema.Entity
		if err := rows.Scan(&e.Name, &e.Comment); err != nil {
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
		if e.Columns, err = x.extractColumns(ctx, e.Name); err != nil {
			return nil, err
		}
		indexes, err := x.extractIndexes(ctx, e.Name)
		if err != nil {
			return nil, err
		}
		applyIndexes(e, indexes)
	}

	return entities, nil
}

func (x *MySQLExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
        SELECT
            column_name,
            data_type,
            character_maximum_length,
            numeric_precision,
            numeric_scale,
            is_nullable = 'YES',
            column_default,
            column_comment,
            column_key = 'PRI'
        FROM information_schema.columns
        WHERE table_schema = DATABASE() AND table_name = ?
        ORDER BY ordinal_position
    `

	rows, err := x.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var length, precision, scale sql.NullInt64
		var defaultValue sql.NullString

		if err := rows.Scan(
			&col.Name,
			&col.Type,
			&length,
			&precision,
			&scale,
			&col.Nullable,
			&defaultValue,
			&col.Comment,
			&col.IsPK,
		); err != nil {
			return nil, err
		}

		if length.Valid {
			col.MaxLength = intPtr(length.Int64)
		}
		if precision.Valid {
			col.Precision = intPtr(precision.Int64)
		}
		if scale.Valid {
			col.Scale = intPtr(scale.Int64)
		}
		if defaultValue.Valid {
			col.Default = &defaultValue.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (x *MySQLExtractor) extractIndexes(ctx context.Context, tableName string) ([]indexColumn, error) {
	query := `
        SELECT index_name, column_name, non_unique = 0
        FROM information_schema.statistics
        WHERE table_schema = DATABASE() AND table_name = ? AND index_name <> 'PRIMARY'
        ORDER BY index_name, seq_in_index
    `

	rows, err := x.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []indexColumn
	for rows.Next() {
		var ic indexColumn
		var column sql.NullString
		if err := rows.Scan(&ic.index, &column, &ic.unique); err != nil {
			return nil, err
		}
		ic.column = column.String
		indexes = append(indexes, ic)
	}

	return indexes, rows.Err()
}

func (x *MySQLExtractor) extractForeignKeys(ctx context.Context) ([]foreignKey, error) {
	query := `
        SELECT table_name, column_name, referenced_table_name, referenced_column_name
        FROM information_schema.key_column_usage
        WHERE table_schema = DATABASE() AND referenced_table_name IS NOT NULL
        ORDER BY table_name, ordinal_position
    `

	rows, err := x.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foreignKeys []foreignKey
	for rows.Next() {
		var fk foreignKey
		if err := rows.Scan(&fk.table, &fk.column, &fk.referencedTable, &fk.referencedColumn); err != nil {
			return nil, err
		}
		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}
