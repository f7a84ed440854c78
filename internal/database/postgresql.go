package database

import (
	"context"
	"database/sql"

	"ermigrate/internal/schema"
	"ermigrate/pkg/config"
)

type PostgreSQLExtractor struct {
	db *sql.DB
}

func (p *PostgreSQLExtractor) ExtractModel(ctx context.Context, cfg config.SchemaConfig) (*schema.Model, error) {
	m := &schema.Model{}

	entities, err := p.extractEntities(ctx, cfg)
	if err != nil {
		return nil, err
	}
	m.Entities = entities

	fks, err := p.extractForeignKeys(ctx)
	if err != nil {
		return nil, err
	}
	addForeignKeys(m, cfg, fks)

	return m, nil
}

func (p *PostgreSQLExtractor) extractEntities(ctx context.Context, cfg config.SchemaConfig) ([]schema.Entity, error) {
	query := `
        SELECT t.table_name, COALESCE(obj_description(c.oid), '') as comment
        FROM information_schema.tables t
        LEFT JOIN pg_class c ON c.relname = t.table_name
        WHERE t.table_schema = 'public' AND t.table_type = 'BASE TABLE'
        ORDER BY t.table_name
    `

	rows, err := p.db.QueryContext(ctx, query)
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

		if e.Columns, err = p.extractColumns(ctx, e.Name); err != nil {
			return nil, err
		}
		primaryKeys, err := p.extractPrimaryKeys(ctx, e.Name)
		if err != nil {
			return nil, err
		}
		for _, name := range primaryKeys {
			if col, ok := e.Column(name); ok {
				col.IsPK = true
			}
		}
		indexes, err := p.extractIndexes(ctx, e.Name)
		if err != nil {
			return nil, err
		}
		applyIndexes(e, indexes)
	}

	return entities, nil
}

func (p *PostgreSQLExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
        SELECT 
            c.column_name, 
            c.data_type,
            c.character_maximum_length,
            c.numeric_precision,
            c.numeric_scale,
            c.is_nullable = 'YES' as is_nullable,
            c.column_default,
            COALESCE(col_description(pgc.oid, c.ordinal_position), '') as comment
        FROM information_schema.columns c
        LEFT JOIN pg_class pgc ON pgc.relname = c.table_name
        WHERE c.table_schema = 'public' AND c.table_name = $1
        ORDER BY c.ordinal_position
    `

	rows, err := p.db.QueryContext(ctx, query, tableName)
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

func (p *PostgreSQLExtractor) extractPrimaryKeys(ctx context.Context, tableName string) ([]string, error) {
	query := `
        SELECT kcu.column_name
        FROM information_schema.table_constraints tc
        JOIN information_schema.key_column_usage kcu 
            ON tc.constraint_name = kcu.constraint_name
        WHERE tc.table_schema = 'public' 
            AND tc.table_name = $1 
            AND tc.constraint_type = 'PRIMARY KEY'
        ORDER BY kcu.ordinal_position
    `

	rows, err := p.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var primaryKeys []string
	for rows.Next() {
		var columnName string
		if err := rows.Scan(&columnName); err != nil {
			return nil, err
		}
		primaryKeys = append(primaryKeys, columnName)
	}

	return primaryKeys, rows.Err()
}

func (p *PostgreSQLExtractor) extractIndexes(ctx context.Context, tableName string) ([]indexColumn, error) {
	query := `
        SELECT i.relname, a.attname, ix.indisunique
        FROM pg_index ix
        JOIN pg_class t ON t.oid = ix.indrelid
        JOIN pg_class i ON i.oid = ix.indexrelid
        JOIN pg_namespace n ON n.oid = t.relnamespace
        JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
        WHERE n.nspname = 'public'
            AND t.relname = $1
            AND NOT ix.indisprimary
        ORDER BY i.relname, a.attnum
    `

	rows, err := p.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []indexColumn
	for rows.Next() {
		var ic indexColumn
		if err := rows.Scan(&ic.index, &ic.column, &ic.unique); err != nil {
			return nil, err
		}
		indexes = append(indexes, ic)
	}

	return indexes, rows.Err()
}

func (p *PostgreSQLExtractor) extractForeignKeys(ctx context.Context) ([]foreignKey, error) {
	query := `
        SELECT
            tc.table_name,
            kcu.column_name,
            ccu.table_name AS foreign_table_name,
            ccu.column_name AS foreign_column_name
        FROM information_schema.table_constraints AS tc
        JOIN information_schema.key_column_usage AS kcu
            ON tc.constraint_name = kcu.constraint_name
        JOIN information_schema.constraint_column_usage AS ccu
            ON ccu.constraint_name = tc.constraint_name
        WHERE tc.constraint_type = 'FOREIGN KEY'
            AND tc.table_schema = 'public'
        ORDER BY tc.table_name, kcu.ordinal_position
    `

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foreignKeys []foreignKey
	for rows.Next() {
		var fk foreignKey
		if err := rows.Scan(
			&fk.table,
			&fk.column,
			&fk.referencedTable,
			&fk.referencedColumn,
		); err != nil {
			return nil, err
		}
		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}
