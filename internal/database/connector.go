// Package database introspects a live database into an ER model.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"ermigrate/internal/schema"
	"ermigrate/pkg/config"
)

type Connector struct {
	db     *sql.DB
	driver string
}

// ModelExtractor reads the tables, columns, single-column indexes and
// foreign keys of one database into an ER model.
type ModelExtractor interface {
	ExtractModel(ctx context.Context, cfg config.SchemaConfig) (*schema.Model, error)
}

func NewConnector(ctx context.Context, databaseURL string) (*Connector, error) {
	driver, dsn, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connector{
		db:     db,
		driver: driver,
	}, nil
}

func (c *Connector) Close() error {
	return c.db.Close()
}

func (c *Connector) Driver() string {
	return c.driver
}

// ExtractModel introspects the connected database and validates the result.
func (c *Connector) ExtractModel(ctx context.Context, cfg config.SchemaConfig) (*schema.Model, error) {
	var extractor ModelExtractor

	switch c.driver {
	case "postgres":
		extractor = &PostgreSQLExtractor{db: c.db}
	case "mysql":
		extractor = &MySQLExtractor{db: c.db}
	case "sqlite3":
		extractor = &SQLiteExtractor{db: c.db}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.driver)
	}

	m, err := extractor.ExtractModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseDatabaseURL maps a database URL to a database/sql driver name and DSN.
func ParseDatabaseURL(databaseURL string) (driver, dsn string, err error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", "", err
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return "postgres", databaseURL, nil
	case "mysql":
		return "mysql", mysqlDSN(u), nil
	case "sqlite", "sqlite3":
		return "sqlite3", strings.TrimPrefix(databaseURL, u.Scheme+"://"), nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme: %s", u.Scheme)
	}
}

func mysqlDSN(u *url.URL) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	for k, v := range u.Query() {
		if len(v) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[k] = v[len(v)-1]
	}
	return cfg.FormatDSN()
}
