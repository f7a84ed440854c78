package config

type Config struct {
	Migrations MigrationsConfig `mapstructure:"migrations"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Output     OutputConfig     `mapstructure:"output"`
	Schema     SchemaConfig     `mapstructure:"schema"`
	Debug      bool             `mapstructure:"debug"`
}

type MigrationsConfig struct {
	Dir string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// SchemaConfig filters the tables read from a live database. Names match
// case-insensitively; an empty include list includes everything.
type SchemaConfig struct {
	ExcludeTables []string `mapstructure:"exclude_tables"`
	IncludeTables []string `mapstructure:"include_tables"`
}

// Wants reports whether table passes the include and exclude lists.
func (s SchemaConfig) Wants(table string) bool {
	if len(s.IncludeTables) > 0 && !contains(s.IncludeTables, table) {
		return false
	}
	return !contains(s.ExcludeTables, table)
}

// DefaultMigrationsDir is used when migrations.dir is not configured.
const DefaultMigrationsDir = ".migrations"

func (c Config) MigrationsDir() string {
	if c.Migrations.Dir == "" {
		return DefaultMigrationsDir
	}
	return c.Migrations.Dir
}
