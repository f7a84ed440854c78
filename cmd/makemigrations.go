package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"ermigrate/internal/database"
	"ermigrate/internal/generator"
	"ermigrate/internal/migration"
	"ermigrate/internal/parser"
	"ermigrate/internal/schema"
)

func newMakeMigrationsCmd(a *app) *cobra.Command {
	var (
		name   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "makemigrations <namespace> [model-file]",
		Short: "Generate the next migration of a namespace",
		Long: `Compare an ER model with the state rebuilt from the namespace's
migration history and write the difference as a new migration file.

The model is read from a TOML, YAML or JSON file, or introspected from the
database given by --database-url.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var modelFile string
			if len(args) == 2 {
				modelFile = args[1]
			}
			return a.makeMigrations(cmd, args[0], modelFile, name, dryRun)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Custom migration name")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the migration instead of saving it")
	cmd.Flags().StringP("database-url", "d", "", "Introspect this database instead of reading a model file")
	cmd.Flags().StringSliceP("exclude-tables", "e", []string{}, "Tables to exclude when introspecting")
	cmd.Flags().StringSliceP("include-tables", "i", []string{}, "Only include these tables when introspecting (if specified)")

	return cmd
}

func (a *app) makeMigrations(cmd *cobra.Command, namespace, modelFile, name string, dryRun bool) error {
	target, err := a.loadModel(cmd.Context(), modelFile)
	if err != nil {
		return err
	}

	st := a.store()
	m, err := generator.New(st).Generate(namespace, target, name)
	if err != nil {
		return fmt.Errorf("failed to generate migration: %w", err)
	}

	out := cmd.OutOrStdout()
	if m == nil {
		fmt.Fprintln(out, "No changes detected.")
		return nil
	}

	if dryRun {
		filename, err := st.Filename(m)
		if err != nil {
			return err
		}
		data, err := migration.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode migration: %w", err)
		}
		fmt.Fprintf(out, "Migrations for '%s' (dry run):\n  %s\n\n%s", namespace, filename, data)
		return nil
	}

	path, err := st.Save(m)
	if err != nil {
		return fmt.Errorf("failed to save migration: %w", err)
	}
	fmt.Fprintf(out, "Migrations for '%s':\n  %s\n", namespace, filepath.Base(path))
	return nil
}

// loadModel parses modelFile, or introspects the configured database when no
// file is given.
func (a *app) loadModel(ctx context.Context, modelFile string) (*schema.Model, error) {
	if modelFile != "" {
		return parser.ParseFile(modelFile)
	}
	if a.cfg.Database.URL == "" {
		return nil, errors.New("either a model file or --database-url is required")
	}
	return a.introspect(ctx)
}

func (a *app) introspect(ctx context.Context) (*schema.Model, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	connector, err := database.NewConnector(ctx, a.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connector: %w", err)
	}
	defer connector.Close()

	m, err := connector.ExtractModel(ctx, a.cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to extract schema: %w", err)
	}
	return m, nil
}
