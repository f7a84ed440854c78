package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ermigrate/internal/generators"
	"ermigrate/internal/normalize"
	"ermigrate/internal/schema"
	"ermigrate/internal/state"
)

func newDiagramCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagram [namespace]",
		Short: "Render a namespace's current schema, or a live database, as a diagram",
		Long: `Render the schema rebuilt from a namespace's migration history, or the
schema of the database given by --database-url, using Mermaid, PlantUML or
Graphviz.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m *schema.Model
			switch {
			case len(args) == 1:
				snapshot, err := state.New(a.store(), nil).Rebuild(args[0])
				if err != nil {
					return err
				}
				m = normalize.Model(snapshot)
			case a.cfg.Database.URL != "":
				var err error
				if m, err = a.introspect(cmd.Context()); err != nil {
					return err
				}
			default:
				return errors.New("either a namespace or --database-url is required")
			}

			content, err := generators.Render(a.cfg.Output.Format, m)
			if err != nil {
				return err
			}

			file := a.cfg.Output.File
			if file == "" {
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if err := os.WriteFile(file, []byte(content), 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Schema visualization generated: %s\n", file)
			fmt.Fprintf(cmd.OutOrStdout(), "Format: %s\n", a.cfg.Output.Format)
			fmt.Fprintf(cmd.OutOrStdout(), "Entities: %d\n", len(m.Entities))
			fmt.Fprintf(cmd.OutOrStdout(), "Relationships: %d\n", len(m.Relationships))
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid, plantuml, graphviz")
	cmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringP("database-url", "d", "", "Render this database instead of a namespace")
	cmd.Flags().StringSliceP("exclude-tables", "e", []string{}, "Tables to exclude from visualization")
	cmd.Flags().StringSliceP("include-tables", "i", []string{}, "Only include these tables (if specified)")

	return cmd
}
