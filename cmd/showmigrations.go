package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ermigrate/internal/store"
)

func newShowMigrationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "showmigrations [namespace]",
		Short: "List the migrations of one or all namespaces",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.store()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				files, err := st.List(args[0])
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintf(out, "No migrations found for namespace '%s'\n", args[0])
					return nil
				}
				printNamespace(cmd, args[0], files)
				return nil
			}

			namespaces, err := st.Namespaces()
			if err != nil {
				return err
			}
			shown := 0
			for _, ns := range namespaces {
				files, err := st.List(ns)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					continue
				}
				printNamespace(cmd, ns, files)
				shown++
			}
			if shown == 0 {
				fmt.Fprintln(out, "No migrations found")
			}
			return nil
		},
	}
}

func printNamespace(cmd *cobra.Command, namespace string, files []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s:\n", namespace)
	for _, f := range files {
		fmt.Fprintf(out, "  [X] %s\n", store.MigrationID(f))
	}
}
