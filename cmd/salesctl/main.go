package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"salesdash/internal/backend"
)

// backendOverride replaces DATA_BACKEND for one invocation.
var backendOverride string

func main() {
	rootCmd := &cobra.Command{
		Use:          "salesctl",
		Short:        "Query sales reports and manage project pairs from the terminal",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&backendOverride, "backend", "b", "",
		"data backend ("+strings.Join(backend.GetBackendTypeStrings(), ", ")+"), default DATA_BACKEND")

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(pairCmd())
	rootCmd.AddCommand(syncCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func reportCmd() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the snapshot tables and cumulative series of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.project, "project", "p", "", "project name substring (empty selects all)")
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "report month YYYY-MM")
	cmd.Flags().StringSliceVarP(&opts.types, "types", "t", nil, "product types to include")
	cmd.Flags().StringVarP(&opts.xlsx, "xlsx", "o", "", "write the report to this xlsx file instead of printing")
	cmd.Flags().BoolVar(&opts.series, "series", true, "print the cumulative series")
	return cmd
}

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the project names of the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProjects(cmd.Context())
		},
	}
}

func pairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "List or register main/option project code pairs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered pairs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPairList(cmd.Context())
		},
	})

	var mainCode, optionCode string
	add := &cobra.Command{
		Use:   "add",
		Short: "Append a pair to the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPairAdd(cmd.Context(), mainCode, optionCode)
		},
	}
	add.Flags().StringVar(&mainCode, "main", "", "main construction project code")
	add.Flags().StringVar(&optionCode, "option", "", "option work project code")
	_ = add.MarkFlagRequired("main")
	_ = add.MarkFlagRequired("option")
	cmd.AddCommand(add)

	return cmd
}

func syncCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy sales rows from the Google sheet into the SQLite mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), project)
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "sync one project (default: all)")
	return cmd
}
