package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pgtenant-labs/pgtenant-go/internal/command"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pgtenant",
	Short: "Run operations across tenant schemas in a multi-tenant Postgres database",
	Long: `pgtenant runs one operation once per tenant schema in a database
where every tenant's data lives in its own schema. Tenants come from static
configuration, the clone reference template, or a dynamic tenant table.`,
	SilenceUsage: true,
}

// registry holds the operations workers can re-obtain by name. Built-ins
// register here; embedders add their own before Execute.
var registry = command.NewRegistry()

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "pgtenant.yaml", "path to the tenant configuration file")

	if err := registry.Register(func() command.Operation { return command.ExecSQL{} }); err != nil {
		panic(err)
	}
}
