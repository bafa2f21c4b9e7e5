// Package commands implements the runpad CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "runpad",
	Short: "Persistent runtime sessions for coding agents",
	Long: `Runpad keeps one interactive shell and interpreter alive per workspace,
so commands executed across many separate calls share environment variables,
working directory, imports, and history. It serves these sessions to agents
over the Model Context Protocol and to humans through a local REPL.`,
}

func init() {
	RegisterLoggerFlags(rootCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
