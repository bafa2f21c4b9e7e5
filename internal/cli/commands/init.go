package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aki/runpad/internal/cli/ui"
	"github.com/aki/runpad/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize runpad in the current project",
	Long:  "Write a default runpad configuration to .runpad/config.yaml in the current directory",
	RunE:  runInit,
}

var forceInit bool

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Force initialization, overwriting existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configManager := config.NewManager(cwd)
	if configManager.IsInitialized() && !forceInit {
		return fmt.Errorf("runpad already initialized. Use --force to reinitialize")
	}

	if err := configManager.Save(config.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	if err := os.MkdirAll(configManager.GetWorkspacesDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create workspaces directory: %w", err)
	}

	ui.Success("Initialized runpad in %s", configManager.GetRunpadDir())
	return nil
}
