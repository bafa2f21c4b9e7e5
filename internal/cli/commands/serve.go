package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/aki/runpad/internal/config"
	"github.com/aki/runpad/internal/mcp"
	"github.com/aki/runpad/internal/metrics"
	"github.com/aki/runpad/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long:  "Start the Model Context Protocol server exposing persistent runtime sessions",
	RunE:  runServe,
}

var (
	serveRootDir       string
	serveTransport     string
	servePort          int
	serveWorkspaceRoot string
	serveMetricsAddr   string
)

func init() {
	serveCmd.Flags().StringVar(&serveRootDir, "root-dir", "", "Project root directory (defaults to the nearest .runpad or the working directory)")
	serveCmd.Flags().StringVarP(&serveTransport, "transport", "t", "", "Transport type (stdio, http)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port for HTTP transport")
	serveCmd.Flags().StringVar(&serveWorkspaceRoot, "workspace-root", "", "Directory hosting per-workspace working directories")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Prometheus listen address (enables metrics)")
}

func runServe(cmd *cobra.Command, args []string) error {
	projectRoot := serveRootDir
	if projectRoot == "" {
		root, err := config.FindProjectRoot()
		if err != nil {
			return err
		}
		projectRoot = root
	}
	projectRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("invalid root directory: %w", err)
	}

	configManager := config.NewManager(projectRoot)
	cfg, err := configManager.Load()
	if err != nil {
		return err
	}

	// Flag overrides
	if serveTransport != "" {
		cfg.MCP.Transport.Type = serveTransport
	}
	if servePort != 0 {
		cfg.MCP.Transport.HTTP.Port = servePort
	}
	if serveWorkspaceRoot != "" {
		cfg.Runtime.WorkspaceRoot = serveWorkspaceRoot
	}
	if serveMetricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = serveMetricsAddr
	}
	if cfg.Runtime.WorkspaceRoot == "" {
		cfg.Runtime.WorkspaceRoot = configManager.GetWorkspacesDir()
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	log := CreateLogger()

	// One server per project root. The lock file outlives crashed holders;
	// flock releases on process exit.
	if err := os.MkdirAll(configManager.GetRunpadDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create runpad directory: %w", err)
	}
	serveLock := flock.New(filepath.Join(configManager.GetRunpadDir(), "serve.lock"))
	locked, err := serveLock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire serve lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another runpad server is already running for %s", projectRoot)
	}
	defer func() {
		if err := serveLock.Unlock(); err != nil {
			log.Warn("failed to release serve lock", "error", err)
		}
	}()

	collector := metrics.NewCollector()
	manager := session.NewManager(cfg.SessionConfig(), log, collector)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		log.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, log)
		metricsServer.Start()
	}

	srv, err := mcp.NewServer(manager, cfg.MCP.Transport, log)
	if err != nil {
		return err
	}

	serveErr := srv.Start(ctx)

	// Teardown: sessions first so child processes die before we exit.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	manager.TerminateAll(shutdownCtx)
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown failed", "error", err)
		}
	}

	return serveErr
}
