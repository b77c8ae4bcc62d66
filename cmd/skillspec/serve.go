package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/logger"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/server"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Host    string
	Port    int
	NoDiary bool
}

// NewServeConfig creates a new ServeConfig with default values
func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host:    "localhost",
		Port:    8080,
		NoDiary: false,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation API server",
	Long: `Start a local HTTP server exposing the validator over JSON: POST
/api/validate plus read endpoints for skills, patterns, tools and recorded
run history.

The server validates documents from the enclosing workspace and will be
available at http://localhost:8080 by default.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getServeConfigFromFlags(cmd)
		runServeCommand(ctx, config)
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the server to")
	serveCmd.Flags().Bool("no-diary", defaults.NoDiary, "Disable the run history endpoints")
}

// getServeConfigFromFlags extracts serve configuration from command flags
func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	if host, err := cmd.Flags().GetString("host"); err == nil {
		config.Host = host
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil {
		config.Port = port
	}
	if noDiary, err := cmd.Flags().GetBool("no-diary"); err == nil {
		config.NoDiary = noDiary
	}

	return config
}

// runServeCommand starts the validation API server
func runServeCommand(ctx context.Context, config *ServeConfig) {
	ws, err := workspace.Find(".")
	if err != nil {
		presenter.Error(err, "Failed to locate workspace")
		os.Exit(1)
	}

	serverConfig := &server.Config{
		Host:          config.Host,
		Port:          config.Port,
		WorkspaceRoot: ws.Root,
	}
	if !config.NoDiary {
		serverConfig.DiaryPath = ws.DiaryPath()
	}
	if err := serverConfig.Validate(); err != nil {
		presenter.Error(err, "invalid server configuration")
		os.Exit(1)
	}

	logger.G(ctx).WithFields(map[string]interface{}{
		"host":      config.Host,
		"port":      config.Port,
		"workspace": ws.Root,
	}).Info("Starting validation API server")

	srv, err := server.NewServer(ctx, serverConfig)
	if err != nil {
		presenter.Error(err, "failed to create server")
		os.Exit(1)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			logger.G(ctx).WithError(closeErr).Error("failed to close server")
		}
	}()

	// Create a context that cancels on interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	presenter.Success(fmt.Sprintf("Validation API server starting on http://%s:%d", config.Host, config.Port))
	presenter.Info("Press Ctrl+C to stop the server")

	if err := srv.Start(ctx); err != nil {
		logger.G(ctx).WithError(err).Error("server error")
		presenter.Error(err, "server failed")
		os.Exit(1)
	}

	presenter.Info("Server stopped")
}
