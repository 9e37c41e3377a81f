package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/jingkaihe/skillforge/pkg/webui"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Host          string
	Port          int
	StaticDir     string
	MaxUploadSize int64
}

// NewServeConfig creates a ServeConfig with default values
func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host:          "localhost",
		Port:          8765,
		MaxUploadSize: webui.DefaultMaxUploadSize,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server for browsing and editing skills",
	Long: `Start a local web server exposing the skills API under /api and, when
--static-dir is set, the browser UI from that directory.

The server listens on http://localhost:8765 by default.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runServeCommand(cmd.Context(), getServeConfig())
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the web server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the web server to")
	serveCmd.Flags().String("static-dir", defaults.StaticDir, "Directory of UI files to serve for non-API paths")
	serveCmd.Flags().Int64("max-upload-size", defaults.MaxUploadSize, "Maximum size in bytes of an archive import request")

	viper.BindPFlag("host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("static_dir", serveCmd.Flags().Lookup("static-dir"))
	viper.BindPFlag("max_upload_size", serveCmd.Flags().Lookup("max-upload-size"))
}

// getServeConfig reads the serve configuration from flags, env and config file
func getServeConfig() *ServeConfig {
	return &ServeConfig{
		Host:          viper.GetString("host"),
		Port:          viper.GetInt("port"),
		StaticDir:     viper.GetString("static_dir"),
		MaxUploadSize: viper.GetInt64("max_upload_size"),
	}
}

// validateServeConfig validates the serve configuration
func validateServeConfig(config *ServeConfig) error {
	if config.Host == "" {
		return errors.New("host cannot be empty")
	}

	if config.Host != "localhost" && config.Host != "0.0.0.0" {
		if ip := net.ParseIP(config.Host); ip == nil {
			if strings.Contains(config.Host, " ") || strings.Contains(config.Host, ":") {
				return errors.Errorf("invalid host: %s", config.Host)
			}
		}
	}

	if config.Port < 1 || config.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", config.Port)
	}

	if config.Port < 1024 {
		logger.G(context.Background()).WithField("port", config.Port).Warn("using privileged port (< 1024) may require elevated permissions")
	}

	if config.StaticDir != "" {
		info, err := os.Stat(config.StaticDir)
		if err != nil || !info.IsDir() {
			return errors.Errorf("static dir %s is not a directory", config.StaticDir)
		}
	}

	if config.MaxUploadSize < 1 {
		return errors.Errorf("max upload size must be positive, got %d", config.MaxUploadSize)
	}

	return nil
}

// runServeCommand starts the web server and blocks until interrupted
func runServeCommand(ctx context.Context, config *ServeConfig) {
	if err := validateServeConfig(config); err != nil {
		presenter.Error(err, "invalid server configuration")
		os.Exit(1)
	}

	shutdownTracing, err := initTracing(ctx)
	if err != nil {
		presenter.Error(err, "failed to initialize tracing")
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to flush traces")
		}
	}()

	store, err := openStore()
	if err != nil {
		presenter.Error(err, "failed to open skill store")
		os.Exit(1)
	}

	server, err := webui.NewServer(&webui.ServerConfig{
		Host:          config.Host,
		Port:          config.Port,
		StaticDir:     config.StaticDir,
		MaxUploadSize: config.MaxUploadSize,
	}, store)
	if err != nil {
		presenter.Error(err, "failed to create web server")
		os.Exit(1)
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"host":       config.Host,
		"port":       config.Port,
		"static_dir": config.StaticDir,
	}).Info("starting web UI server")

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	presenter.Success(fmt.Sprintf("Serving %s on http://%s:%d", store.Root(), config.Host, config.Port))
	presenter.Info("Press Ctrl+C to stop the server")

	if err := server.Start(ctx); err != nil {
		logger.G(ctx).WithError(err).Error("web server error")
		presenter.Error(err, "web server failed")
		os.Exit(1)
	}

	presenter.Info("Web server stopped")
}
