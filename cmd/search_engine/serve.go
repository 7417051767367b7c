package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gcbaptista/go-position-search/api"
	"github.com/gcbaptista/go-position-search/config"
	"github.com/gcbaptista/go-position-search/internal/engine"
	internalErrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

var (
	servePort       string
	serveDataDir    string
	serveConfigPath string
	serveLogLevel   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API on the configured port. Indexes found in the data
directory are loaded on start and persisted after every write.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	defaults := config.DefaultServerConfig()
	serveCmd.Flags().StringVarP(&servePort, "port", "p", defaults.Port, "port to run the server on")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", defaults.DataDir, "directory to store search data")
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "TOML server config file")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd)
}

// resolveServerConfig layers explicitly set flags over the config file over the defaults.
func resolveServerConfig(cmd *cobra.Command) (config.ServerConfig, error) {
	cfg := config.DefaultServerConfig()
	if serveConfigPath != "" {
		loaded, err := config.LoadServerConfig(serveConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = servePort
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = serveDataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = serveLogLevel
	}
	return cfg, cfg.Validate()
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(parsed)
	return zapConfig.Build()
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveServerConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	collector := metrics.NewCollector(logger)
	searchEngine := engine.NewEngine(cfg.DataDir, logger.Named("engine"), collector)

	for _, settings := range cfg.Indexes {
		err := searchEngine.CreateIndex(settings)
		switch {
		case err == nil:
		case errors.Is(err, internalErrors.ErrIndexAlreadyExists):
			logger.Debug("configured index already exists", zap.String("index", settings.Name))
		default:
			return fmt.Errorf("failed to create configured index '%s': %w", settings.Name, err)
		}
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, searchEngine, api.Options{
		Logger:          logger.Named("http"),
		Metrics:         collector,
		MaxRequestBytes: cfg.MaxRequestBytes,
		RateLimit:       cfg.RateLimit,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", server.Addr),
			zap.String("data_dir", cfg.DataDir),
			zap.String("version", version))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	for _, name := range searchEngine.ListIndexes() {
		if err := searchEngine.PersistIndexData(name); err != nil {
			logger.Error("failed to persist index on shutdown", zap.String("index", name), zap.Error(err))
		}
	}
	return nil
}
