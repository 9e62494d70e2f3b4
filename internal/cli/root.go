package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vietddude/ethmonitor/internal/control"
	"github.com/vietddude/ethmonitor/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "ethmonitor",
	Short: "Ethereum infrastructure health dashboard",
	Long:  `ethmonitor polls Ethereum RPC providers, explorers, price feeds and relays, and redraws a terminal dashboard of their health.`,
	Run:   runMonitor,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads .env and the config file, then installs the logger.
// Any failure exits the process.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging)
	return cfg
}

// setupLogging installs the default slog logger. When a log file is
// configured, records go there instead of stderr so they do not tear the
// dashboard.
func setupLogging(cfg config.LoggingConfig) {
	slogLevel := slog.LevelInfo
	switch {
	case isDebug || cfg.Level == "debug":
		slogLevel = slog.LevelDebug
	case cfg.Level == "warn":
		slogLevel = slog.LevelWarn
	case cfg.Level == "error":
		slogLevel = slog.LevelError
	}

	if cfg.File == "" {
		stylelog.InitDefault(&tint.Options{
			Level:      slogLevel,
			TimeFormat: time.RFC3339,
		})
		return
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: 3,
		Compress:   true,
	}
	slog.SetDefault(slog.New(tint.NewHandler(file, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	})))
}

func runMonitor(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewMonitor(cfg, os.Stdout)
	if err != nil {
		slog.Error("Failed to initialize monitor", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Monitor started", "config", cfgPath, "sources", len(cfg.Sources))

	if err := app.Run(ctx); err != nil {
		slog.Error("Monitor stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Received signal, shut down")
}
