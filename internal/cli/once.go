package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/ethmonitor/internal/control"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run every probe once and print a single frame",
	Run:   runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewMonitor(cfg, os.Stdout)
	if err != nil {
		slog.Error("Failed to initialize monitor", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Once(ctx); err != nil {
		slog.Error("Failed to render frame", "error", err)
		os.Exit(1)
	}
}
