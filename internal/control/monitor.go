package control

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/config"
	"github.com/vietddude/ethmonitor/internal/monitor/render"
	"github.com/vietddude/ethmonitor/internal/monitor/runner"
	"github.com/vietddude/ethmonitor/internal/monitor/server"
	"github.com/vietddude/ethmonitor/internal/monitor/staleness"
	"github.com/vietddude/ethmonitor/internal/monitor/state"
	"github.com/vietddude/ethmonitor/internal/probe"
)

// Monitor is the main application struct that manages the dashboard
// lifecycle.
type Monitor struct {
	cfg          *config.AppConfig
	probes       []probe.Probe
	snap         *state.Snapshot
	runner       *runner.Runner
	statusServer *server.Server
	log          *slog.Logger
}

// NewMonitor builds every probe from configuration. A source that cannot
// be constructed is fatal.
func NewMonitor(cfg *config.AppConfig, out io.Writer) (*Monitor, error) {
	probes, err := probe.BuildAll(cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("failed to build probes: %w", err)
	}

	regs := make([]state.Registration, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		regs = append(regs, state.Registration{
			Source: src.ID,
			Label:  src.Label,
			Kind:   src.Type,
		})
	}
	snap := state.New(regs)

	m := &Monitor{
		cfg:    cfg,
		probes: probes,
		snap:   snap,
		log:    slog.Default().With("component", "monitor"),
	}

	m.runner = runner.New(runner.Config{
		Probes:        probes,
		Snapshot:      snap,
		Evaluator:     staleness.NewEvaluator(cfg.Schedule.StaleAfter),
		Renderer:      render.New(cfg.Render.Color),
		Output:        out,
		SettleDelay:   cfg.Schedule.SettleDelay,
		Tick:          cfg.Schedule.Tick,
		TicksPerCycle: cfg.Schedule.TicksPerCycle,
	})

	if cfg.Server.Port > 0 {
		m.statusServer = server.New(snap, cfg.Server.Port)
	}

	return m, nil
}

// Snapshot returns the shared health snapshot.
func (m *Monitor) Snapshot() *state.Snapshot {
	return m.snap
}

// Run starts the optional status server and blocks in the dashboard loop
// until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	if m.statusServer != nil {
		go func() {
			m.log.Info("Starting status server", "port", m.cfg.Server.Port)
			if err := m.statusServer.Start(); err != nil {
				m.log.Error("Status server failed", "error", err)
			}
		}()
	}

	m.log.Info("Monitoring sources", "count", len(m.probes))
	err := m.runner.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if stopErr := m.Stop(shutdownCtx); stopErr != nil {
		m.log.Warn("Failed to stop status server", "error", stopErr)
	}
	return err
}

// Once runs a single probe round and renders one frame.
func (m *Monitor) Once(ctx context.Context) error {
	return m.runner.RunOnce(ctx)
}

// Stop stops the status server if one is running.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.statusServer == nil {
		return nil
	}
	return m.statusServer.Stop(ctx)
}
