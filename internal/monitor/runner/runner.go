// Package runner owns the top-level probe and render loop.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/ethmonitor/internal/core/config"
	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/monitor/metrics"
	"github.com/vietddude/ethmonitor/internal/monitor/render"
	"github.com/vietddude/ethmonitor/internal/monitor/staleness"
	"github.com/vietddude/ethmonitor/internal/monitor/state"
	"github.com/vietddude/ethmonitor/internal/probe"
)

const (
	DefaultSettleDelay   = config.DefaultSettleDelay
	DefaultTick          = config.DefaultTick
	DefaultTicksPerCycle = config.DefaultTicksPerCycle
)

// Config holds runner configuration
type Config struct {
	Probes    []probe.Probe
	Snapshot  *state.Snapshot
	Evaluator *staleness.Evaluator
	Renderer  *render.Renderer
	Output    io.Writer
	Logger    *slog.Logger

	SettleDelay   time.Duration
	Tick          time.Duration
	TicksPerCycle int
}

// Runner fires probes every cycle and redraws the dashboard every tick.
type Runner struct {
	cfg     Config
	log     *slog.Logger
	running atomic.Bool
	now     func() time.Time
}

// New creates a runner, filling zero timings with the defaults.
func New(cfg Config) *Runner {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.TicksPerCycle <= 0 {
		cfg.TicksPerCycle = DefaultTicksPerCycle
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = staleness.NewEvaluator(staleness.DefaultThreshold)
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.New(false)
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg: cfg,
		log: logger.With("component", "runner"),
		now: time.Now,
	}
}

// Run loops until ctx is cancelled. Probe failures and panics never end
// the loop.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return fmt.Errorf("runner already running")
	}
	defer r.running.Store(false)

	r.log.Info("Starting monitor loop",
		"probes", len(r.cfg.Probes),
		"settle", r.cfg.SettleDelay,
		"tick", r.cfg.Tick,
		"ticks", r.cfg.TicksPerCycle,
	)

	for ctx.Err() == nil {
		r.cycle(ctx)
	}

	r.log.Info("Monitor loop stopped")
	return nil
}

// RunOnce fires every probe, waits for all of them, then evaluates and
// renders a single frame.
func (r *Runner) RunOnce(ctx context.Context) error {
	cycleID := uuid.NewString()

	var wg sync.WaitGroup
	for _, p := range r.cfg.Probes {
		wg.Add(1)
		go func(p probe.Probe) {
			defer wg.Done()
			r.runProbe(ctx, cycleID, p)
		}(p)
	}
	wg.Wait()

	return r.frame()
}

// cycle fires all probes without waiting on them, lets them settle, then
// runs the evaluate/render ticks.
func (r *Runner) cycle(ctx context.Context) {
	cycleID := uuid.NewString()
	log := r.log.With("cycle", cycleID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Cycle panicked, scheduling next cycle", "panic", rec)
		}
	}()

	log.Debug("Firing probes", "count", len(r.cfg.Probes))
	for _, p := range r.cfg.Probes {
		go r.runProbe(ctx, cycleID, p)
	}

	if !sleep(ctx, r.cfg.SettleDelay) {
		return
	}

	for i := 0; i < r.cfg.TicksPerCycle; i++ {
		if err := r.frame(); err != nil {
			log.Warn("Failed to render frame", "error", err)
		}
		if !sleep(ctx, r.cfg.Tick) {
			return
		}
	}
}

// frame recomputes statuses and redraws the dashboard.
func (r *Runner) frame() error {
	ev := r.cfg.Evaluator.Evaluate(r.cfg.Snapshot, r.now())
	for source, status := range ev.Statuses {
		up := 0.0
		if status == domain.StatusOK {
			up = 1
		}
		metrics.SourceUp.WithLabelValues(string(source)).Set(up)
	}

	if err := r.cfg.Renderer.Draw(r.cfg.Output, r.cfg.Snapshot); err != nil {
		return err
	}
	metrics.FramesRendered.Inc()
	return nil
}

// runProbe executes one probe and records its outcome. It never panics.
func (r *Runner) runProbe(ctx context.Context, cycleID string, p probe.Probe) {
	source := p.Source()
	log := r.log.With("cycle", cycleID, "source", source)

	defer func() {
		if rec := recover(); rec != nil {
			metrics.ProbeRunsTotal.WithLabelValues(string(source), "panic").Inc()
			log.Error("Probe panicked", "panic", rec)
		}
	}()

	update, err := p.Run(ctx)
	metrics.ProbeLatency.WithLabelValues(string(source)).Observe(update.Latency.Seconds())

	if err != nil {
		kind := domain.KindOf(err)
		metrics.ProbeRunsTotal.WithLabelValues(string(source), "failure").Inc()
		metrics.ProbeErrorsTotal.WithLabelValues(string(source), string(kind)).Inc()
		r.cfg.Snapshot.RecordFailure(source, update)
		log.Warn("Probe failed", "kind", kind, "latency", update.Latency, "error", err)
		return
	}

	metrics.ProbeRunsTotal.WithLabelValues(string(source), "success").Inc()
	if !r.cfg.Snapshot.RecordSuccess(source, update, r.now()) {
		log.Warn("Probe reported into an unregistered source")
		return
	}
	log.Debug("Probe succeeded", "latency", update.Latency)
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
