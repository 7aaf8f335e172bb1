// Package daemon keeps releasekit running as a service: a gocron-scheduled
// pipeline run every configured interval, an HTTP endpoint exposing Prometheus
// metrics, health and last-run status, and an external trigger hook for the
// source watcher. Runs are serialized; a trigger that arrives while a run is
// in flight marks exactly one follow-up run instead of stacking.
package daemon

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/releasekit/internal/config"
	"git.home.luguber.info/inful/releasekit/internal/logfields"
	"git.home.luguber.info/inful/releasekit/internal/metrics"
	"git.home.luguber.info/inful/releasekit/internal/pipeline"
)

// RunFunc executes one complete pipeline run.
type RunFunc func(ctx context.Context) (*pipeline.RunResult, error)

// RunStatus is the last-run snapshot served on /status.
type RunStatus struct {
	RunID      string    `json:"run_id,omitempty"`
	ExitCode   int       `json:"exit_code"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Error      string    `json:"error,omitempty"`
	Runs       int       `json:"runs_completed"`
	Running    bool      `json:"running"`
}

// Daemon drives scheduled pipeline runs and the status endpoint.
type Daemon struct {
	cfg      *config.Config
	run      RunFunc
	registry *prom.Registry

	trigger chan struct{}

	mu       sync.Mutex
	running  bool
	followUp bool
	status   RunStatus
}

// New builds a daemon around the given run function. The registry backs the
// /metrics endpoint; nil serves the default registry.
func New(cfg *config.Config, run RunFunc, registry *prom.Registry) *Daemon {
	return &Daemon{
		cfg:      cfg,
		run:      run,
		registry: registry,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests a run outside the schedule (watcher, admin). Non-blocking;
// coalesces with an already-pending trigger.
func (d *Daemon) Trigger() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, executing one pipeline run per interval
// tick or trigger.
func (d *Daemon) Run(ctx context.Context) error {
	scheduler, err := NewScheduler()
	if err != nil {
		return err
	}
	if _, err := scheduler.Schedule("pipeline-run", d.cfg.Daemon.Interval, d.Trigger); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer func() {
		if err := scheduler.Stop(ctx); err != nil {
			slog.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}()

	server := d.statusServer()
	go func() {
		slog.Info("Daemon endpoint listening", slog.String("addr", d.cfg.Daemon.Listen))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Daemon endpoint failed", logfields.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Daemon started", slog.Duration("interval", d.cfg.Daemon.Interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Daemon stopping")
			return nil
		case <-d.trigger:
			d.executeRun(ctx)
		}
	}
}

// executeRun performs one serialized run; a trigger during the run schedules
// exactly one follow-up.
func (d *Daemon) executeRun(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.followUp = true
		d.mu.Unlock()
		return
	}
	d.running = true
	d.status.Running = true
	d.mu.Unlock()

	for {
		started := time.Now()
		result, err := d.run(ctx)

		d.mu.Lock()
		d.status.StartedAt = started
		d.status.FinishedAt = time.Now()
		d.status.Runs++
		if err != nil {
			d.status.Error = err.Error()
			d.status.ExitCode = 1
			d.status.RunID = ""
			slog.Error("Scheduled run failed", logfields.Error(err))
		} else {
			d.status.Error = ""
			d.status.ExitCode = result.ExitCode
			d.status.RunID = result.RunID
		}
		again := d.followUp
		d.followUp = false
		if !again {
			d.running = false
			d.status.Running = false
		}
		d.mu.Unlock()

		if !again || ctx.Err() != nil {
			return
		}
		slog.Info("Running queued follow-up build")
	}
}

// Status returns the last-run snapshot.
func (d *Daemon) Status() RunStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Daemon) statusServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(d.Status())
	})
	return &http.Server{
		Addr:              d.cfg.Daemon.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
