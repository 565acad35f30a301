package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/strategy-lab/internal/health"
	"github.com/yourusername/strategy-lab/internal/metrics"
	"github.com/yourusername/strategy-lab/internal/scheduler"
)

var runImmediately bool

func init() {
	scheduleCmd.Flags().BoolVar(&runImmediately, "now", false, "Run one sweep before waiting for the schedule")
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run sweeps on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Schedule.Cron == "" {
			return fmt.Errorf("schedule.cron is required")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		server := newHealthServer(a)
		if err := server.Start(ctx); err != nil {
			return err
		}

		sched := scheduler.NewScheduler(log, cfg.Grid.Timeout())
		job := func(jobCtx context.Context) error {
			result, err := a.Sweep(jobCtx)
			status := health.SweepStatus{FinishedAt: time.Now().UTC()}
			if result != nil {
				_, _, failed := result.Counts()
				status.SweepID, status.Rows, status.Failed = result.SweepID.String(), len(result.Rows), failed
			}
			if err != nil {
				status.Error = err.Error()
			}
			server.RecordSweep(status)
			return err
		}
		if _, err := sched.Schedule("sweep", cfg.Schedule.Cron, job); err != nil {
			return err
		}

		if runImmediately {
			sched.RunNow("sweep", job)
		}
		if err := sched.Start(); err != nil {
			return err
		}
		server.SetReady(true)
		log.WithField("next_run", sched.GetNextRun()).Info("Waiting for scheduled sweeps")

		<-ctx.Done()
		server.SetReady(false)
		return sched.Stop()
	},
}

func newHealthServer(a *app) *health.Server {
	hc := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Port:        cfg.Metrics.Port,
		MetricsPath: cfg.Metrics.Path,
		Logger:      log,
	}
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		hc.MetricsHandler = metrics.Handler()
	}
	if a.db != nil {
		hc.DB = a.db
	}
	return health.NewServer(hc)
}
