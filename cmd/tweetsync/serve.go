package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/debuglog"
	"github.com/pders01/tweetsync/internal/scheduler"
)

const runJob = "run"

func newServeCmd(c *cli) *cobra.Command {
	var (
		now     bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run imports on the configured schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := c.cfg.Schedule.Cron
			if err := scheduler.ValidateSchedule(expr); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := debuglog.Component("serve")
			sched := scheduler.New(scheduler.WithTimeout(timeout))
			if err := sched.AddJob(runJob, expr, c.runOnce); err != nil {
				return err
			}

			sched.Start()
			fmt.Fprintf(cmd.OutOrStdout(), "scheduled %q, press Ctrl+C to stop\n", expr)
			for _, j := range sched.ListJobs() {
				printField(cmd.OutOrStdout(), j.Name, "next at "+j.NextRun.Local().Format(time.RFC1123))
			}
			log.Infof("serving with schedule %q", expr)

			var wg sync.WaitGroup
			if now {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := sched.RunNow(runJob); err != nil {
						log.Errorf("initial run failed: %v", err)
					}
				}()
			}

			<-ctx.Done()
			log.Infof("shutting down")
			<-sched.Stop().Done()
			wg.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "run once immediately on start")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "maximum duration of one run (0 for no limit)")
	return cmd
}

// runOnce reloads the config so saved settings apply to the next run, then
// opens, runs and closes everything. The store stays closed between runs.
func (c *cli) runOnce(ctx context.Context) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.dbPath != "" {
		cfg.Database.Path = c.dbPath
	}

	e, err := openEnv(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := e.newPipeline()
	if err != nil {
		return err
	}
	_, err = p.runner.RunAll(ctx, cfg.Settings)
	return err
}
