package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/storage"
)

type runStore interface {
	SaveRun(ctx context.Context, run *storage.RunRecord) error
}

// Runner is one scheduled pass: import, then sweep.
type Runner struct {
	importer *Importer
	sweeper  *Sweeper
	runs     runStore
	options
}

func NewRunner(runs runStore, im *Importer, sw *Sweeper, opts ...Option) *Runner {
	return &Runner{importer: im, sweeper: sw, runs: runs, options: buildOptions(opts)}
}

// RunAll imports and then expires items per settings.Expire, and records the
// run. The sweep is skipped when the import hit a store error.
func (r *Runner) RunAll(ctx context.Context, settings config.Settings) (*storage.RunRecord, error) {
	run := &storage.RunRecord{
		ID:        uuid.NewString(),
		StartedAt: r.now(),
	}

	report, err := r.importer.Run(ctx, settings)
	run.Imported = report.Imported
	run.Skipped = report.Skipped
	for _, f := range report.Failures {
		run.Failures = append(run.Failures, f.String())
	}

	if err == nil {
		run.Deleted, err = r.sweeper.Sweep(ctx, settings.Expire)
		if err != nil {
			err = fmt.Errorf("sweeping: %w", err)
		}
	} else {
		err = fmt.Errorf("importing: %w", err)
	}
	if err != nil {
		run.Failures = append(run.Failures, err.Error())
	}

	run.FinishedAt = r.now()
	if saveErr := r.runs.SaveRun(context.WithoutCancel(ctx), run); saveErr != nil {
		r.log.Errorf("recording run %s: %v", run.ID, saveErr)
	}

	r.log.Infof("run %s: imported=%d skipped=%d deleted=%d failures=%d",
		run.ID, run.Imported, run.Skipped, run.Deleted, len(run.Failures))
	return run, err
}
