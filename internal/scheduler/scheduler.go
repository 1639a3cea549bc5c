// Package scheduler runs jobs on cron schedules, one instance of each job at
// a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pders01/tweetsync/internal/debuglog"
)

// ErrJobRunning is returned by RunNow while the job is already running.
var ErrJobRunning = errors.New("job is already running")

// Job is a scheduled task.
type Job func(ctx context.Context) error

// JobInfo describes a scheduled job.
type JobInfo struct {
	Name     string
	Schedule string
	NextRun  time.Time
	LastRun  time.Time
}

// Scheduler wraps a cron runner. A job whose previous run is still going is
// skipped rather than queued, whether the run came from a tick or RunNow.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	jobs    map[string]*entry
	timeout time.Duration
	base    context.Context
	cancel  context.CancelFunc
	log     *debuglog.FieldLogger
}

type entry struct {
	id       cron.EntryID
	schedule string
	job      Job
	// busy is held for the whole of one run
	busy sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds each job run. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// New creates a stopped scheduler.
func New(opts ...Option) *Scheduler {
	log := debuglog.Component("scheduler")
	base, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		jobs:    make(map[string]*entry),
		timeout: 30 * time.Minute,
		base:    base,
		cancel:  cancel,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}

	cl := cronLogger{log}
	s.cron = cron.New(
		cron.WithChain(cron.Recover(cl)),
		cron.WithLogger(cl),
	)
	return s
}

// AddJob schedules job under name. schedule is a five-field cron expression
// or a descriptor such as "@every 15m" or "@hourly".
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	e := &entry{schedule: schedule, job: job}
	id, err := s.cron.AddFunc(strings.TrimSpace(schedule), func() {
		if err := s.run(name, e); errors.Is(err, ErrJobRunning) {
			s.log.Infof("skipping job %s: previous run still going", name)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	e.id = id

	s.jobs[name] = e
	s.log.Infof("added job %s (schedule: %s)", name, schedule)
	return nil
}

func (s *Scheduler) run(name string, e *entry) error {
	if !e.busy.TryLock() {
		return ErrJobRunning
	}
	defer e.busy.Unlock()

	ctx, cancel := s.jobContext()
	defer cancel()

	s.log.Infof("starting job %s", name)
	start := time.Now()

	if err := e.job(ctx); err != nil {
		s.log.Errorf("job %s failed: %v", name, err)
		return err
	}
	s.log.Infof("job %s completed in %v", name, time.Since(start))
	return nil
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(s.base, s.timeout)
	}
	return context.WithCancel(s.base)
}

// RunNow runs the scheduled job name on the caller's goroutine. It returns
// ErrJobRunning without running anything when a run is already in progress.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not scheduled", name)
	}

	s.log.Infof("running job now: %s", name)
	return s.run(name, e)
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.log.Infof("starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler, cancels running jobs, and returns a context that
// is done once they have returned.
func (s *Scheduler) Stop() context.Context {
	s.log.Infof("stopping scheduler")
	done := s.cron.Stop()
	s.cancel()
	return done
}

// ListJobs returns scheduled jobs sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, e := range s.jobs {
		ce := s.cron.Entry(e.id)
		infos = append(infos, JobInfo{
			Name:     name,
			Schedule: e.schedule,
			NextRun:  ce.Next,
			LastRun:  ce.Prev,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ValidateSchedule reports whether schedule parses as a cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(strings.TrimSpace(schedule)); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// cronLogger routes cron's own messages to debuglog.
type cronLogger struct {
	log *debuglog.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugf("%s%s", msg, formatKV(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorf("%s: %v%s", msg, err, formatKV(keysAndValues))
}

func formatKV(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
