// Package scheduler owns the recurring newsletter generation job: the weekly
// rule, the background poll loop, topic-set deduplication, and run
// bookkeeping.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ai-newsletter/internal/ai"
	"ai-newsletter/internal/email"
	"ai-newsletter/internal/model"
)

var (
	// ErrAlreadyRunning is returned by Start on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler is already running")
	// ErrNotRunning is returned by Stop on a stopped scheduler.
	ErrNotRunning = errors.New("scheduler is not running")
)

// Store is the durable subscription and run-log storage the scheduler
// consumes.
type Store interface {
	ListActiveSubscribers(ctx context.Context) ([]model.Subscriber, error)
	AppendRunLog(ctx context.Context, records []model.RunRecord) error
	CountRunsForDay(ctx context.Context, day time.Time) (int64, error)
}

// Dispatcher delivers a rendered newsletter to a recipient list.
type Dispatcher interface {
	IsConfigured(ctx context.Context) bool
	Dispatch(ctx context.Context, subject, html string, listID int) error
}

// Status is a snapshot of scheduler bookkeeping. Reading it never blocks on
// an in-progress generation pass.
type Status struct {
	Running       bool
	LastRun       *time.Time
	NextRun       *time.Time
	ScheduledJobs int
}

// Report summarizes one generation pass.
type Report struct {
	NewslettersGenerated   int
	UniqueContentGenerated int
	SubscribersReached     int
}

// Options configure a Scheduler beyond its collaborators.
type Options struct {
	CronSpec     string        // standard 5-field expression; default "0 9 * * 1"
	PollInterval time.Duration // default 60s
	ListID       int           // mail dispatch recipient list
	Logger       *slog.Logger
	Clock        func() time.Time
}

// Scheduler runs the weekly generation pass and exposes idempotent
// start/stop/status/manual-trigger semantics safe to call concurrently with
// the poll loop.
type Scheduler struct {
	store  Store
	gen    ai.Generator
	mailer Dispatcher
	render func(model.Content) (string, error)
	listID int

	cronSpec     string
	pollInterval time.Duration
	log          *slog.Logger
	now          func() time.Time

	mu      sync.Mutex
	running bool
	rules   []rule
	lastRun time.Time
	nextRun time.Time
	stopc   chan struct{}
}

// New constructs a stopped scheduler. mailer may be nil for a
// generate-but-don't-send deployment.
func New(store Store, gen ai.Generator, mailer Dispatcher, opts Options) *Scheduler {
	if opts.CronSpec == "" {
		opts.CronSpec = "0 9 * * 1"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Scheduler{
		store:        store,
		gen:          gen,
		mailer:       mailer,
		render:       email.Render,
		listID:       opts.ListID,
		cronSpec:     opts.CronSpec,
		pollInterval: opts.PollInterval,
		log:          opts.Logger,
		now:          opts.Clock,
	}
}

// Start registers the weekly rule and launches the background poll loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	now := s.now()
	r, err := parseRule(s.cronSpec, now)
	if err != nil {
		return err
	}
	// Replaces any previously registered rules: exactly one weekly rule.
	s.rules = []rule{r}
	s.nextRun = r.next
	s.running = true
	s.stopc = make(chan struct{})
	go s.loop(s.stopc)
	s.log.Info("scheduler: started", "cron", s.cronSpec, "next_run", r.next)
	return nil
}

// Stop unregisters all rules and signals the poll loop to exit after its
// current iteration. An in-flight pass is not aborted.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	s.running = false
	s.rules = nil
	s.nextRun = time.Time{}
	close(s.stopc)
	s.stopc = nil
	s.log.Info("scheduler: stopped")
	return nil
}

// Status returns cached bookkeeping fields only.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Running:       s.running,
		ScheduledJobs: len(s.rules),
	}
	if !s.lastRun.IsZero() {
		t := s.lastRun
		st.LastRun = &t
	}
	if !s.nextRun.IsZero() {
		t := s.nextRun
		st.NextRun = &t
	}
	return st
}

// RunNow executes one generation pass inline on the caller's goroutine,
// regardless of whether the scheduler is running. It does not alter the
// recurring schedule. A concurrent scheduled pass is not excluded; each pass
// is internally sequential and the run log tolerates concurrent appends.
func (s *Scheduler) RunNow(ctx context.Context) (Report, error) {
	return s.runPass(ctx)
}

func (s *Scheduler) loop(stopc chan struct{}) {
	t := time.NewTicker(s.pollInterval)
	defer t.Stop()
	for {
		select {
		case <-stopc:
			return
		case <-t.C:
			s.tick(context.Background())
		}
	}
}

// tick fires due rules and recomputes the next firing time. Any pass failure
// is logged and swallowed so the loop keeps scheduling future runs.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	due := fireDue(s.rules, now)
	if next, ok := nextFire(s.rules); ok {
		s.nextRun = next
	} else {
		s.nextRun = time.Time{}
	}
	s.mu.Unlock()
	if !due {
		return
	}
	if rep, err := s.runPass(ctx); err != nil {
		s.log.Error("scheduler: scheduled pass failed", "err", err)
	} else {
		s.log.Info("scheduler: scheduled pass completed",
			"newsletters", rep.NewslettersGenerated,
			"unique_content", rep.UniqueContentGenerated)
	}
}
