package digest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"campaigncal/internal/dates"
	appLog "campaigncal/internal/log"
)

const runTimeout = 30 * time.Second

// Scheduler runs the digest on a standard five-field cron spec.
type Scheduler struct {
	cron     *cron.Cron
	src      Source
	profiles Profiles
	spec     string

	// Sink receives every report; Report.Log when nil.
	Sink func(Report)

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

// NewScheduler validates spec and prepares a stopped scheduler.
func NewScheduler(spec string, src Source, p Profiles) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.Local),
			cron.WithChain(
				cron.Recover(cron.DefaultLogger),
				cron.SkipIfStillRunning(cron.DefaultLogger),
			),
		),
		src:      src,
		profiles: p,
		spec:     spec,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("schedule digest: %w", err)
	}
	return s, nil
}

// Start begins running the digest in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()

	entries := s.cron.Entries()
	next := ""
	if len(entries) > 0 {
		next = entries[0].Next.Format(time.RFC3339)
	}
	appLog.Info("digest scheduler started", "schedule", s.spec, "next_run", next)
}

// Stop halts scheduling and waits for a running digest to finish or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		appLog.Info("digest scheduler stopped")
	case <-ctx.Done():
		appLog.Warn("digest scheduler shutdown timeout")
	}
}

// LastRun returns the completion time of the latest successful run.
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	report, err := RunOnce(ctx, s.src, dates.Today(), s.profiles)
	if err != nil {
		appLog.Error("digest run failed", err)
		return
	}

	if s.Sink != nil {
		s.Sink(report)
	} else {
		report.Log()
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()
	appLog.Debug("digest run finished", "duration_ms", time.Since(start).Milliseconds())
}
