// Package scheduler runs the periodic slate refresh.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/mlb-predictor/internal/service"
)

// Parser accepts five-field expressions, an optional leading seconds field
// and descriptors such as @hourly.
var Parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var (
	// ErrRunning indicates a change was attempted while the scheduler runs
	ErrRunning = errors.New("scheduler is running")

	// ErrNoJobs indicates Start was called with nothing scheduled
	ErrNoJobs = errors.New("no jobs scheduled")
)

// SlateRefresher rebuilds the daily slate.
type SlateRefresher interface {
	Refresh(ctx context.Context) (*service.Slate, error)
}

// Scheduler manages scheduled slate refresh jobs
type Scheduler struct {
	cron       *cron.Cron
	logger     *logrus.Entry
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
	jobTimeout time.Duration
}

// NewScheduler creates a new scheduler evaluating expressions in loc
func NewScheduler(loc *time.Location, logger *logrus.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithField("component", "scheduler")

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(Parser),
			cron.WithChain(cron.Recover(cron.PrintfLogger(entry)), cron.SkipIfStillRunning(cron.PrintfLogger(entry))),
		),
		logger:     entry,
		jobIDs:     make([]cron.EntryID, 0),
		jobTimeout: 2 * time.Minute,
	}
}

// SetJobTimeout bounds each job run
func (s *Scheduler) SetJobTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobTimeout = d
}

// ScheduleSlateRefresh refreshes the slate on the given cron expression
func (s *Scheduler) ScheduleSlateRefresh(cronExpression string, refresher SlateRefresher) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return 0, fmt.Errorf("cannot schedule job: %w", ErrRunning)
	}

	schedule, err := Parser.Parse(cronExpression)
	if err != nil {
		return 0, fmt.Errorf("failed to parse cron expression %q: %w", cronExpression, err)
	}

	entryID := s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.runRefresh(refresher)
	}))

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled slate refresh")

	return entryID, nil
}

func (s *Scheduler) runRefresh(refresher SlateRefresher) {
	s.mu.RLock()
	timeout := s.jobTimeout
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	slate, err := refresher.Refresh(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled slate refresh failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"date":        slate.Date,
		"games":       len(slate.Rows),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Scheduled slate refresh completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot start: %w", ErrRunning)
	}

	if len(s.jobIDs) == 0 {
		return ErrNoJobs
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler, waiting up to ctx for running jobs to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(jobID cron.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job: %w", ErrRunning)
	}

	s.cron.Remove(jobID)
	for i, id := range s.jobIDs {
		if id == jobID {
			s.jobIDs = append(s.jobIDs[:i], s.jobIDs[i+1:]...)
			break
		}
	}
	s.logger.WithField("job_id", jobID).Info("Removed job")

	return nil
}
