package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Enqueuer hands tasks to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// MaintenanceScheduler periodically enqueues the series verification and
// audit cleanup tasks.
type MaintenanceScheduler struct {
	queue         Enqueuer
	config        config.Maintenance
	retentionDays int

	cron      *cron.Cron
	mu        sync.RWMutex
	entries   map[string]cron.EntryID
	isRunning bool
}

// NewMaintenanceScheduler creates a new scheduler instance
func NewMaintenanceScheduler(queue Enqueuer, cfg config.Maintenance, retentionDays int) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		queue:         queue,
		config:        cfg,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithParser(parser)),
		entries:       make(map[string]cron.EntryID),
	}
}

// ValidateSchedule reports whether schedule is a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Start schedules the maintenance jobs and runs the cron loop until ctx
// is cancelled. It returns immediately when maintenance is disabled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}

	if !s.config.Enabled {
		s.mu.Unlock()
		log.Info().Msg("Maintenance scheduler: disabled")
		return nil
	}

	jobs := []struct {
		name     string
		schedule string
		task     func() backlite.Task
	}{
		{"verify_series", s.config.SeriesSchedule, func() backlite.Task { return tasks.VerifySeriesTask{} }},
		{"cleanup_audit_events", s.config.CleanupSchedule, func() backlite.Task {
			return tasks.CleanupAuditEventsTask{RetentionDays: s.retentionDays}
		}},
	}

	for _, job := range jobs {
		if job.schedule == "" {
			continue
		}
		if err := ValidateSchedule(job.schedule); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.schedule, job.name, err)
		}

		name, newTask := job.name, job.task
		id, err := s.cron.AddFunc(job.schedule, func() { s.enqueue(ctx, name, newTask()) })
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}
		s.entries[name] = id
	}

	s.cron.Start()
	s.isRunning = true
	s.mu.Unlock()

	for name := range s.entries {
		log.Info().Str("job", name).Time("next_run", *s.NextRun(name)).Msg("Maintenance scheduler: job scheduled")
	}

	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop gracefully stops the scheduler
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	<-s.cron.Stop().Done()
	s.isRunning = false

	log.Info().Msg("Maintenance scheduler: stopped")
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job will next fire, or nil when it is not
// scheduled.
func (s *MaintenanceScheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.entries[name]
	if !ok || !s.isRunning {
		return nil
	}
	next := s.cron.Entry(id).Next
	return &next
}

func (s *MaintenanceScheduler) enqueue(ctx context.Context, name string, task backlite.Task) {
	id, err := s.queue.Enqueue(ctx, task)
	if err != nil {
		log.Error().Err(err).Str("job", name).Msg("Maintenance scheduler: failed to enqueue task")
		return
	}
	log.Info().Str("job", name).Str("task_id", id).Msg("Maintenance scheduler: task enqueued")
}
