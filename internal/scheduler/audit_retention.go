package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/asowa/marketplace/internal/config"
)

const DefaultRetentionSchedule = config.DefaultAuditRetentionSchedule

const purgeTimeout = time.Minute

// EventPurger deletes audit events older than a retention period.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// RetentionConfig controls the audit retention job. A zero Retention
// disables it.
type RetentionConfig struct {
	Retention time.Duration
	Schedule  string
}

// AuditRetentionScheduler periodically purges old audit events.
type AuditRetentionScheduler struct {
	purger EventPurger
	cfg    RetentionConfig
	log    logrus.FieldLogger

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

func newParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
}

// ValidateSchedule validates a five-field cron schedule string.
func ValidateSchedule(schedule string) error {
	_, err := newParser().Parse(schedule)
	return err
}

// NewAuditRetentionScheduler creates a new scheduler instance.
func NewAuditRetentionScheduler(purger EventPurger, cfg RetentionConfig, log logrus.FieldLogger) *AuditRetentionScheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultRetentionSchedule
	}
	return &AuditRetentionScheduler{
		purger: purger,
		cfg:    cfg,
		log:    log,
		cron:   cron.New(cron.WithParser(newParser())),
	}
}

// Start begins the scheduler if retention is enabled.
func (s *AuditRetentionScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.cfg.Retention <= 0 {
		s.log.Info("audit retention: disabled")
		return nil
	}

	if err := ValidateSchedule(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.RunNow(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule retention job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	s.log.WithFields(logrus.Fields{
		"schedule":  s.cfg.Schedule,
		"retention": s.cfg.Retention.String(),
		"next_run":  s.cron.Entry(entryID).Next,
	}).Info("audit retention: started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running purge.
func (s *AuditRetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.log.Info("audit retention: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *AuditRetentionScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next purge will occur, or nil when stopped.
func (s *AuditRetentionScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

// RunNow purges expired events immediately and returns how many were removed.
func (s *AuditRetentionScheduler) RunNow(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	deleted, err := s.purger.DeleteOldEvents(ctx, s.cfg.Retention)
	if err != nil {
		s.log.WithError(err).Error("audit retention: purge failed")
		return 0
	}
	if deleted > 0 {
		s.log.WithField("deleted", deleted).Info("audit retention: purged old events")
	}
	return deleted
}
