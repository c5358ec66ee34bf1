// Package audit records security-relevant events: authentication outcomes,
// account provisioning and admin changes to the design catalogue.
//
// Recording methods are safe on a nil *Service. Handler-path events are
// written asynchronously so a slow audit table never delays a response; call
// Wait before shutdown to flush them.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	auditRepo "github.com/asowa/marketplace/internal/database/audit"
	"github.com/asowa/marketplace/internal/entities"
)

// Actions recorded by the application.
const (
	ActionRegister     = "register"
	ActionLogin        = "login"
	ActionLoginLocked  = "login_locked"
	ActionAdminCreate  = "admin_create"
	ActionDesignCreate = "design_create"
	ActionDesignUpdate = "design_update"
	ActionDesignDelete = "design_delete"
)

const asyncWriteTimeout = 5 * time.Second

// maxEmailLength caps client-supplied login emails before they are stored.
const maxEmailLength = 254

// Store persists and queries audit events.
type Store interface {
	LogEvent(ctx context.Context, event *entities.AuditEvent) error
	List(ctx context.Context, filter auditRepo.Filter) ([]entities.AuditEvent, int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo Store
	log  logrus.FieldLogger
	now  func() time.Time
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo Store, log logrus.FieldLogger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Log records an event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	if s == nil {
		return nil
	}
	if err := s.repo.LogEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// LogAsync records an event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	if s == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), asyncWriteTimeout)
		defer cancel()
		if err := s.repo.LogEvent(ctx, event); err != nil {
			s.log.WithError(err).WithField("action", event.Action).Warn("failed to log audit event")
		}
	}()
}

// Wait blocks until all pending asynchronous writes have finished.
func (s *Service) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// LogAuth records a login, registration or lockout. accountID is 0 when the
// credentials did not resolve to an account.
func (s *Service) LogAuth(accountID uint, action, email, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		AccountID:   accountID,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: truncate(email, maxEmailLength),
		IPAddress:   truncate(ipAddr, 45),
		UserAgent:   truncate(userAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}
	if accountID > 0 {
		event.EntityType = "account"
		event.EntityID = &accountID
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogDesign records an admin change to the catalogue.
func (s *Service) LogDesign(actorID uint, action string, designID uint, name string) {
	s.LogAsync(&entities.AuditEvent{
		AccountID:   actorID,
		EventType:   entities.AuditEventDesign,
		Action:      action,
		Description: truncate(name, 500),
		EntityType:  "design",
		EntityID:    &designID,
		Status:      entities.AuditStatusSuccess,
	})
}

// AccountCreated builds the event for an account provisioned out of band.
func AccountCreated(account *entities.Account, action string) *entities.AuditEvent {
	id := account.ID
	return &entities.AuditEvent{
		EventType:   entities.AuditEventAccount,
		Action:      action,
		Description: truncate(account.Email, 500),
		EntityType:  "account",
		EntityID:    &id,
		Status:      entities.AuditStatusSuccess,
	}
}

// Events retrieves paginated audit events.
func (s *Service) Events(ctx context.Context, filter auditRepo.Filter) ([]entities.AuditEvent, int64, error) {
	if s == nil {
		return nil, 0, nil
	}
	return s.repo.List(ctx, filter)
}

// DeleteOldEvents removes events older than retention.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	if s == nil || retention <= 0 {
		return 0, nil
	}
	return s.repo.DeleteOlderThan(ctx, s.now().Add(-retention))
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	const ellipsis = "..."
	suffix := ellipsis
	cut := maxLen - len(ellipsis)
	if cut <= 0 {
		suffix = ""
		cut = max(maxLen, 0)
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
