package audit

import (
	"encoding/json"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

// Entry describes a mutation to record.
type Entry struct {
	UserID      uint
	EventType   entities.AuditEventType
	Action      string
	Description string
	EntityType  string
	EntityID    uint
	RequestID   string
	IPAddress   string
	Metadata    map[string]any
	Err         error
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Warn().Err(err).Str("action", event.Action).Msg("Failed to log audit event")
		}
	}()
}

// Wait blocks until every event handed to LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Record converts e into an event and logs it asynchronously.
func (s *Service) Record(e Entry) {
	event := &entities.AuditEvent{
		UserID:      e.UserID,
		EventType:   e.EventType,
		Action:      e.Action,
		Description: truncate(e.Description, 500),
		EntityType:  e.EntityType,
		RequestID:   e.RequestID,
		IPAddress:   e.IPAddress,
		Status:      entities.AuditStatusSuccess,
	}
	if e.EntityID != 0 {
		id := e.EntityID
		event.EntityID = &id
	}
	if len(e.Metadata) > 0 {
		if md, err := json.Marshal(e.Metadata); err == nil {
			event.Metadata = string(md)
		}
	}
	if e.Err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(e.Err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action, ipAddr, requestID string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		RequestID: requestID,
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogMaintenance records the outcome of a background maintenance run.
func (s *Service) LogMaintenance(action, description string, metadata map[string]any, err error) {
	s.Record(Entry{
		UserID:      entities.AdminAccountID,
		EventType:   entities.AuditEventMaintenance,
		Action:      action,
		Description: description,
		Metadata:    metadata,
		Err:         err,
	})
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
