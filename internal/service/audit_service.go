package service

import (
	"context"
	"fmt"
	"time"

	"feedesk/internal/access"
	"feedesk/internal/dto"
	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Name     string
	Role     access.Role
}

type AuditService interface {
	// Record appends an audit entry. It never fails the caller's operation:
	// a storage error is logged and dropped.
	Record(ctx context.Context, actor Actor, action, recordID, details string)
	List(ctx context.Context, f dto.AuditFilter) (*dto.AuditPage, error)
}

type auditService struct {
	repo repository.AuditRepository
	loc  *time.Location
	now  func() time.Time
}

func NewAuditService(repo repository.AuditRepository, loc *time.Location) AuditService {
	if loc == nil {
		loc = time.UTC
	}
	return &auditService{repo: repo, loc: loc, now: time.Now}
}

func (s *auditService) Record(ctx context.Context, actor Actor, action, recordID, details string) {
	entry := &model.AuditLog{
		ID:        uuid.New(),
		Timestamp: s.now(),
		Username:  actor.Username,
		Role:      string(actor.Role),
		Action:    action,
		RecordID:  recordID,
		Details:   details,
	}
	if actor.UserID != uuid.Nil {
		id := actor.UserID
		entry.UserID = &id
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("action", action).
			Str("record_id", recordID).
			Str("username", actor.Username).
			Msg("audit: failed to append entry")
	}
}

func (s *auditService) List(ctx context.Context, f dto.AuditFilter) (*dto.AuditPage, error) {
	filter := repository.AuditFilter{
		Action:   f.Action,
		Username: f.Username,
		Page:     f.Page,
		Limit:    f.Limit,
	}
	if f.From != "" {
		from, err := time.ParseInLocation(model.DateLayout, f.From, s.loc)
		if err != nil {
			return nil, fmt.Errorf("from %q: %w", f.From, ErrInvalidDate)
		}
		filter.From = &from
	}
	if f.To != "" {
		to, err := time.ParseInLocation(model.DateLayout, f.To, s.loc)
		if err != nil {
			return nil, fmt.Errorf("to %q: %w", f.To, ErrInvalidDate)
		}
		// inclusive day: everything before the following midnight
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	_, limit := repository.Paginate(f.Page, f.Limit)
	page := max(f.Page, 1)

	out := make([]dto.AuditLogResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.AuditLogResponse{
			ID:        e.ID.String(),
			Timestamp: e.Timestamp.Format(time.RFC3339),
			Username:  e.Username,
			Role:      e.Role,
			Action:    e.Action,
			RecordID:  e.RecordID,
			Details:   e.Details,
		}
		if e.UserID != nil {
			out[i].UserID = e.UserID.String()
		}
	}
	return &dto.AuditPage{Data: out, Total: total, Page: page, Limit: limit}, nil
}
