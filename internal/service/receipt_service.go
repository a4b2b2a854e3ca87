package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedesk/internal/dto"
	"feedesk/internal/model"
	"feedesk/internal/repository"
)

// ReceiptService is the read side of the ledger. Reprint renders the stored
// receipt again; it never creates or changes one.
type ReceiptService interface {
	Find(ctx context.Context, receiptNo string) (*dto.ReceiptResponse, error)
	Search(ctx context.Context, term string, limit int) ([]dto.ReceiptResponse, error)
	ForStudent(ctx context.Context, q repository.StudentQuery) ([]dto.ReceiptResponse, error)
	Reprint(ctx context.Context, actor Actor, receiptNo string) (*dto.ReprintResponse, error)
}

type receiptService struct {
	ledger      repository.ReceiptLedger
	audit       AuditService
	institution string
	now         func() time.Time
}

func NewReceiptService(ledger repository.ReceiptLedger, audit AuditService, institution string) ReceiptService {
	return &receiptService{ledger: ledger, audit: audit, institution: institution, now: time.Now}
}

func (s *receiptService) Find(ctx context.Context, receiptNo string) (*dto.ReceiptResponse, error) {
	rec, err := s.find(ctx, receiptNo)
	if err != nil {
		return nil, err
	}
	resp := toReceiptResponse(*rec)
	return &resp, nil
}

// Search with an empty term lists the most recent receipts.
func (s *receiptService) Search(ctx context.Context, term string, limit int) ([]dto.ReceiptResponse, error) {
	recs, err := s.ledger.Search(ctx, strings.TrimSpace(term), limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReceiptResponse, len(recs))
	for i, r := range recs {
		out[i] = toReceiptResponse(r)
	}
	return out, nil
}

func (s *receiptService) ForStudent(ctx context.Context, q repository.StudentQuery) ([]dto.ReceiptResponse, error) {
	out := []dto.ReceiptResponse{}
	for rec, err := range s.ledger.FindByStudent(ctx, q) {
		if err != nil {
			return nil, err
		}
		out = append(out, toReceiptResponse(rec))
	}
	return out, nil
}

func (s *receiptService) Reprint(ctx context.Context, actor Actor, receiptNo string) (*dto.ReprintResponse, error) {
	rec, err := s.find(ctx, receiptNo)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, model.ActionReceiptReprint, rec.ReceiptNo, rec.RollNumber)
	return &dto.ReprintResponse{
		Receipt:     toReceiptResponse(*rec),
		Institution: s.institution,
		Copy:        "DUPLICATE",
		ReprintedBy: actor.Name,
		ReprintedAt: formatTime(s.now()),
	}, nil
}

func (s *receiptService) find(ctx context.Context, receiptNo string) (*model.Receipt, error) {
	rec, err := s.ledger.FindByReceiptNo(ctx, receiptNo)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("receipt %s: %w", receiptNo, ErrNotFound)
	}
	return rec, err
}
