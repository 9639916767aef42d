package service

import (
	"context"
	"fmt"

	"github.com/launchbase/auth-platform/internal/core/domain"
	"github.com/launchbase/auth-platform/internal/core/ports"
)

// MongoAuditService persists auth audit events through an AuditRepository.
// It is the terminal consumer of the audit dispatcher's worker channels.
type MongoAuditService struct {
	repo ports.AuditRepository
}

func NewAuditService(repo ports.AuditRepository) *MongoAuditService {
	return &MongoAuditService{repo: repo}
}

func (s *MongoAuditService) Record(ctx context.Context, event domain.AuthEvent) error {
	if event.Type == "" {
		return fmt.Errorf("audit: missing event type")
	}
	if err := s.repo.Insert(ctx, event); err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}
