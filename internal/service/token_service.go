package service

import (
	"context"

	"ticket-reservation/internal/model"
	"ticket-reservation/internal/repository"
	"ticket-reservation/pkg/logger"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TokenService issues and binds the limited-use discount codes of
// access-restricted categories.
type TokenService interface {
	BindTokens(ctx context.Context, tx pgx.Tx, category *model.TicketCategory, sessionID string, attendeeCount int) ([]*model.SpecialPrice, error)
}

type TokenServiceImpl struct {
	specialPriceRepository repository.SpecialPriceRepository
}

func NewTokenService(specialPriceRepository repository.SpecialPriceRepository) TokenService {
	return &TokenServiceImpl{specialPriceRepository: specialPriceRepository}
}

// BindTokens tops the category's code pool up to its capacity, then
// transitions up to attendeeCount FREE codes to PENDING under the session.
// When fewer codes than attendees can be minted the shorter list is returned
// as-is: tokens run out silently and the surplus attendees get tickets
// without a discount code.
func (s *TokenServiceImpl) BindTokens(ctx context.Context, tx pgx.Tx, category *model.TicketCategory, sessionID string, attendeeCount int) ([]*model.SpecialPrice, error) {
	existing, err := s.specialPriceRepository.CountByCategory(ctx, tx, category.ID)
	if err != nil {
		return nil, err
	}

	if missing := category.MaxTickets - existing; missing > 0 {
		if err := s.specialPriceRepository.BulkGenerate(ctx, tx, category.ID, missing); err != nil {
			return nil, err
		}
	}

	codes, err := s.specialPriceRepository.FindActiveUnassigned(ctx, tx, category.ID, attendeeCount)
	if err != nil {
		return nil, err
	}

	if len(codes) < attendeeCount {
		logger.WithComponent("token_service").Warn("discount codes exhausted, under-provisioning",
			zap.Int("category_id", category.ID),
			zap.Int("attendees", attendeeCount),
			zap.Int("codes", len(codes)),
		)
	}

	for _, code := range codes {
		if err := s.specialPriceRepository.BindToSession(ctx, tx, code.ID, sessionID); err != nil {
			return nil, err
		}
		code.Status = model.SpecialPriceStatusPending
		code.SessionID = sessionID
	}

	return codes, nil
}
