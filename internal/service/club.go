package service

import (
	"club-marketplace/internal/apperror"
	"club-marketplace/internal/model"
	"club-marketplace/internal/repository"
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TierInfo struct {
	ClubID         uint            `json:"club_id"`
	Tier           model.Tier      `json:"tier"`
	Points         int64           `json:"points"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Progress       TierProgress    `json:"progress"`
}

type ClubService interface {
	GetTierInfo(ctx context.Context, clubID uint) (*TierInfo, error)
}

type clubServiceImpl struct {
	resolver *TierResolver
	clubRepo repository.ClubRepository
}

func NewClubService(resolver *TierResolver, clubRepo repository.ClubRepository) ClubService {
	return &clubServiceImpl{
		resolver: resolver,
		clubRepo: clubRepo,
	}
}

func (s *clubServiceImpl) GetTierInfo(ctx context.Context, clubID uint) (*TierInfo, error) {
	club, err := s.clubRepo.FindByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("club %d not found", clubID)
		}
		return nil, err
	}

	return &TierInfo{
		ClubID:         club.ID,
		Tier:           club.Tier,
		Points:         club.RewardPoints,
		CommissionRate: s.resolver.CommissionRate(club.Tier),
		Progress:       s.resolver.Progress(club.RewardPoints),
	}, nil
}
