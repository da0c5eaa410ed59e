package service

import (
	"club-marketplace/internal/apperror"
	"club-marketplace/internal/config"
	"club-marketplace/internal/model"
	"club-marketplace/internal/repository"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RewardService interface {
	// AwardSalePoints grants sale points for one delivered line item.
	AwardSalePoints(ctx context.Context, item *model.OrderItem) error
	// AwardMilestones grants any sale-count milestone bonuses the club has
	// reached but not yet been granted.
	AwardMilestones(ctx context.Context, clubID uint) error
	AwardFastShipping(ctx context.Context, clubID, itemID uint) error
	RecordReview(ctx context.Context, clubID, reviewID uint, productName string, rating int) error
	AdjustPoints(ctx context.Context, clubID uint, delta int64, reason string, actorID uint) error
	GetLedger(ctx context.Context, clubID uint, limit, offset int) ([]*model.RewardEntry, error)
}

type rewardServiceImpl struct {
	db         *gorm.DB
	cfg        config.Rewards
	resolver   *TierResolver
	clubRepo   repository.ClubRepository
	rewardRepo repository.RewardRepository
	log        *logrus.Logger
}

const (
	defaultSaleAmountStep    = 100
	defaultSalePointsPerStep = 10
)

func NewRewardService(
	db *gorm.DB,
	cfg config.Rewards,
	resolver *TierResolver,
	clubRepo repository.ClubRepository,
	rewardRepo repository.RewardRepository,
	log *logrus.Logger,
) RewardService {
	if cfg.SaleAmountStep <= 0 || cfg.SalePointsPerStep < 0 {
		log.WithFields(logrus.Fields{
			"amount_step":     cfg.SaleAmountStep,
			"points_per_step": cfg.SalePointsPerStep,
		}).Warn("invalid sale reward configuration, using defaults")
		cfg.SaleAmountStep = defaultSaleAmountStep
		cfg.SalePointsPerStep = defaultSalePointsPerStep
	}

	return &rewardServiceImpl{
		db:         db,
		cfg:        cfg,
		resolver:   resolver,
		clubRepo:   clubRepo,
		rewardRepo: rewardRepo,
		log:        log,
	}
}

// errAlreadyGranted aborts a grant transaction without treating the event as
// a failure; a one-shot bonus that already exists is simply skipped.
var errAlreadyGranted = errors.New("reward already granted")

type grantRequest struct {
	clubID      uint
	action      model.RewardAction
	points      int64
	description string
	reference   string
	idemKey     string // empty for repeatable actions
	actorID     *uint
}

// grant writes the ledger row and the point delta in one transaction, then
// recomputes the club's tier against the new balance. The club row is locked
// first so concurrent events for the same club serialize.
func (s *rewardServiceImpl) grant(ctx context.Context, req grantRequest) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		club, err := s.clubRepo.FindByIDForUpdate(ctx, tx, req.clubID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("club %d not found", req.clubID)
			}
			return fmt.Errorf("load club: %w", err)
		}

		entry := &model.RewardEntry{
			ClubID:      club.ID,
			Action:      req.action,
			Points:      req.points,
			Description: req.description,
			Reference:   req.reference,
			ActorID:     req.actorID,
		}

		if req.idemKey != "" {
			exists, err := s.rewardRepo.ExistsKey(ctx, tx, club.ID, req.idemKey)
			if err != nil {
				return fmt.Errorf("idempotency check: %w", err)
			}
			if exists {
				return errAlreadyGranted
			}
			key := req.idemKey
			entry.IdempotencyKey = &key
		}

		if err := s.rewardRepo.Create(ctx, tx, entry); err != nil {
			// Unique index on (club_id, idempotency_key) backstops the
			// existence check under concurrent grants.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyGranted
			}
			return fmt.Errorf("write reward entry: %w", err)
		}

		if err := s.clubRepo.AddPoints(ctx, tx, club.ID, req.points); err != nil {
			return fmt.Errorf("apply point delta: %w", err)
		}

		fresh, err := s.clubRepo.FindByIDForUpdate(ctx, tx, club.ID)
		if err != nil {
			return fmt.Errorf("reload club: %w", err)
		}

		tier := s.resolver.Resolve(fresh.RewardPoints)
		if tier != fresh.Tier {
			if err := s.clubRepo.UpdateTier(ctx, tx, club.ID, tier); err != nil {
				return fmt.Errorf("update tier: %w", err)
			}
		}

		return nil
	})

	if errors.Is(err, errAlreadyGranted) {
		return nil
	}

	return err
}

func (s *rewardServiceImpl) AwardSalePoints(ctx context.Context, item *model.OrderItem) error {
	points := item.Subtotal / s.cfg.SaleAmountStep * s.cfg.SalePointsPerStep
	if points <= 0 {
		return nil
	}

	return s.grant(ctx, grantRequest{
		clubID:      item.ClubID,
		action:      model.RewardSale,
		points:      points,
		description: fmt.Sprintf("Sale of %s (order item #%d)", item.ProductName, item.ID),
		reference:   fmt.Sprintf("order_item:%d", item.ID),
	})
}

func (s *rewardServiceImpl) AwardMilestones(ctx context.Context, clubID uint) error {
	club, err := s.clubRepo.FindByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("club %d not found", clubID)
		}
		return err
	}

	milestones := []struct {
		threshold int64
		action    model.RewardAction
		bonus     int64
	}{
		{1, model.RewardFirstSale, s.cfg.FirstSaleBonus},
		{10, model.RewardMilestone10, s.cfg.Milestone10Bonus},
		{50, model.RewardMilestone50, s.cfg.Milestone50Bonus},
		{100, model.RewardMilestone100, s.cfg.Milestone100Bonus},
	}

	for _, m := range milestones {
		if club.TotalSales < m.threshold {
			break
		}

		err := s.grant(ctx, grantRequest{
			clubID:      clubID,
			action:      m.action,
			points:      m.bonus,
			description: fmt.Sprintf("Completed sale milestone: %d", m.threshold),
			idemKey:     string(m.action),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *rewardServiceImpl) AwardFastShipping(ctx context.Context, clubID, itemID uint) error {
	return s.grant(ctx, grantRequest{
		clubID:      clubID,
		action:      model.RewardFastShipping,
		points:      s.cfg.FastShippingPoints,
		description: fmt.Sprintf("Fast shipping on order item #%d", itemID),
		reference:   fmt.Sprintf("order_item:%d", itemID),
		idemKey:     fmt.Sprintf("fast_shipping:%d", itemID),
	})
}

func (s *rewardServiceImpl) RecordReview(ctx context.Context, clubID, reviewID uint, productName string, rating int) error {
	if rating < 1 || rating > 5 {
		return apperror.Validation("rating must be between 1 and 5")
	}
	// Only a five-star review earns points. Review uniqueness per (order
	// line, reviewer) is enforced where the review itself is stored.
	if rating != 5 {
		return nil
	}

	return s.grant(ctx, grantRequest{
		clubID:      clubID,
		action:      model.RewardFiveStarReview,
		points:      s.cfg.FiveStarReviewPoints,
		description: fmt.Sprintf("Five star review on %s", productName),
		reference:   fmt.Sprintf("review:%d", reviewID),
	})
}

func (s *rewardServiceImpl) AdjustPoints(ctx context.Context, clubID uint, delta int64, reason string, actorID uint) error {
	if delta == 0 {
		return apperror.Validation("adjustment delta must be non-zero")
	}
	if reason == "" {
		return apperror.Validation("adjustment reason is required")
	}

	action := model.RewardManualAddition
	if delta < 0 {
		action = model.RewardManualDeduction
	}

	return s.grant(ctx, grantRequest{
		clubID:      clubID,
		action:      action,
		points:      delta,
		description: reason,
		actorID:     &actorID,
	})
}

func (s *rewardServiceImpl) GetLedger(ctx context.Context, clubID uint, limit, offset int) ([]*model.RewardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return s.rewardRepo.ListByClub(ctx, clubID, limit, offset)
}
