package service

import (
	"club-marketplace/internal/apperror"
	"club-marketplace/internal/model"
	"club-marketplace/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PayoutProjection is the read-only answer to "what would this club be paid
// right now".
type PayoutProjection struct {
	ClubID         uint            `json:"club_id"`
	Gross          int64           `json:"gross"`
	Net            decimal.Decimal `json:"net"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Tier           model.Tier      `json:"tier"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	ItemCount      int             `json:"item_count"`

	itemIDs []uint
}

type PayoutService interface {
	ProjectPendingPayout(ctx context.Context, clubID uint) (*PayoutProjection, error)
	// ProcessPayout records an administratively agreed payout as paid,
	// covering the same period the projection would propose.
	ProcessPayout(ctx context.Context, clubID uint, amount decimal.Decimal, method, reference string) (*model.Payout, error)
	// BatchSettle creates one pending payout per club with a positive gross
	// amount due. Each still needs a per-club confirmation before funds move.
	BatchSettle(ctx context.Context) ([]*model.Payout, error)
	ConfirmPayout(ctx context.Context, payoutID uint, method, reference string) error
	FailPayout(ctx context.Context, payoutID uint) error
	ListPayouts(ctx context.Context, clubID uint) ([]*model.Payout, error)
}

type payoutServiceImpl struct {
	db         *gorm.DB
	resolver   *TierResolver
	clubRepo   repository.ClubRepository
	payoutRepo repository.PayoutRepository
	log        *logrus.Logger
}

func NewPayoutService(
	db *gorm.DB,
	resolver *TierResolver,
	clubRepo repository.ClubRepository,
	payoutRepo repository.PayoutRepository,
	log *logrus.Logger,
) PayoutService {
	return &payoutServiceImpl{
		db:         db,
		resolver:   resolver,
		clubRepo:   clubRepo,
		payoutRepo: payoutRepo,
		log:        log,
	}
}

// project computes the pending settlement for a club inside tx. Settlement is
// item-level: an item already stamped with a payout never shows up again, no
// matter when it was delivered or when its payment cleared.
func (s *payoutServiceImpl) project(ctx context.Context, tx *gorm.DB, club *model.Club) (*PayoutProjection, error) {
	paid, err := s.payoutRepo.PaidByClub(ctx, tx, club.ID)
	if err != nil {
		return nil, fmt.Errorf("load paid payouts: %w", err)
	}

	items, err := s.payoutRepo.SettledItems(ctx, tx, club.ID)
	if err != nil {
		return nil, fmt.Errorf("load settled items: %w", err)
	}

	now := time.Now()
	gross := int64(0)
	itemIDs := make([]uint, 0, len(items))
	var earliest time.Time

	for _, item := range items {
		if len(itemIDs) == 0 || item.DeliveredAt.Before(earliest) {
			earliest = *item.DeliveredAt
		}
		gross += item.Subtotal
		itemIDs = append(itemIDs, item.ID)
	}

	// The next period normally starts where the last paid one ended; it
	// stretches backward when an older delivery only became payable now, so
	// the recorded span always covers everything summed into the gross.
	periodStart := now
	if len(paid) > 0 {
		periodStart = paid[len(paid)-1].PeriodEnd
	}
	if len(itemIDs) > 0 && earliest.Before(periodStart) {
		periodStart = earliest
	}

	rate := s.resolver.CommissionRate(club.Tier)
	net := decimal.NewFromInt(gross).
		Mul(decimal.NewFromInt(1).Sub(rate)).
		Round(2)

	return &PayoutProjection{
		ClubID:         club.ID,
		Gross:          gross,
		Net:            net,
		CommissionRate: rate,
		Tier:           club.Tier,
		PeriodStart:    periodStart,
		PeriodEnd:      now,
		ItemCount:      len(itemIDs),
		itemIDs:        itemIDs,
	}, nil
}

func (s *payoutServiceImpl) ProjectPendingPayout(ctx context.Context, clubID uint) (*PayoutProjection, error) {
	club, err := s.clubRepo.FindByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("club %d not found", clubID)
		}
		return nil, fmt.Errorf("load club: %w", err)
	}

	return s.project(ctx, s.db, club)
}

func (s *payoutServiceImpl) ProcessPayout(ctx context.Context, clubID uint, amount decimal.Decimal, method, reference string) (*model.Payout, error) {
	if !amount.IsPositive() {
		return nil, apperror.Validation("payout amount must be positive")
	}
	if method == "" {
		return nil, apperror.Validation("payment method is required")
	}

	var payout *model.Payout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The club row lock serializes payout computation per club so two
		// concurrent settlements cannot both claim the same items.
		club, err := s.clubRepo.FindByIDForUpdate(ctx, tx, clubID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("club %d not found", clubID)
			}
			return fmt.Errorf("load club: %w", err)
		}

		proj, err := s.project(ctx, tx, club)
		if err != nil {
			return err
		}
		if proj.Gross <= 0 {
			return apperror.Validation("club %d has nothing to settle", clubID)
		}

		now := time.Now()
		payout = &model.Payout{
			ClubID:         clubID,
			GrossAmount:    proj.Gross,
			Amount:         amount,
			CommissionRate: proj.CommissionRate,
			TierAtPayout:   proj.Tier,
			PeriodStart:    proj.PeriodStart,
			PeriodEnd:      proj.PeriodEnd,
			Status:         model.PayoutPaid,
			Method:         method,
			Reference:      reference,
			PaidAt:         &now,
		}

		if err := s.payoutRepo.Create(ctx, tx, payout); err != nil {
			return fmt.Errorf("store payout: %w", err)
		}
		return s.claimItems(ctx, tx, payout.ID, proj.itemIDs)
	})
	if err != nil {
		return nil, err
	}

	return payout, nil
}

// claimItems stamps every projected item with the new payout. A shortfall
// means another payout claimed some of them after the projection, which the
// club row lock should have ruled out; failing the transaction keeps each
// item settled at most once.
func (s *payoutServiceImpl) claimItems(ctx context.Context, tx *gorm.DB, payoutID uint, itemIDs []uint) error {
	rows, err := s.payoutRepo.ClaimItems(ctx, tx, payoutID, itemIDs)
	if err != nil {
		return fmt.Errorf("claim items: %w", err)
	}
	if rows != int64(len(itemIDs)) {
		return apperror.Conflict("payout %d claimed %d of %d items", payoutID, rows, len(itemIDs))
	}
	return nil
}

func (s *payoutServiceImpl) BatchSettle(ctx context.Context) ([]*model.Payout, error) {
	clubs, err := s.clubRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clubs: %w", err)
	}

	var created []*model.Payout
	for _, club := range clubs {
		payout, err := s.settleOne(ctx, club.ID)
		if err != nil {
			s.log.WithError(err).WithField("club_id", club.ID).Error("batch settlement failed for club")
			continue
		}
		if payout != nil {
			created = append(created, payout)
		}
	}

	return created, nil
}

func (s *payoutServiceImpl) settleOne(ctx context.Context, clubID uint) (*model.Payout, error) {
	var payout *model.Payout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		club, err := s.clubRepo.FindByIDForUpdate(ctx, tx, clubID)
		if err != nil {
			return fmt.Errorf("load club: %w", err)
		}

		proj, err := s.project(ctx, tx, club)
		if err != nil {
			return err
		}
		if proj.Gross <= 0 {
			return nil
		}

		payout = &model.Payout{
			ClubID:         clubID,
			GrossAmount:    proj.Gross,
			Amount:         proj.Net,
			CommissionRate: proj.CommissionRate,
			TierAtPayout:   proj.Tier,
			PeriodStart:    proj.PeriodStart,
			PeriodEnd:      proj.PeriodEnd,
			Status:         model.PayoutPending,
		}

		if err := s.payoutRepo.Create(ctx, tx, payout); err != nil {
			return err
		}
		return s.claimItems(ctx, tx, payout.ID, proj.itemIDs)
	})
	if err != nil {
		return nil, err
	}

	return payout, nil
}

func (s *payoutServiceImpl) ConfirmPayout(ctx context.Context, payoutID uint, method, reference string) error {
	if method == "" {
		return apperror.Validation("payment method is required")
	}

	if _, err := s.payoutRepo.FindByID(ctx, payoutID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("payout %d not found", payoutID)
		}
		return fmt.Errorf("load payout: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The pending payout already holds its items, so nothing settled
		// between proposal and confirmation can double-count them.
		now := time.Now()
		rows, err := s.payoutRepo.UpdateStatus(ctx, tx, payoutID, model.PayoutPaid, method, reference, &now,
			model.PayoutPending, model.PayoutProcessing)
		if err != nil {
			return fmt.Errorf("mark payout paid: %w", err)
		}
		if rows == 0 {
			return apperror.InvalidTransition("payout %d is not pending", payoutID)
		}

		return nil
	})
}

func (s *payoutServiceImpl) FailPayout(ctx context.Context, payoutID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.payoutRepo.UpdateStatus(ctx, tx, payoutID, model.PayoutFailed, "", "", nil,
			model.PayoutPending, model.PayoutProcessing)
		if err != nil {
			return fmt.Errorf("mark payout failed: %w", err)
		}
		if rows == 0 {
			if _, err := s.payoutRepo.FindByID(ctx, payoutID); errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("payout %d not found", payoutID)
			}
			return apperror.InvalidTransition("payout %d is not pending", payoutID)
		}

		// The claimed items become payable again on the next projection.
		if err := s.payoutRepo.ReleaseItems(ctx, tx, payoutID); err != nil {
			return fmt.Errorf("release items: %w", err)
		}
		return nil
	})
}

func (s *payoutServiceImpl) ListPayouts(ctx context.Context, clubID uint) ([]*model.Payout, error) {
	return s.payoutRepo.ListByClub(ctx, clubID)
}
