package repository

import (
	"club-marketplace/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type PayoutRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payout *model.Payout) error
	FindByID(ctx context.Context, payoutID uint) (*model.Payout, error)
	ListByClub(ctx context.Context, clubID uint) ([]*model.Payout, error)
	// PaidByClub loads the club's paid payouts inside tx so period derivation
	// sees a consistent history relative to the insert that follows.
	PaidByClub(ctx context.Context, tx *gorm.DB, clubID uint) ([]*model.Payout, error)
	// SettledItems returns the club's delivered line items on delivered,
	// payment-verified orders that no payout has claimed yet.
	SettledItems(ctx context.Context, tx *gorm.DB, clubID uint) ([]*model.OrderItem, error)
	// ClaimItems stamps the given items with the payout that settles them.
	// Only unclaimed items match, so the returned count falling short of
	// len(itemIDs) means another payout got there first.
	ClaimItems(ctx context.Context, tx *gorm.DB, payoutID uint, itemIDs []uint) (int64, error)
	// ReleaseItems clears the claim of a payout that will never be paid.
	ReleaseItems(ctx context.Context, tx *gorm.DB, payoutID uint) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, payoutID uint, to model.PayoutStatus, method, reference string, paidAt *time.Time, allowedFrom ...model.PayoutStatus) (int64, error)
}

type payoutRepoImpl struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepoImpl{
		db: db,
	}
}

func (r *payoutRepoImpl) Create(ctx context.Context, tx *gorm.DB, payout *model.Payout) error {
	return tx.WithContext(ctx).Create(payout).Error
}

func (r *payoutRepoImpl) FindByID(ctx context.Context, payoutID uint) (*model.Payout, error) {
	var payout model.Payout
	err := r.db.WithContext(ctx).
		Where("id = ?", payoutID).
		First(&payout).Error

	if err != nil {
		return nil, err
	}

	return &payout, nil
}

func (r *payoutRepoImpl) ListByClub(ctx context.Context, clubID uint) ([]*model.Payout, error) {
	var payouts []*model.Payout
	err := r.db.WithContext(ctx).
		Where("club_id = ?", clubID).
		Order("id DESC").
		Find(&payouts).Error

	if err != nil {
		return nil, err
	}

	return payouts, nil
}

func (r *payoutRepoImpl) PaidByClub(ctx context.Context, tx *gorm.DB, clubID uint) ([]*model.Payout, error) {
	var payouts []*model.Payout
	err := tx.WithContext(ctx).
		Where("club_id = ? AND status = ?", clubID, model.PayoutPaid).
		Order("period_end ASC").
		Find(&payouts).Error

	if err != nil {
		return nil, err
	}

	return payouts, nil
}

func (r *payoutRepoImpl) SettledItems(ctx context.Context, tx *gorm.DB, clubID uint) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := tx.WithContext(ctx).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.club_id = ?", clubID).
		Where("order_items.status = ?", model.OrderDelivered).
		Where("order_items.delivered_at IS NOT NULL").
		Where("orders.status = ?", model.OrderDelivered).
		Where("orders.payment_status = ?", model.PaymentVerified).
		Where("order_items.payout_id IS NULL").
		Order("order_items.delivered_at ASC").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *payoutRepoImpl) ClaimItems(ctx context.Context, tx *gorm.DB, payoutID uint, itemIDs []uint) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}

	result := tx.WithContext(ctx).Model(&model.OrderItem{}).
		Where("id IN ? AND payout_id IS NULL", itemIDs).
		Update("payout_id", payoutID)

	return result.RowsAffected, result.Error
}

func (r *payoutRepoImpl) ReleaseItems(ctx context.Context, tx *gorm.DB, payoutID uint) error {
	return tx.WithContext(ctx).Model(&model.OrderItem{}).
		Where("payout_id = ?", payoutID).
		Update("payout_id", nil).Error
}

func (r *payoutRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, payoutID uint, to model.PayoutStatus, method, reference string, paidAt *time.Time, allowedFrom ...model.PayoutStatus) (int64, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if method != "" {
		updates["method"] = method
	}
	if reference != "" {
		updates["reference"] = reference
	}
	if paidAt != nil {
		updates["paid_at"] = paidAt
	}

	result := tx.WithContext(ctx).Model(&model.Payout{}).
		Where("id = ? AND status IN ?", payoutID, allowedFrom).
		Updates(updates)

	return result.RowsAffected, result.Error
}
