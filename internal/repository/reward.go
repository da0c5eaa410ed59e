package repository

import (
	"club-marketplace/internal/model"
	"context"

	"gorm.io/gorm"
)

type RewardRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *model.RewardEntry) error
	// ExistsKey reports whether a one-shot grant with this idempotency key was
	// already written for the club.
	ExistsKey(ctx context.Context, tx *gorm.DB, clubID uint, key string) (bool, error)
	ListByClub(ctx context.Context, clubID uint, limit, offset int) ([]*model.RewardEntry, error)
}

type rewardRepoImpl struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepoImpl{
		db: db,
	}
}

func (r *rewardRepoImpl) Create(ctx context.Context, tx *gorm.DB, entry *model.RewardEntry) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *rewardRepoImpl) ExistsKey(ctx context.Context, tx *gorm.DB, clubID uint, key string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&model.RewardEntry{}).
		Where("club_id = ? AND idempotency_key = ?", clubID, key).
		Count(&count).Error

	return count > 0, err
}

func (r *rewardRepoImpl) ListByClub(ctx context.Context, clubID uint, limit, offset int) ([]*model.RewardEntry, error) {
	var entries []*model.RewardEntry
	err := r.db.WithContext(ctx).
		Where("club_id = ?", clubID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error

	if err != nil {
		return nil, err
	}

	return entries, nil
}
