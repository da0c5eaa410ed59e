package repository

import (
	"club-marketplace/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type ClubRepository interface {
	Create(ctx context.Context, club *model.Club) error
	FindByID(ctx context.Context, clubID uint) (*model.Club, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, clubID uint) (*model.Club, error)
	FindAll(ctx context.Context) ([]*model.Club, error)
	// AddPoints applies a signed delta to the club's point balance as one
	// atomic statement, clamped at zero.
	AddPoints(ctx context.Context, tx *gorm.DB, clubID uint, delta int64) error
	UpdateTier(ctx context.Context, tx *gorm.DB, clubID uint, tier model.Tier) error
	// RecordSales bumps lifetime earnings and the completed-sale counter.
	RecordSales(ctx context.Context, tx *gorm.DB, clubID uint, earnings, sales int64) error
}

type clubRepoImpl struct {
	db *gorm.DB
}

func NewClubRepository(db *gorm.DB) ClubRepository {
	return &clubRepoImpl{
		db: db,
	}
}

func (r *clubRepoImpl) Create(ctx context.Context, club *model.Club) error {
	return r.db.WithContext(ctx).Create(club).Error
}

func (r *clubRepoImpl) FindByID(ctx context.Context, clubID uint) (*model.Club, error) {
	var club model.Club
	err := r.db.WithContext(ctx).
		Where("id = ?", clubID).
		First(&club).Error

	if err != nil {
		return nil, err
	}

	return &club, nil
}

func (r *clubRepoImpl) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, clubID uint) (*model.Club, error) {
	var club model.Club
	err := forUpdate(tx.WithContext(ctx)).
		Where("id = ?", clubID).
		First(&club).Error

	if err != nil {
		return nil, err
	}

	return &club, nil
}

func (r *clubRepoImpl) FindAll(ctx context.Context) ([]*model.Club, error) {
	var clubs []*model.Club
	err := r.db.WithContext(ctx).Find(&clubs).Error
	if err != nil {
		return nil, err
	}

	return clubs, nil
}

func (r *clubRepoImpl) AddPoints(ctx context.Context, tx *gorm.DB, clubID uint, delta int64) error {
	result := tx.WithContext(ctx).Model(&model.Club{}).
		Where("id = ?", clubID).
		Updates(map[string]interface{}{
			"reward_points": gorm.Expr("CASE WHEN reward_points + ? < 0 THEN 0 ELSE reward_points + ? END", delta, delta),
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *clubRepoImpl) UpdateTier(ctx context.Context, tx *gorm.DB, clubID uint, tier model.Tier) error {
	return tx.WithContext(ctx).Model(&model.Club{}).
		Where("id = ?", clubID).
		Updates(map[string]interface{}{
			"tier":       tier,
			"updated_at": time.Now(),
		}).Error
}

func (r *clubRepoImpl) RecordSales(ctx context.Context, tx *gorm.DB, clubID uint, earnings, sales int64) error {
	result := tx.WithContext(ctx).Model(&model.Club{}).
		Where("id = ?", clubID).
		Updates(map[string]interface{}{
			"total_earnings": gorm.Expr("total_earnings + ?", earnings),
			"total_sales":    gorm.Expr("total_sales + ?", sales),
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
