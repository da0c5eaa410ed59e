package repository

import (
	"club-marketplace/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, productID uint) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error)
	// DecrementStock performs the conditional "decrement if stock >= qty"
	// write and bumps the lifetime sale counter. Returns false when the guard
	// failed (missing, inactive or out-of-stock product).
	DecrementStock(ctx context.Context, tx *gorm.DB, productID uint, qty int64) (bool, error)
	// RestoreStock re-adds cancelled quantity and walks the sale counter back,
	// clamped so it never goes negative.
	RestoreStock(ctx context.Context, tx *gorm.DB, productID uint, qty int64) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) DecrementStock(ctx context.Context, tx *gorm.DB, productID uint, qty int64) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND status = ? AND stock >= ?", productID, model.ProductActive, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"total_sold": gorm.Expr("total_sold + ?", qty),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *productRepoImpl) RestoreStock(ctx context.Context, tx *gorm.DB, productID uint, qty int64) error {
	return tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"total_sold": gorm.Expr("CASE WHEN total_sold >= ? THEN total_sold - ? ELSE 0 END", qty, qty),
			"updated_at": time.Now(),
		}).Error
}
