package repository

import (
	"club-marketplace/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID uint) (*model.Order, error)
	// FindByIDForUpdate loads the order with its items inside tx, holding a
	// row lock on the order so concurrent transitions serialize.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error)
	// UpdateStatus moves the order from one of the allowed statuses; returns
	// gorm.ErrRecordNotFound semantics via zero rows when the guard fails.
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uint, to model.OrderStatus, allowedFrom ...model.OrderStatus) (int64, error)
	UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, orderID uint, status model.PaymentStatus, reference string) error
	MarkDelivered(ctx context.Context, tx *gorm.DB, orderID uint, at time.Time) error

	FindItemByID(ctx context.Context, itemID uint) (*model.OrderItem, error)
	MarkItemShipped(ctx context.Context, tx *gorm.DB, itemID uint, carrier, trackingCode string, at time.Time) (int64, error)
	MarkItemsStatus(ctx context.Context, tx *gorm.DB, orderID uint, to model.OrderStatus) error
	MarkItemsDelivered(ctx context.Context, tx *gorm.DB, orderID uint, at time.Time) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error) {
	var order model.Order
	err := forUpdate(tx.WithContext(ctx)).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}

	err = tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&order.Items).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uint, to model.OrderStatus, allowedFrom ...model.OrderStatus) (int64, error) {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, allowedFrom).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	return result.RowsAffected, result.Error
}

func (r *orderRepoImpl) UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, orderID uint, status model.PaymentStatus, reference string) error {
	updates := map[string]interface{}{
		"payment_status": status,
		"updated_at":     time.Now(),
	}
	if reference != "" {
		updates["payment_reference"] = reference
	}

	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *orderRepoImpl) MarkDelivered(ctx context.Context, tx *gorm.DB, orderID uint, at time.Time) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":       model.OrderDelivered,
			"delivered_at": at,
			"updated_at":   at,
		}).Error
}

func (r *orderRepoImpl) FindItemByID(ctx context.Context, itemID uint) (*model.OrderItem, error) {
	var item model.OrderItem
	err := r.db.WithContext(ctx).
		Where("id = ?", itemID).
		First(&item).Error

	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *orderRepoImpl) MarkItemShipped(ctx context.Context, tx *gorm.DB, itemID uint, carrier, trackingCode string, at time.Time) (int64, error) {
	result := tx.WithContext(ctx).Model(&model.OrderItem{}).
		Where("id = ? AND status IN ?", itemID, []model.OrderStatus{
			model.OrderPending, model.OrderConfirmed, model.OrderProcessing,
		}).
		Updates(map[string]interface{}{
			"status":        model.OrderShipped,
			"carrier":       carrier,
			"tracking_code": trackingCode,
			"shipped_at":    at,
			"updated_at":    at,
		})

	return result.RowsAffected, result.Error
}

func (r *orderRepoImpl) MarkItemsStatus(ctx context.Context, tx *gorm.DB, orderID uint, to model.OrderStatus) error {
	return tx.WithContext(ctx).Model(&model.OrderItem{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		}).Error
}

func (r *orderRepoImpl) MarkItemsDelivered(ctx context.Context, tx *gorm.DB, orderID uint, at time.Time) error {
	return tx.WithContext(ctx).Model(&model.OrderItem{}).
		Where("order_id = ? AND status <> ?", orderID, model.OrderCancelled).
		Updates(map[string]interface{}{
			"status":       model.OrderDelivered,
			"delivered_at": at,
			"updated_at":   at,
		}).Error
}
