package service

import (
	"club-marketplace/internal/apperror"
	"club-marketplace/internal/config"
	"club-marketplace/internal/model"
	"club-marketplace/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LineRequest struct {
	ProductID uint
	Quantity  int64
}

type DeliveryInfo struct {
	RecipientName  string
	RecipientPhone string
	AddressLine    string
	City           string
	Region         string
}

type OrderService interface {
	CreateOrder(ctx context.Context, buyerID uint, lines []LineRequest, delivery DeliveryInfo, method model.PaymentMethod, paymentReference string) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID uint) error
	ConfirmOrder(ctx context.Context, orderID uint) error
	StartProcessing(ctx context.Context, orderID uint) error
	ShipLineItem(ctx context.Context, itemID uint, trackingCode, carrier string) error
	ConfirmDelivery(ctx context.Context, orderID uint) error
	VerifyPayment(ctx context.Context, orderID uint, success bool, reference string) error
	GetOrder(ctx context.Context, orderID uint) (*model.Order, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	shipping    config.Shipping
	fastShipWin time.Duration
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	clubRepo    repository.ClubRepository
	rewardSvc   RewardService
	log         *logrus.Logger
}

func NewOrderService(
	db *gorm.DB,
	shipping config.Shipping,
	rewards config.Rewards,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	clubRepo repository.ClubRepository,
	rewardSvc RewardService,
	log *logrus.Logger,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		shipping:    shipping,
		fastShipWin: time.Duration(rewards.FastShippingHours) * time.Hour,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		clubRepo:    clubRepo,
		rewardSvc:   rewardSvc,
		log:         log,
	}
}

// orderNumberAttempts bounds retries when the generated order number loses
// against the unique index.
const orderNumberAttempts = 3

func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, buyerID uint, lines []LineRequest, delivery DeliveryInfo, method model.PaymentMethod, paymentReference string) (*model.Order, error) {
	if len(lines) == 0 {
		return nil, apperror.Validation("order must contain at least one line")
	}
	if !model.ValidPaymentMethod(method) {
		return nil, apperror.Validation("unknown payment method %q", method)
	}
	if delivery.RecipientName == "" || delivery.RecipientPhone == "" ||
		delivery.AddressLine == "" || delivery.City == "" || delivery.Region == "" {
		return nil, apperror.Validation("delivery info is incomplete")
	}

	productIDs := make([]uint, len(lines))
	seen := make(map[uint]bool, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperror.Validation("line quantity must be positive")
		}
		if seen[line.ProductID] {
			return nil, apperror.Validation("duplicate product %d in order", line.ProductID)
		}
		seen[line.ProductID] = true
		productIDs[i] = line.ProductID
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	productByID := make(map[uint]*model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	subtotal := int64(0)
	items := make([]model.OrderItem, len(lines))
	for i, line := range lines {
		product, ok := productByID[line.ProductID]
		if !ok || product.Status != model.ProductActive {
			return nil, apperror.ProductUnavailable("product %d is not available", line.ProductID)
		}
		if product.Stock < line.Quantity {
			return nil, apperror.InsufficientStock("product %d has %d in stock, %d requested", product.ID, product.Stock, line.Quantity)
		}

		productID := product.ID
		lineSubtotal := product.Price * line.Quantity
		subtotal += lineSubtotal
		items[i] = model.OrderItem{
			ClubID:      product.ClubID,
			ProductID:   &productID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
			Subtotal:    lineSubtotal,
			Status:      model.OrderPending,
		}
	}

	shippingCost := s.shipping.RemoteRate
	if strings.EqualFold(delivery.Region, s.shipping.LocalRegion) {
		shippingCost = s.shipping.LocalRate
	}

	order := &model.Order{
		BuyerID:          buyerID,
		Subtotal:         subtotal,
		ShippingCost:     shippingCost,
		Total:            subtotal + shippingCost,
		PaymentMethod:    method,
		PaymentStatus:    model.PaymentPending,
		PaymentReference: paymentReference,
		Status:           model.OrderPending,
		RecipientName:    delivery.RecipientName,
		RecipientPhone:   delivery.RecipientPhone,
		AddressLine:      delivery.AddressLine,
		City:             delivery.City,
		Region:           delivery.Region,
		Items:            items,
	}

	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.ID = 0
		order.OrderNumber = newOrderNumber()
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = 0
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, line := range lines {
				ok, err := s.productRepo.DecrementStock(ctx, tx, line.ProductID, line.Quantity)
				if err != nil {
					return fmt.Errorf("decrement stock: %w", err)
				}
				if !ok {
					// The pre-check passed but the conditional write lost;
					// someone took the stock between read and write.
					return apperror.ConcurrencyConflict("product %d went out of stock", line.ProductID)
				}
			}

			if err := s.orderRepo.Create(ctx, tx, order); err != nil {
				return fmt.Errorf("store order: %w", err)
			}
			return nil
		})

		if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			continue // order number collision, regenerate and retry
		}
		break
	}

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("could not allocate a unique order number")
		}
		return nil, err
	}

	return order, nil
}

func (s *orderServiceImpl) CancelOrder(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("order %d not found", orderID)
			}
			return fmt.Errorf("load order: %w", err)
		}

		rows, err := s.orderRepo.UpdateStatus(ctx, tx, orderID, model.OrderCancelled,
			model.OrderPending, model.OrderConfirmed)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if rows == 0 {
			return apperror.InvalidTransition("order %d cannot be cancelled from %s", orderID, order.Status)
		}

		for _, item := range order.Items {
			if item.Status == model.OrderCancelled || item.ProductID == nil {
				continue
			}
			if err := s.productRepo.RestoreStock(ctx, tx, *item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restore stock for product %d: %w", *item.ProductID, err)
			}
		}

		if err := s.orderRepo.MarkItemsStatus(ctx, tx, orderID, model.OrderCancelled); err != nil {
			return fmt.Errorf("cancel order items: %w", err)
		}

		return nil
	})
}

func (s *orderServiceImpl) ConfirmOrder(ctx context.Context, orderID uint) error {
	return s.transition(ctx, orderID, model.OrderConfirmed, model.OrderPending)
}

func (s *orderServiceImpl) StartProcessing(ctx context.Context, orderID uint) error {
	return s.transition(ctx, orderID, model.OrderProcessing, model.OrderConfirmed)
}

func (s *orderServiceImpl) transition(ctx context.Context, orderID uint, to model.OrderStatus, allowedFrom ...model.OrderStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.orderRepo.UpdateStatus(ctx, tx, orderID, to, allowedFrom...)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if rows == 0 {
			order, err := s.orderRepo.FindByID(ctx, orderID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("order %d not found", orderID)
				}
				return err
			}
			return apperror.InvalidTransition("order %d cannot move from %s to %s", orderID, order.Status, to)
		}
		return nil
	})
}

func (s *orderServiceImpl) ShipLineItem(ctx context.Context, itemID uint, trackingCode, carrier string) error {
	if trackingCode == "" || carrier == "" {
		return apperror.Validation("tracking code and carrier are required")
	}

	item, err := s.orderRepo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("order item %d not found", itemID)
		}
		return fmt.Errorf("load order item: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, item.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	shippedAt := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.orderRepo.MarkItemShipped(ctx, tx, itemID, carrier, trackingCode, shippedAt)
		if err != nil {
			return fmt.Errorf("mark item shipped: %w", err)
		}
		if rows == 0 {
			return apperror.InvalidTransition("order item %d cannot be shipped from %s", itemID, item.Status)
		}

		// First shipped item pushes the order-level label forward; the label
		// never moves backward here.
		_, err = s.orderRepo.UpdateStatus(ctx, tx, item.OrderID, model.OrderShipped,
			model.OrderPending, model.OrderConfirmed, model.OrderProcessing)
		if err != nil {
			return fmt.Errorf("bump order status: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	// Bonus accrual is best effort once the shipment is committed.
	if shippedAt.Sub(order.CreatedAt) < s.fastShipWin {
		if err := s.rewardSvc.AwardFastShipping(ctx, item.ClubID, itemID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"club_id": item.ClubID,
				"item_id": itemID,
			}).Error("fast shipping reward failed")
		}
	}

	return nil
}

func (s *orderServiceImpl) ConfirmDelivery(ctx context.Context, orderID uint) error {
	var delivered []model.OrderItem

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("order %d not found", orderID)
			}
			return fmt.Errorf("load order: %w", err)
		}

		if !deliverable(order) {
			return apperror.InvalidTransition("order %d is not fully shipped", orderID)
		}

		now := time.Now()
		if err := s.orderRepo.MarkDelivered(ctx, tx, orderID, now); err != nil {
			return fmt.Errorf("mark order delivered: %w", err)
		}

		// Delivery is proof of payment for cash on delivery.
		if order.PaymentMethod == model.PaymentCOD && order.PaymentStatus == model.PaymentPending {
			if err := s.orderRepo.UpdatePaymentStatus(ctx, tx, orderID, model.PaymentVerified, ""); err != nil {
				return fmt.Errorf("verify COD payment: %w", err)
			}
		}

		if err := s.orderRepo.MarkItemsDelivered(ctx, tx, orderID, now); err != nil {
			return fmt.Errorf("mark items delivered: %w", err)
		}

		type clubTally struct {
			earnings int64
			sales    int64
		}
		tally := make(map[uint]*clubTally)
		for _, item := range order.Items {
			if item.Status == model.OrderCancelled {
				continue
			}
			item.Status = model.OrderDelivered
			item.DeliveredAt = &now
			delivered = append(delivered, item)

			t := tally[item.ClubID]
			if t == nil {
				t = &clubTally{}
				tally[item.ClubID] = t
			}
			t.earnings += item.Subtotal
			t.sales++
		}

		for clubID, t := range tally {
			if err := s.clubRepo.RecordSales(ctx, tx, clubID, t.earnings, t.sales); err != nil {
				return fmt.Errorf("record sales for club %d: %w", clubID, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	// Point accrual must not undo a committed delivery; failures are logged
	// and can be backfilled with a manual adjustment.
	clubs := make(map[uint]bool)
	for i := range delivered {
		item := &delivered[i]
		if err := s.rewardSvc.AwardSalePoints(ctx, item); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"club_id": item.ClubID,
				"item_id": item.ID,
			}).Error("sale reward failed")
		}
		clubs[item.ClubID] = true
	}
	for clubID := range clubs {
		if err := s.rewardSvc.AwardMilestones(ctx, clubID); err != nil {
			s.log.WithError(err).WithField("club_id", clubID).Error("milestone reward failed")
		}
	}

	return nil
}

// deliverable reports whether the order can be confirmed delivered: either
// the order-level label already reads shipped, or every live item was shipped
// individually.
func deliverable(order *model.Order) bool {
	if order.Status == model.OrderShipped {
		return true
	}
	if order.Status == model.OrderDelivered || order.Status == model.OrderCancelled {
		return false
	}

	live := 0
	for _, item := range order.Items {
		if item.Status == model.OrderCancelled {
			continue
		}
		live++
		if item.Status != model.OrderShipped {
			return false
		}
	}
	return live > 0
}

func (s *orderServiceImpl) VerifyPayment(ctx context.Context, orderID uint, success bool, reference string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("order %d not found", orderID)
			}
			return fmt.Errorf("load order: %w", err)
		}

		if order.PaymentStatus != model.PaymentPending {
			return apperror.InvalidTransition("payment for order %d is already %s", orderID, order.PaymentStatus)
		}

		status := model.PaymentVerified
		if !success {
			status = model.PaymentFailed
		}

		return s.orderRepo.UpdatePaymentStatus(ctx, tx, orderID, status, reference)
	})
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order %d not found", orderID)
		}
		return nil, err
	}

	return order, nil
}
