package service

import (
	"club-marketplace/internal/apperror"
	"club-marketplace/internal/model"
	"club-marketplace/internal/repository"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)
	scarf := f.createProduct(t, club.ID, "Scarf", 150, 5)

	order, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{
			{ProductID: jersey.ID, Quantity: 2},
			{ProductID: scarf.ID, Quantity: 1},
		},
		testDelivery(), model.PaymentCOD, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, int64(1150), order.Subtotal)
	assert.Equal(t, int64(60), order.ShippingCost) // local region
	assert.Equal(t, int64(1210), order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(1000), order.Items[0].Subtotal)

	assert.Equal(t, int64(8), f.reloadProduct(t, jersey.ID).Stock)
	assert.Equal(t, int64(2), f.reloadProduct(t, jersey.ID).TotalSold)
	assert.Equal(t, int64(4), f.reloadProduct(t, scarf.ID).Stock)
}

func TestCreateOrder_RemoteShipping(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)

	delivery := testDelivery()
	delivery.City = "Khulna"
	delivery.Region = "Khulna"

	order, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 1}},
		delivery, model.PaymentCard, "")
	require.NoError(t, err)

	assert.Equal(t, int64(120), order.ShippingCost)
}

func TestCreateOrder_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)
	scarf := f.createProduct(t, club.ID, "Scarf", 150, 1)

	_, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{
			{ProductID: jersey.ID, Quantity: 2}, // enough stock
			{ProductID: scarf.ID, Quantity: 5},  // not enough
		},
		testDelivery(), model.PaymentCOD, "")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))

	// nothing committed
	assert.Equal(t, int64(10), f.reloadProduct(t, jersey.ID).Stock)
	assert.Equal(t, int64(1), f.reloadProduct(t, scarf.ID).Stock)

	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

// staleStockRepo reports more stock than the database holds, reproducing a
// competing order taking the stock between the pre-check read and the
// conditional write.
type staleStockRepo struct {
	repository.ProductRepository
}

func (r staleStockRepo) FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error) {
	products, err := r.ProductRepository.FindMany(ctx, productIDs)
	for _, p := range products {
		p.Stock += 10
	}
	return products, err
}

func TestCreateOrder_LostStockRace(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 2)

	cfg := defaultTestConfig()
	svc := NewOrderService(f.db, cfg.Shipping, cfg.Rewards,
		staleStockRepo{f.productRepo}, f.orderRepo, f.clubRepo, f.rewardSvc, testLogger())

	_, err := svc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 5}},
		testDelivery(), model.PaymentCOD, "")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConcurrencyConflict))

	// the losing attempt leaves no trace
	assert.Equal(t, int64(2), f.reloadProduct(t, jersey.ID).Stock)
	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrder_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)
	require.NoError(t, f.db.Model(jersey).Update("status", model.ProductInactive).Error)

	_, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 1}},
		testDelivery(), model.PaymentCOD, "")
	assert.True(t, apperror.Is(err, apperror.KindProductUnavailable))
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)

	_, err := f.orderSvc.CreateOrder(t.Context(), 1, nil, testDelivery(), model.PaymentCOD, "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 0}},
		testDelivery(), model.PaymentCOD, "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 1}},
		testDelivery(), "cheque", "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	incomplete := testDelivery()
	incomplete.AddressLine = ""
	_, err = f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 1}},
		incomplete, model.PaymentCOD, "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)
	scarf := f.createProduct(t, club.ID, "Scarf", 150, 5)

	order, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{
			{ProductID: jersey.ID, Quantity: 2},
			{ProductID: scarf.ID, Quantity: 1},
		},
		testDelivery(), model.PaymentCOD, "")
	require.NoError(t, err)

	require.NoError(t, f.orderSvc.CancelOrder(t.Context(), order.ID))

	assert.Equal(t, int64(10), f.reloadProduct(t, jersey.ID).Stock)
	assert.Equal(t, int64(0), f.reloadProduct(t, jersey.ID).TotalSold)
	assert.Equal(t, int64(5), f.reloadProduct(t, scarf.ID).Stock)

	got, err := f.orderSvc.GetOrder(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, got.Status)
	for _, item := range got.Items {
		assert.Equal(t, model.OrderCancelled, item.Status)
	}
}

func TestCancelOrder_AfterShipmentRejected(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)

	order, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 1}},
		testDelivery(), model.PaymentCOD, "")
	require.NoError(t, err)

	require.NoError(t, f.orderSvc.ShipLineItem(t.Context(), order.Items[0].ID, "TRK123", "Pathao"))

	err = f.orderSvc.CancelOrder(t.Context(), order.ID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))

	// stock stays taken
	assert.Equal(t, int64(9), f.reloadProduct(t, jersey.ID).Stock)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)

	order, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 1}},
		testDelivery(), model.PaymentCOD, "")
	require.NoError(t, err)

	// processing before confirmation is out of order
	err = f.orderSvc.StartProcessing(t.Context(), order.ID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))

	require.NoError(t, f.orderSvc.ConfirmOrder(t.Context(), order.ID))
	require.NoError(t, f.orderSvc.StartProcessing(t.Context(), order.ID))

	got, err := f.orderSvc.GetOrder(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderProcessing, got.Status)

	// double confirm is rejected
	err = f.orderSvc.ConfirmOrder(t.Context(), order.ID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))
}

func TestShipLineItem(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)

	order, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 1}},
		testDelivery(), model.PaymentCOD, "")
	require.NoError(t, err)
	itemID := order.Items[0].ID

	err = f.orderSvc.ShipLineItem(t.Context(), itemID, "", "Pathao")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	require.NoError(t, f.orderSvc.ShipLineItem(t.Context(), itemID, "TRK123", "Pathao"))

	item, err := f.orderRepo.FindItemByID(t.Context(), itemID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderShipped, item.Status)
	assert.Equal(t, "TRK123", item.TrackingCode)
	assert.Equal(t, "Pathao", item.Carrier)
	require.NotNil(t, item.ShippedAt)

	// first shipment pushes the order label forward
	got, err := f.orderSvc.GetOrder(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderShipped, got.Status)

	// shipping again is rejected
	err = f.orderSvc.ShipLineItem(t.Context(), itemID, "TRK456", "Pathao")
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))
}

func TestShipLineItem_FastShippingAwardedOnce(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)

	order, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 1}},
		testDelivery(), model.PaymentCOD, "")
	require.NoError(t, err)

	require.NoError(t, f.orderSvc.ShipLineItem(t.Context(), order.Items[0].ID, "TRK123", "Pathao"))

	assert.Equal(t, int64(5), f.reloadClub(t, club.ID).RewardPoints)

	var entries int64
	require.NoError(t, f.db.Model(&model.RewardEntry{}).
		Where("club_id = ? AND action = ?", club.ID, model.RewardFastShipping).
		Count(&entries).Error)
	assert.Equal(t, int64(1), entries)
}

func TestConfirmDelivery(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)

	order, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 2}},
		testDelivery(), model.PaymentCOD, "")
	require.NoError(t, err)

	// not shipped yet
	err = f.orderSvc.ConfirmDelivery(t.Context(), order.ID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))

	require.NoError(t, f.orderSvc.ShipLineItem(t.Context(), order.Items[0].ID, "TRK123", "Pathao"))
	require.NoError(t, f.orderSvc.ConfirmDelivery(t.Context(), order.ID))

	got, err := f.orderSvc.GetOrder(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, got.Status)
	// delivery is proof of payment for COD
	assert.Equal(t, model.PaymentVerified, got.PaymentStatus)
	require.NotNil(t, got.DeliveredAt)
	for _, item := range got.Items {
		assert.Equal(t, model.OrderDelivered, item.Status)
		assert.NotNil(t, item.DeliveredAt)
	}

	fresh := f.reloadClub(t, club.ID)
	assert.Equal(t, int64(1000), fresh.TotalEarnings)
	assert.Equal(t, int64(1), fresh.TotalSales)
	// fast shipping 5 + sale floor(1000/100)*10=100 + first sale 50
	assert.Equal(t, int64(155), fresh.RewardPoints)

	// delivering twice is rejected
	err = f.orderSvc.ConfirmDelivery(t.Context(), order.ID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))
}

func TestVerifyPayment(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 10)

	order, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 1}},
		testDelivery(), model.PaymentCard, "")
	require.NoError(t, err)

	require.NoError(t, f.orderSvc.VerifyPayment(t.Context(), order.ID, true, "TXN-991"))

	got, err := f.orderSvc.GetOrder(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentVerified, got.PaymentStatus)
	assert.Equal(t, "TXN-991", got.PaymentReference)

	err = f.orderSvc.VerifyPayment(t.Context(), order.ID, false, "TXN-992")
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))
}

func TestStockConservation(t *testing.T) {
	f := newFixture(t)
	club := f.createClub(t, "Dhaka Riders")
	jersey := f.createProduct(t, club.ID, "Jersey", 500, 5)

	var kept []uint
	for i := 0; i < 5; i++ {
		order, err := f.orderSvc.CreateOrder(t.Context(), 1,
			[]LineRequest{{ProductID: jersey.ID, Quantity: 1}},
			testDelivery(), model.PaymentCOD, "")
		require.NoError(t, err)
		if i%2 == 0 {
			require.NoError(t, f.orderSvc.CancelOrder(t.Context(), order.ID))
		} else {
			kept = append(kept, order.ID)
		}
	}

	// the sixth attempt against remaining stock
	_, err := f.orderSvc.CreateOrder(t.Context(), 1,
		[]LineRequest{{ProductID: jersey.ID, Quantity: 4}},
		testDelivery(), model.PaymentCOD, "")
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))

	// initial 5 - 2 live orders = 3
	assert.Equal(t, int64(3), f.reloadProduct(t, jersey.ID).Stock)
	assert.Len(t, kept, 2)
}
