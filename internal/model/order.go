package model

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentFailed   PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentCard   PaymentMethod = "card"
	PaymentWallet PaymentMethod = "wallet"
	PaymentBank   PaymentMethod = "bank"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentWallet, PaymentBank:
		return true
	}
	return false
}

type Order struct {
	ID          uint   `gorm:"primaryKey"`
	OrderNumber string `gorm:"size:32;uniqueIndex;not null"`
	BuyerID     uint   `gorm:"index;not null"`

	Subtotal     int64 `gorm:"not null"` // goods only
	ShippingCost int64 `gorm:"not null"`
	Total        int64 `gorm:"not null"` // immutable once created

	PaymentMethod    PaymentMethod `gorm:"size:16;not null"`
	PaymentStatus    PaymentStatus `gorm:"size:16;index;not null;default:'pending'"`
	PaymentReference string        `gorm:"size:128"`

	Status OrderStatus `gorm:"size:16;index;not null;default:'pending'"`

	RecipientName  string `gorm:"size:128;not null"`
	RecipientPhone string `gorm:"size:32;not null"`
	AddressLine    string `gorm:"size:256;not null"`
	City           string `gorm:"size:64;not null"`
	Region         string `gorm:"size:64;not null"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	DeliveredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem is one club's portion of an order. Price and subtotal are
// snapshots frozen at checkout; ProductID goes nil if the product is later
// removed from the catalog.
type OrderItem struct {
	ID      uint `gorm:"primaryKey"`
	OrderID uint `gorm:"index;not null"`
	ClubID  uint `gorm:"index;not null"`

	ProductID   *uint  `gorm:"index"`
	ProductName string `gorm:"size:128;not null"`
	UnitPrice   int64  `gorm:"not null"`
	Quantity    int64  `gorm:"not null"`
	Subtotal    int64  `gorm:"not null"` // UnitPrice * Quantity, frozen

	Status OrderStatus `gorm:"size:16;index;not null;default:'pending'"`

	Carrier      string `gorm:"size:64"`
	TrackingCode string `gorm:"size:128"`

	// PayoutID is set when a payout claims the item for settlement; NULL
	// means the item has never been counted toward a payout.
	PayoutID *uint `gorm:"index"`

	ShippedAt   *time.Time
	DeliveredAt *time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
