package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutPaid       PayoutStatus = "paid"
	PayoutFailed     PayoutStatus = "failed"
)

// Payout settles a batch of the club's delivered, payment-verified line
// items. Each settled item is stamped with the payout's ID, which is what
// prevents double-payment; [PeriodStart, PeriodEnd) records the half-open
// span of delivery timestamps the batch covered.
type Payout struct {
	ID     uint `gorm:"primaryKey"`
	ClubID uint `gorm:"index;not null"`

	GrossAmount    int64           `gorm:"not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null"` // net of commission
	CommissionRate decimal.Decimal `gorm:"type:decimal(6,4);not null"`  // snapshot at settlement time
	TierAtPayout   Tier            `gorm:"size:16;not null"`

	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`

	Status    PayoutStatus `gorm:"size:16;index;not null;default:'pending'"`
	Method    string       `gorm:"size:32"`
	Reference string       `gorm:"size:128"`

	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
