package model

import "time"

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Club is a marketplace vendor. RewardPoints and Tier are always written
// together in one transaction; TotalEarnings/TotalSales are bumped when an
// order containing the club's items is confirmed delivered.
type Club struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:128;not null"`
	RewardPoints int64  `gorm:"not null;default:0"`
	Tier         Tier   `gorm:"size:16;index;not null;default:'bronze'"`

	TotalEarnings int64 `gorm:"not null;default:0"`
	TotalSales    int64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID     uint `gorm:"primaryKey"`
	ClubID uint `gorm:"index;not null"`

	Name   string `gorm:"size:128;not null"`
	Price  int64  `gorm:"not null"`
	Stock  int64  `gorm:"not null"`                                // never negative, enforced by conditional updates
	Status string `gorm:"size:16;index;not null;default:'active'"` // active, inactive

	TotalSold int64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	ProductActive   = "active"
	ProductInactive = "inactive"
)
