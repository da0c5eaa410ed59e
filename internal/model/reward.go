package model

import "time"

type RewardAction string

const (
	RewardSale            RewardAction = "sale"
	RewardFiveStarReview  RewardAction = "five_star_review"
	RewardFastShipping    RewardAction = "fast_shipping"
	RewardFirstSale       RewardAction = "first_sale"
	RewardMilestone10     RewardAction = "milestone_10"
	RewardMilestone50     RewardAction = "milestone_50"
	RewardMilestone100    RewardAction = "milestone_100"
	RewardManualAddition  RewardAction = "manual_addition"
	RewardManualDeduction RewardAction = "manual_deduction"
)

// RewardEntry is an append-only ledger row. IdempotencyKey is set only for
// one-shot actions (first sale, milestones, fast shipping per line item); the
// unique index makes concurrent double-grants lose on insert rather than
// relying on the existence check alone.
type RewardEntry struct {
	ID     uint         `gorm:"primaryKey"`
	ClubID uint         `gorm:"index;not null;uniqueIndex:idx_reward_once"`
	Action RewardAction `gorm:"size:32;index;not null"`
	Points int64        `gorm:"not null"` // signed delta

	Description    string  `gorm:"size:256;not null"`
	Reference      string  `gorm:"size:64"` // originating order/item/review id
	ActorID        *uint   // set for manual adjustments
	IdempotencyKey *string `gorm:"size:64;uniqueIndex:idx_reward_once"`

	CreatedAt time.Time
}
