package service

import (
	"club-marketplace/internal/config"
	"club-marketplace/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Hard defaults used whenever configuration is absent or malformed.
var defaultCommissionRates = map[model.Tier]decimal.Decimal{
	model.TierBronze:   decimal.NewFromFloat(0.05),
	model.TierSilver:   decimal.NewFromFloat(0.03),
	model.TierGold:     decimal.NewFromFloat(0.02),
	model.TierPlatinum: decimal.NewFromFloat(0.01),
}

const (
	defaultSilverThreshold   = 500
	defaultGoldThreshold     = 1500
	defaultPlatinumThreshold = 5000
)

type tierStep struct {
	tier      model.Tier
	threshold int64
}

// TierResolver maps a cumulative point balance to a tier and a commission
// fraction. It is pure: all inputs arrive at construction time.
type TierResolver struct {
	steps []tierStep // ascending by threshold, bronze first
	rates map[model.Tier]decimal.Decimal
}

func NewTierResolver(commission config.Commission, tiers config.Tiers, log *logrus.Logger) *TierResolver {
	silver, gold, platinum := tiers.SilverThreshold, tiers.GoldThreshold, tiers.PlatinumThreshold
	if silver <= 0 || gold <= silver || platinum <= gold {
		log.WithFields(logrus.Fields{
			"silver": silver, "gold": gold, "platinum": platinum,
		}).Warn("tier thresholds not strictly increasing, using defaults")
		silver, gold, platinum = defaultSilverThreshold, defaultGoldThreshold, defaultPlatinumThreshold
	}

	rates := map[model.Tier]decimal.Decimal{
		model.TierBronze:   parseRate(model.TierBronze, commission.Bronze, log),
		model.TierSilver:   parseRate(model.TierSilver, commission.Silver, log),
		model.TierGold:     parseRate(model.TierGold, commission.Gold, log),
		model.TierPlatinum: parseRate(model.TierPlatinum, commission.Platinum, log),
	}

	return &TierResolver{
		steps: []tierStep{
			{model.TierBronze, 0},
			{model.TierSilver, silver},
			{model.TierGold, gold},
			{model.TierPlatinum, platinum},
		},
		rates: rates,
	}
}

func parseRate(tier model.Tier, raw string, log *logrus.Logger) decimal.Decimal {
	if raw == "" {
		return defaultCommissionRates[tier]
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		log.WithFields(logrus.Fields{
			"tier": tier, "value": raw,
		}).Warn("malformed commission rate, falling back to default")
		return defaultCommissionRates[tier]
	}

	return rate
}

// Resolve returns the highest tier whose threshold the balance meets.
func (r *TierResolver) Resolve(points int64) model.Tier {
	tier := r.steps[0].tier
	for _, step := range r.steps {
		if points >= step.threshold {
			tier = step.tier
		}
	}
	return tier
}

func (r *TierResolver) CommissionRate(tier model.Tier) decimal.Decimal {
	if rate, ok := r.rates[tier]; ok {
		return rate
	}
	return defaultCommissionRates[model.TierBronze]
}

// TierProgress describes how far a balance has moved toward the next tier.
// Display only; settlement never depends on it.
type TierProgress struct {
	NextTier     model.Tier `json:"next_tier,omitempty"`
	PointsToNext int64      `json:"points_to_next"`
	Percent      float64    `json:"percent"`
}

func (r *TierResolver) Progress(points int64) TierProgress {
	current := 0
	for i, step := range r.steps {
		if points >= step.threshold {
			current = i
		}
	}

	if current == len(r.steps)-1 {
		return TierProgress{Percent: 100}
	}

	floor := r.steps[current].threshold
	next := r.steps[current+1]
	span := next.threshold - floor

	return TierProgress{
		NextTier:     next.tier,
		PointsToNext: next.threshold - points,
		Percent:      float64(points-floor) / float64(span) * 100,
	}
}
