package rewards

import (
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

var cents = decimal.NewFromInt(100)

// SelectRule picks the earning tier for a net purchase amount. Qualifying
// rules are active with min <= amount <= max (nil max is unbounded); of
// those the greatest min wins, ties resolved by slice order so the outcome
// is stable for a given rule load.
func SelectRule(finalAmountCents int, rules []models.RewardRule) *models.RewardRule {
	var best *models.RewardRule
	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive {
			continue
		}
		if finalAmountCents < rule.MinPurchaseCents {
			continue
		}
		if rule.MaxPurchaseCents != nil && finalAmountCents > *rule.MaxPurchaseCents {
			continue
		}
		if best == nil || rule.MinPurchaseCents > best.MinPurchaseCents {
			best = rule
		}
	}
	return best
}

// ComputePoints evaluates a rule's formula over the net amount paid.
// Amounts are cents; point formulas operate on whole currency units, so a
// 2x multiplier on a 4000-cent purchase yields 80 points. Fractional
// results floor.
func ComputePoints(rule *models.RewardRule, finalAmountCents int) int {
	if rule == nil || finalAmountCents <= 0 {
		return 0
	}
	amount := decimal.NewFromInt(int64(finalAmountCents)).Div(cents)
	switch rule.RewardType {
	case enums.RewardTypeFixed:
		return rule.FixedPoints
	case enums.RewardTypeMultiplier:
		return int(amount.Mul(rule.PointsMultiplier).Floor().IntPart())
	case enums.RewardTypePercentage:
		return int(amount.Mul(rule.PointsMultiplier).Div(cents).Floor().IntPart())
	case enums.RewardTypeStep:
		// fixed_points per full 100 currency units spent.
		return int(amount.Div(cents).Floor().IntPart()) * rule.FixedPoints
	}
	return 0
}

// Earn resolves the points accrued by a checkout. Redemption and accrual
// are mutually exclusive: any points redeemed force earned to zero with no
// rule attached.
func Earn(finalAmountCents, pointsRedeemed int, rules []models.RewardRule) (int, *models.RewardRule) {
	if pointsRedeemed > 0 {
		return 0, nil
	}
	rule := SelectRule(finalAmountCents, rules)
	if rule == nil {
		return 0, nil
	}
	return ComputePoints(rule, finalAmountCents), rule
}
