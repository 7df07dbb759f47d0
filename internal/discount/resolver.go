package discount

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/internal/coupons"
	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

// PointValueCents is the redemption rate: one loyalty point is worth one
// whole currency unit.
const PointValueCents = 100

// Line is a priced cart line entering resolution.
type Line struct {
	ProductID      uuid.UUID
	Name           string
	UnitPriceCents int
	Qty            int
}

// ResolvedLine carries a line's allocated share of every discount.
type ResolvedLine struct {
	Line
	SubtotalCents       int
	CouponDiscountCents int
	RewardDiscountCents int
	TotalCents          int
}

// Input is everything the resolver needs. It is a pure computation: no
// stores are touched, the coupon arrives pre-loaded.
type Input struct {
	Lines           []Line
	Coupon          *models.Coupon
	RequestedPoints int
	PointBalance    int
	Role            enums.AccountRole
	Now             time.Time

	MinRedemptionPoints  int
	EnforceCombinedFloor bool
}

// Result is the settled pricing for a checkout before persistence.
type Result struct {
	SubtotalCents       int
	CouponDiscountCents int
	CouponApplied       bool
	// CouponErr records why a supplied coupon was skipped. It never fails
	// the checkout, only the discount.
	CouponErr error

	RewardPointsUsed    int
	RewardDiscountCents int

	TotalCents int
	Lines      []ResolvedLine
}

// Resolve computes the coupon discount, the point redemption, and the
// per-line proportional allocation of both.
func Resolve(in Input) (*Result, error) {
	if len(in.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	subtotal := 0
	for _, line := range in.Lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line qty must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		if line.UnitPriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "negative unit price").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		subtotal += line.UnitPriceCents * line.Qty
	}

	res := &Result{SubtotalCents: subtotal}

	if in.Coupon != nil {
		if err := coupons.Validate(in.Coupon, subtotal, in.Now); err != nil {
			res.CouponErr = err
		} else {
			res.CouponDiscountCents = couponDiscount(in.Coupon, subtotal)
			res.CouponApplied = res.CouponDiscountCents > 0
		}
	}

	res.RewardPointsUsed = redeemablePoints(in, subtotal)
	res.RewardDiscountCents = res.RewardPointsUsed * PointValueCents

	// Each discount is individually clamped to the subtotal; their sum is
	// not, unless the combined-floor policy is on. When it is, the reward
	// side gives way since coupon value was promised first.
	if in.EnforceCombinedFloor && res.CouponDiscountCents+res.RewardDiscountCents > subtotal {
		room := subtotal - res.CouponDiscountCents
		if room < 0 {
			room = 0
		}
		res.RewardPointsUsed = room / PointValueCents
		res.RewardDiscountCents = res.RewardPointsUsed * PointValueCents
	}

	res.TotalCents = subtotal - res.CouponDiscountCents - res.RewardDiscountCents
	if res.TotalCents < 0 {
		res.TotalCents = 0
	}

	res.Lines = allocate(in.Lines, subtotal, res.CouponDiscountCents, res.RewardDiscountCents)
	return res, nil
}

func couponDiscount(coupon *models.Coupon, subtotalCents int) int {
	var amount int
	switch coupon.DiscountType {
	case enums.CouponDiscountPercentage:
		amount = int(decimal.NewFromInt(int64(subtotalCents)).
			Mul(coupon.DiscountValue).
			Div(decimal.NewFromInt(100)).
			Floor().IntPart())
	case enums.CouponDiscountFixed:
		amount = int(coupon.DiscountValue.Mul(decimal.NewFromInt(PointValueCents)).Floor().IntPart())
	}
	if amount > subtotalCents {
		amount = subtotalCents
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

// redeemablePoints caps the request at the balance and at the cart's whole
// currency value, then applies the minimum-redemption threshold. Only the
// user account class holds redeemable balances.
func redeemablePoints(in Input, subtotalCents int) int {
	if in.RequestedPoints <= 0 || !in.Role.CanRedeemPoints() {
		return 0
	}
	points := in.RequestedPoints
	if in.PointBalance < points {
		points = in.PointBalance
	}
	if cap := subtotalCents / PointValueCents; cap < points {
		points = cap
	}
	if points < in.MinRedemptionPoints {
		return 0
	}
	return points
}

// allocate splits each discount across lines in proportion to line
// subtotal. Shares floor to whole cents; the last line absorbs the rounding
// remainder so the column sums stay exact.
func allocate(lines []Line, subtotalCents, couponCents, rewardCents int) []ResolvedLine {
	out := make([]ResolvedLine, len(lines))
	couponLeft, rewardLeft := couponCents, rewardCents
	total := decimal.NewFromInt(int64(subtotalCents))

	for i, line := range lines {
		lineSubtotal := line.UnitPriceCents * line.Qty
		resolved := ResolvedLine{Line: line, SubtotalCents: lineSubtotal}

		if i == len(lines)-1 {
			resolved.CouponDiscountCents = couponLeft
			resolved.RewardDiscountCents = rewardLeft
		} else {
			ratio := decimal.NewFromInt(int64(lineSubtotal)).Div(total)
			resolved.CouponDiscountCents = int(ratio.Mul(decimal.NewFromInt(int64(couponCents))).Floor().IntPart())
			resolved.RewardDiscountCents = int(ratio.Mul(decimal.NewFromInt(int64(rewardCents))).Floor().IntPart())
			couponLeft -= resolved.CouponDiscountCents
			rewardLeft -= resolved.RewardDiscountCents
		}

		resolved.TotalCents = resolved.SubtotalCents - resolved.CouponDiscountCents - resolved.RewardDiscountCents
		if resolved.TotalCents < 0 {
			resolved.TotalCents = 0
		}
		out[i] = resolved
	}
	return out
}
