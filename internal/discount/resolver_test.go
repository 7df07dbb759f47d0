package discount

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

func fixedCoupon(value int64) *models.Coupon {
	return &models.Coupon{
		ID:            uuid.New(),
		Code:          "save10",
		DiscountType:  enums.CouponDiscountFixed,
		DiscountValue: decimal.NewFromInt(value),
		Status:        enums.CouponStatusActive,
	}
}

func percentCoupon(value int64) *models.Coupon {
	c := fixedCoupon(value)
	c.DiscountType = enums.CouponDiscountPercentage
	return c
}

func cart() []Line {
	return []Line{
		{ProductID: uuid.New(), Name: "Widget", UnitPriceCents: 1000, Qty: 2},
		{ProductID: uuid.New(), Name: "Gadget", UnitPriceCents: 3000, Qty: 1},
	}
}

func TestResolveFixedCoupon(t *testing.T) {
	t.Parallel()
	res, err := Resolve(Input{Lines: cart(), Coupon: fixedCoupon(10), Role: enums.AccountRoleUser, Now: time.Now()})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.SubtotalCents != 5000 {
		t.Fatalf("subtotal = %d, want 5000", res.SubtotalCents)
	}
	if res.CouponDiscountCents != 1000 || !res.CouponApplied {
		t.Fatalf("coupon discount = %d applied = %v, want 1000 applied", res.CouponDiscountCents, res.CouponApplied)
	}
	if res.TotalCents != 4000 {
		t.Fatalf("total = %d, want 4000", res.TotalCents)
	}
}

func TestResolvePercentageCoupon(t *testing.T) {
	t.Parallel()
	res, err := Resolve(Input{Lines: cart(), Coupon: percentCoupon(20), Role: enums.AccountRoleUser, Now: time.Now()})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.CouponDiscountCents != 1000 {
		t.Fatalf("coupon discount = %d, want 1000 (20%% of 5000)", res.CouponDiscountCents)
	}
}

func TestResolveInvalidCouponIsNotFatal(t *testing.T) {
	t.Parallel()
	expired := fixedCoupon(10)
	past := time.Now().Add(-time.Hour)
	expired.ExpiresAt = &past

	res, err := Resolve(Input{Lines: cart(), Coupon: expired, Role: enums.AccountRoleUser, Now: time.Now()})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.CouponApplied || res.CouponDiscountCents != 0 {
		t.Fatalf("expired coupon applied: %+v", res)
	}
	if !pkgerrors.HasCode(res.CouponErr, pkgerrors.CodeInvalidCoupon) {
		t.Fatalf("CouponErr = %v, want INVALID_COUPON", res.CouponErr)
	}
	if res.TotalCents != 5000 {
		t.Fatalf("total = %d, want full 5000", res.TotalCents)
	}
}

func TestResolveCouponClampedToSubtotal(t *testing.T) {
	t.Parallel()
	res, err := Resolve(Input{Lines: cart(), Coupon: fixedCoupon(500), Role: enums.AccountRoleUser, Now: time.Now()})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.CouponDiscountCents != 5000 {
		t.Fatalf("coupon discount = %d, want clamped 5000", res.CouponDiscountCents)
	}
	if res.TotalCents != 0 {
		t.Fatalf("total = %d, want 0", res.TotalCents)
	}
}

func TestResolveRedemptionCaps(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		requested  int
		balance    int
		role       enums.AccountRole
		minPoints  int
		wantPoints int
	}{
		{"capped by balance", 100, 30, enums.AccountRoleUser, 0, 30},
		{"capped by cart value", 100, 100, enums.AccountRoleUser, 0, 50},
		{"below minimum threshold", 5, 100, enums.AccountRoleUser, 10, 0},
		{"staff cannot redeem", 30, 100, enums.AccountRoleStaff, 0, 0},
		{"no request", 0, 100, enums.AccountRoleUser, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Resolve(Input{
				Lines:               cart(),
				RequestedPoints:     tc.requested,
				PointBalance:        tc.balance,
				Role:                tc.role,
				Now:                 time.Now(),
				MinRedemptionPoints: tc.minPoints,
			})
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if res.RewardPointsUsed != tc.wantPoints {
				t.Fatalf("points used = %d, want %d", res.RewardPointsUsed, tc.wantPoints)
			}
			if res.RewardDiscountCents != tc.wantPoints*PointValueCents {
				t.Fatalf("reward discount = %d, want %d", res.RewardDiscountCents, tc.wantPoints*PointValueCents)
			}
		})
	}
}

func TestResolveCombinedFloor(t *testing.T) {
	t.Parallel()
	in := Input{
		Lines:           cart(),
		Coupon:          fixedCoupon(40),
		RequestedPoints: 30,
		PointBalance:    30,
		Role:            enums.AccountRoleUser,
		Now:             time.Now(),
	}

	// Default behavior: both discounts stand, total floors at zero.
	res, err := Resolve(in)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.CouponDiscountCents != 4000 || res.RewardPointsUsed != 30 {
		t.Fatalf("unexpected discounts: %+v", res)
	}
	if res.TotalCents != 0 {
		t.Fatalf("total = %d, want 0", res.TotalCents)
	}

	// With the floor on, the reward side shrinks to fit.
	in.EnforceCombinedFloor = true
	res, err = Resolve(in)
	if err != nil {
		t.Fatalf("resolve with floor: %v", err)
	}
	if res.RewardPointsUsed != 10 || res.RewardDiscountCents != 1000 {
		t.Fatalf("floored redemption = %d pts / %d cents, want 10 / 1000", res.RewardPointsUsed, res.RewardDiscountCents)
	}
	if res.TotalCents != 0 {
		t.Fatalf("total = %d, want 0", res.TotalCents)
	}
}

func TestResolveAllocationSumsExactly(t *testing.T) {
	t.Parallel()
	lines := []Line{
		{ProductID: uuid.New(), Name: "A", UnitPriceCents: 333, Qty: 1},
		{ProductID: uuid.New(), Name: "B", UnitPriceCents: 333, Qty: 1},
		{ProductID: uuid.New(), Name: "C", UnitPriceCents: 334, Qty: 1},
	}
	res, err := Resolve(Input{
		Lines:           lines,
		Coupon:          percentCoupon(10),
		RequestedPoints: 5,
		PointBalance:    5,
		Role:            enums.AccountRoleUser,
		Now:             time.Now(),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var couponSum, rewardSum, totalSum int
	for _, line := range res.Lines {
		couponSum += line.CouponDiscountCents
		rewardSum += line.RewardDiscountCents
		totalSum += line.TotalCents
	}
	if couponSum != res.CouponDiscountCents {
		t.Fatalf("coupon allocation sums to %d, want %d", couponSum, res.CouponDiscountCents)
	}
	if rewardSum != res.RewardDiscountCents {
		t.Fatalf("reward allocation sums to %d, want %d", rewardSum, res.RewardDiscountCents)
	}
	if totalSum != res.TotalCents {
		t.Fatalf("line totals sum to %d, want %d", totalSum, res.TotalCents)
	}
}

func TestResolveRejectsBadLines(t *testing.T) {
	t.Parallel()
	_, err := Resolve(Input{Lines: nil, Now: time.Now()})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty cart err = %v, want VALIDATION", err)
	}

	_, err = Resolve(Input{Lines: []Line{{ProductID: uuid.New(), UnitPriceCents: 100, Qty: 0}}, Now: time.Now()})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("zero qty err = %v, want VALIDATION", err)
	}
}
