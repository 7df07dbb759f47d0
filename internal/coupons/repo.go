package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

// NormalizeCode lower-cases and trims a raw coupon code so lookups are
// case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// FindByCode loads a coupon by its normalized code. A missing coupon is an
// INVALID_COUPON, not a dependency failure; checkout treats it as a soft
// validation outcome.
func FindByCode(ctx context.Context, db *gorm.DB, code string) (*models.Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon code required")
	}

	var coupon models.Coupon
	err := db.WithContext(ctx).First(&coupon, "code = ?", normalized).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCoupon, "unknown coupon code").
			WithDetails(map[string]any{"code": normalized})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find coupon")
	}
	return &coupon, nil
}

// Validate checks the coupon against a cart subtotal at a point in time.
// It returns an INVALID_COUPON error naming the first failed check, or nil
// when the coupon may be applied.
func Validate(coupon *models.Coupon, subtotalCents int, now time.Time) error {
	switch {
	case coupon.Status != enums.CouponStatusActive:
		return invalid(coupon, "coupon is not active")
	case coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(now):
		return invalid(coupon, "coupon has expired")
	case coupon.UsageLimit != nil && coupon.TimesUsed >= *coupon.UsageLimit:
		return invalid(coupon, "coupon usage limit reached")
	case subtotalCents < coupon.MinPurchaseCents:
		return invalid(coupon, "cart total below coupon minimum")
	}
	return nil
}

func invalid(coupon *models.Coupon, reason string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidCoupon, reason).
		WithDetails(map[string]any{"code": coupon.Code})
}

// IncrementUsage bumps times_used for a coupon that was applied to a
// committed checkout. The usage-limit guard is re-checked in the statement
// itself so two concurrent checkouts cannot both consume the last use.
func IncrementUsage(ctx context.Context, tx *gorm.DB, coupon *models.Coupon) error {
	q := tx.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ?", coupon.ID)
	if coupon.UsageLimit != nil {
		q = q.Where("times_used < ?", *coupon.UsageLimit)
	}
	res := q.UpdateColumn("times_used", gorm.Expr("times_used + 1"))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment coupon usage")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon usage limit reached").
			WithDetails(map[string]any{"code": coupon.Code})
	}
	return nil
}
