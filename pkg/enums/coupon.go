package enums

import "fmt"

// CouponDiscountType distinguishes percentage and fixed-amount coupons.
type CouponDiscountType string

const (
	CouponDiscountPercentage CouponDiscountType = "percentage"
	CouponDiscountFixed      CouponDiscountType = "fixed"
)

var validCouponDiscountTypes = []CouponDiscountType{
	CouponDiscountPercentage,
	CouponDiscountFixed,
}

// IsValid reports whether the value is a known CouponDiscountType.
func (t CouponDiscountType) IsValid() bool {
	for _, candidate := range validCouponDiscountTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCouponDiscountType converts raw input into a CouponDiscountType.
func ParseCouponDiscountType(value string) (CouponDiscountType, error) {
	for _, candidate := range validCouponDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon discount type %q", value)
}

// CouponStatus marks a coupon active or inactive.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
)

// IsValid reports whether the value is a known CouponStatus.
func (s CouponStatus) IsValid() bool {
	return s == CouponStatusActive || s == CouponStatusInactive
}
