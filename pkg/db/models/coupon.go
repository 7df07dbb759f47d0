package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Coupon is a case-normalized discount code. TimesUsed moves forward exactly
// once per checkout that applied the coupon.
type Coupon struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	Code             string                   `gorm:"column:code;uniqueIndex;not null"`
	DiscountType     enums.CouponDiscountType `gorm:"column:discount_type;not null"`
	DiscountValue    decimal.Decimal          `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinPurchaseCents int                      `gorm:"column:min_purchase_cents;not null;default:0"`
	UsageLimit       *int                     `gorm:"column:usage_limit"`
	TimesUsed        int                      `gorm:"column:times_used;not null;default:0"`
	Status           enums.CouponStatus       `gorm:"column:status;not null;default:'active'"`
	ExpiresAt        *time.Time               `gorm:"column:expires_at"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
