package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Checkout is the order header produced by one settlement. It owns the
// loyalty figures once; order lines are pure children keyed by CheckoutID.
type Checkout struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderCode           string            `gorm:"column:order_code;uniqueIndex;not null"`
	AccountID           uuid.UUID         `gorm:"column:account_id;type:uuid;not null"`
	Status              enums.OrderStatus `gorm:"column:status;not null;default:'confirmed'"`
	SubtotalCents       int               `gorm:"column:subtotal_cents;not null"`
	CouponID            *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	CouponDiscountCents int               `gorm:"column:coupon_discount_cents;not null;default:0"`
	RewardPointsUsed    int               `gorm:"column:reward_points_used;not null;default:0"`
	RewardDiscountCents int               `gorm:"column:reward_discount_cents;not null;default:0"`
	RewardPointsEarned  int               `gorm:"column:reward_points_earned;not null;default:0"`
	RewardRuleID        *uuid.UUID        `gorm:"column:reward_rule_id;type:uuid"`
	TotalCents          int               `gorm:"column:total_cents;not null"`
	PaymentRef          *string           `gorm:"column:payment_ref"`
	Lines               []OrderLine       `gorm:"foreignKey:CheckoutID;constraint:OnDelete:CASCADE"`
	DeliveredAt         *time.Time        `gorm:"column:delivered_at"`
	CancelledAt         *time.Time        `gorm:"column:cancelled_at"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Checkout) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
