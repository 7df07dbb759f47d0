package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderLine captures the priced snapshot of each item within a checkout.
// TotalCents is the post-discount line total.
type OrderLine struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CheckoutID          uuid.UUID `gorm:"column:checkout_id;type:uuid;not null;index"`
	ProductID           uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name                string    `gorm:"column:name;not null"`
	UnitPriceCents      int       `gorm:"column:unit_price_cents;not null"`
	Qty                 int       `gorm:"column:qty;not null"`
	DiscountCents       int       `gorm:"column:discount_cents;not null;default:0"`
	RewardDiscountCents int       `gorm:"column:reward_discount_cents;not null;default:0"`
	TotalCents          int       `gorm:"column:total_cents;not null"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
