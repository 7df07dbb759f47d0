package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleRecord is the revenue-recognition row appended when a checkout enters
// the delivered state, one per order line.
type SaleRecord struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CheckoutID  uuid.UUID `gorm:"column:checkout_id;type:uuid;not null;index"`
	OrderLineID uuid.UUID `gorm:"column:order_line_id;type:uuid;not null"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Qty         int       `gorm:"column:qty;not null"`
	TotalCents  int       `gorm:"column:total_cents;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *SaleRecord) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
