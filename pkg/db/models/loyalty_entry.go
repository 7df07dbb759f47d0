package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// LoyaltyEntry is an immutable signed point delta for an account. Corrections
// are new compensating entries, never edits.
type LoyaltyEntry struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	AccountID  uuid.UUID              `gorm:"column:account_id;type:uuid;not null;index"`
	Points     int                    `gorm:"column:points;not null"`
	Type       enums.LoyaltyEntryType `gorm:"column:type;not null"`
	CheckoutID *uuid.UUID             `gorm:"column:checkout_id;type:uuid;index"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (e *LoyaltyEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
