package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Account is the customer or staff identity. RewardPoints is the denormalized
// running sum of the account's loyalty entries; every ledger mutation updates
// both inside the same transaction.
type Account struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Email        string            `gorm:"column:email;uniqueIndex;not null"`
	Role         enums.AccountRole `gorm:"column:role;not null;default:'user'"`
	RewardPoints int               `gorm:"column:reward_points;not null;default:0"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
