package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// RewardRule is one tier of the point-earning program. Rules partition the
// purchase-amount axis; selection picks the highest qualifying MinPurchaseCents.
type RewardRule struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	MinPurchaseCents int              `gorm:"column:min_purchase_cents;not null;default:0"`
	MaxPurchaseCents *int             `gorm:"column:max_purchase_cents"`
	RewardType       enums.RewardType `gorm:"column:reward_type;not null"`
	PointsMultiplier decimal.Decimal  `gorm:"column:points_multiplier;type:numeric(8,3);not null;default:0"`
	FixedPoints      int              `gorm:"column:fixed_points;not null;default:0"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *RewardRule) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
