package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is the catalog listing whose price is snapshotted into order lines
// at checkout time. Later price edits never touch historical orders.
type Product struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name           string         `gorm:"column:name;not null"`
	SKU            string         `gorm:"column:sku;not null;default:''"`
	UnitPriceCents int            `gorm:"column:unit_price_cents;not null"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true"`
	Inventory      *InventoryItem `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
