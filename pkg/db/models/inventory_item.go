package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks the stock counter per product. StockLevel is only
// decremented through the guarded reserve statement, so it never goes
// negative.
type InventoryItem struct {
	ProductID        uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	StockLevel       int       `gorm:"column:stock_level;not null;default:0"`
	ReorderThreshold int       `gorm:"column:reorder_threshold;not null;default:0"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
