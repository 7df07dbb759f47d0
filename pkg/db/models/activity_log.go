package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog is the best-effort audit row written after a settlement
// commits. A failed insert is logged and dropped, never surfaced.
type ActivityLog struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ActorID    uuid.UUID       `gorm:"column:actor_id;type:uuid;not null"`
	Action     string          `gorm:"column:action;not null"`
	EntityType string          `gorm:"column:entity_type;not null"`
	EntityID   string          `gorm:"column:entity_id;not null"`
	Detail     json.RawMessage `gorm:"column:detail;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (a *ActivityLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
