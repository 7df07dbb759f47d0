package activity

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/logger"
)

// Recorder writes audit events after a settlement commits. Writes are best
// effort: a failure is logged and swallowed so it can never fail the
// request that triggered it.
type Recorder struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecorder(db *gorm.DB, log *logger.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// Record appends one activity row. The detail payload is marshalled here;
// an unmarshallable payload is treated like any other write failure.
func (r *Recorder) Record(ctx context.Context, actorID uuid.UUID, action, entityType, entityID string, detail any) {
	if r == nil || r.db == nil {
		return
	}

	var raw json.RawMessage
	if detail != nil {
		encoded, err := json.Marshal(detail)
		if err != nil {
			ctx = r.log.WithFields(ctx, map[string]any{"action": action, "error": err.Error()})
			r.log.Warn(ctx, "activity detail not serializable, event dropped")
			return
		}
		raw = encoded
	}

	row := models.ActivityLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     raw,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		ctx = r.log.WithFields(ctx, map[string]any{"action": action, "entity_id": entityID, "error": err.Error()})
		r.log.Warn(ctx, "activity event dropped")
	}
}
