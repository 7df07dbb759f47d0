package rewards

import (
	"context"

	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

// ListActive loads the active rule set in a stable order. Creation order is
// the tie-break the selector relies on, so the sort must not change between
// reads.
func ListActive(ctx context.Context, db *gorm.DB) ([]models.RewardRule, error) {
	var rules []models.RewardRule
	if err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC, id ASC").
		Find(&rules).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reward rules")
	}
	return rules, nil
}
