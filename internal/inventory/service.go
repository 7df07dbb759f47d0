package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
)

// Service exposes the stock operations used outside of checkout.
type Service interface {
	Adjust(ctx context.Context, productID uuid.UUID, delta int) error
	LowStock(ctx context.Context) ([]models.InventoryItem, error)
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &service{db: db}, nil
}

func (s *service) Adjust(ctx context.Context, productID uuid.UUID, delta int) error {
	return Adjust(ctx, s.db, productID, delta)
}

func (s *service) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	return ListBelowThreshold(ctx, s.db)
}
