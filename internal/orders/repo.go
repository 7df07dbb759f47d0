package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/tillpoint/tillpoint-backend/pkg/db"
	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

// Create persists the checkout header with its lines in one insert chain.
func Create(ctx context.Context, tx *gorm.DB, checkout *models.Checkout) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for checkout create")
	}
	if err := tx.WithContext(ctx).Create(checkout).Error; err != nil {
		if pkgdb.IsUniqueViolation(err, "idx_checkouts_order_code") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order code already taken")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout")
	}
	return nil
}

// FindByOrderCode loads a checkout header with its lines.
func FindByOrderCode(ctx context.Context, db *gorm.DB, orderCode string) (*models.Checkout, error) {
	var checkout models.Checkout
	err := db.WithContext(ctx).
		Preload("Lines").
		First(&checkout, "order_code = ?", orderCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
			WithDetails(map[string]any{"order_code": orderCode})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find checkout")
	}
	return &checkout, nil
}

// SetStatus applies the new status to the header, stamping the terminal
// timestamps. The previous status is re-checked in the statement, so two
// concurrent transitions on the same order cannot both apply; the loser
// sees zero rows and rolls back its side effects.
func SetStatus(ctx context.Context, tx *gorm.DB, checkout *models.Checkout, next enums.OrderStatus, now time.Time) error {
	updates := map[string]any{"status": next, "updated_at": now}
	switch next {
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}

	res := tx.WithContext(ctx).Model(&models.Checkout{}).
		Where("id = ? AND status = ?", checkout.ID, checkout.Status).
		Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status changed concurrently").
			WithDetails(map[string]any{"order_code": checkout.OrderCode})
	}
	checkout.Status = next
	return nil
}

// RecordSales appends one revenue-recognition row per line for a delivered
// checkout.
func RecordSales(ctx context.Context, tx *gorm.DB, checkout *models.Checkout) error {
	if len(checkout.Lines) == 0 {
		return nil
	}
	records := make([]models.SaleRecord, 0, len(checkout.Lines))
	for _, line := range checkout.Lines {
		records = append(records, models.SaleRecord{
			CheckoutID:  checkout.ID,
			OrderLineID: line.ID,
			ProductID:   line.ProductID,
			Qty:         line.Qty,
			TotalCents:  line.TotalCents,
		})
	}
	if err := tx.WithContext(ctx).Create(&records).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sales")
	}
	return nil
}

// ListByAccount returns an account's checkouts, newest first.
func ListByAccount(ctx context.Context, db *gorm.DB, accountID uuid.UUID, limit int) ([]models.Checkout, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var checkouts []models.Checkout
	if err := db.WithContext(ctx).
		Preload("Lines").
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&checkouts).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list checkouts")
	}
	return checkouts, nil
}
