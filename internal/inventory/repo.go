package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

// ReservationRequest asks for qty units of one product.
type ReservationRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// Reserve decrements stock for every request inside the supplied transaction.
// Rows are touched in ascending product-id order so two concurrent carts
// sharing products cannot deadlock each other. The decrement is a single
// guarded statement: the row is only updated when stock_level >= qty, which
// is what keeps the counter from ever going negative under contention. Any
// shortfall aborts the whole reservation; the caller's transaction rollback
// undoes the decrements already applied.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory reserve")
	}
	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation qty must be positive")
		}
	}

	ordered := make([]ReservationRequest, len(requests))
	copy(ordered, requests)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ProductID.String() < ordered[j].ProductID.String()
	})

	for _, req := range ordered {
		res := tx.WithContext(ctx).Exec(`
			UPDATE inventory_items
			SET stock_level = stock_level - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE product_id = ? AND stock_level >= ?
		`, req.Qty, req.ProductID, req.Qty)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
		}
		if res.RowsAffected == 0 {
			return reserveFailure(ctx, tx, req)
		}
	}
	return nil
}

func reserveFailure(ctx context.Context, tx *gorm.DB, req ReservationRequest) error {
	var item models.InventoryItem
	err := tx.WithContext(ctx).First(&item, "product_id = ?", req.ProductID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeProductNotFound, "no inventory record for product").
			WithDetails(map[string]any{"product_id": req.ProductID})
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inspect inventory")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"product_id": req.ProductID,
			"requested":  req.Qty,
			"available":  item.StockLevel,
		})
}

// Restock returns previously reserved quantities, used by the
// restock-on-cancel policy when it is enabled.
func Restock(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory restock")
	}
	for _, req := range requests {
		if req.Qty <= 0 {
			continue
		}
		if err := Adjust(ctx, tx, req.ProductID, req.Qty); err != nil {
			return err
		}
	}
	return nil
}

// Adjust applies a signed stock delta outside the checkout path (manual
// restock, shrinkage). Negative deltas are guarded the same way reserve is.
func Adjust(ctx context.Context, db *gorm.DB, productID uuid.UUID, delta int) error {
	if db == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "database required for inventory adjust")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if delta == 0 {
		return nil
	}

	res := db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET stock_level = stock_level + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND stock_level + ? >= 0
	`, delta, productID, delta)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust inventory")
	}
	if res.RowsAffected == 0 {
		return reserveFailure(ctx, db, ReservationRequest{ProductID: productID, Qty: -delta})
	}
	return nil
}

// ListBelowThreshold returns products whose stock fell to or below their
// reorder threshold, for the out-of-band restock flow.
func ListBelowThreshold(ctx context.Context, db *gorm.DB) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := db.WithContext(ctx).
		Where("stock_level <= reorder_threshold").
		Order("product_id ASC").
		Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return items, nil
}
