package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/api/responses"
	"github.com/tillpoint/tillpoint-backend/api/validators"
	"github.com/tillpoint/tillpoint-backend/internal/inventory"
	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/logger"
)

// AdjustInventory applies a manual stock correction. Staff only.
func AdjustInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload adjustInventoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Delta == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero"))
			return
		}

		if err := svc.Adjust(r.Context(), payload.ProductID, payload.Delta); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"product_id": payload.ProductID,
			"delta":      payload.Delta,
		})
	}
}

// LowStock lists items at or below their reorder threshold. Staff only.
func LowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		items, err := svc.LowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newLowStockResponse(items))
	}
}

type adjustInventoryRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Delta     int       `json:"delta" validate:"required"`
}

type lowStockResponse struct {
	Items []lowStockItem `json:"items"`
}

type lowStockItem struct {
	ProductID        uuid.UUID `json:"product_id"`
	StockLevel       int       `json:"stock_level"`
	ReorderThreshold int       `json:"reorder_threshold"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newLowStockResponse(items []models.InventoryItem) lowStockResponse {
	out := lowStockResponse{Items: make([]lowStockItem, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, lowStockItem{
			ProductID:        item.ProductID,
			StockLevel:       item.StockLevel,
			ReorderThreshold: item.ReorderThreshold,
			UpdatedAt:        item.UpdatedAt,
		})
	}
	return out
}
