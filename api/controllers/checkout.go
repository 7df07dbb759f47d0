package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/api/middleware"
	"github.com/tillpoint/tillpoint-backend/api/responses"
	"github.com/tillpoint/tillpoint-backend/api/validators"
	"github.com/tillpoint/tillpoint-backend/internal/settlement"
	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/logger"
)

// Checkout settles the submitted cart for the acting account.
func Checkout(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]settlement.CartLine, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, settlement.CartLine{ProductID: line.ProductID, Qty: line.Qty})
		}

		order, err := svc.Checkout(r.Context(), settlement.CheckoutInput{
			AccountID:    middleware.AccountIDFromContext(r.Context()),
			Lines:        lines,
			CouponCode:   validators.SanitizeString(payload.CouponCode, 64),
			RedeemPoints: payload.RedeemPoints,
			PaymentRef:   validators.SanitizeString(payload.PaymentRef, 128),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type checkoutRequest struct {
	Lines        []checkoutLineRequest `json:"lines" validate:"omitempty,dive"`
	CouponCode   string                `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
	RedeemPoints int                   `json:"redeem_points,omitempty" validate:"omitempty,min=0"`
	PaymentRef   string                `json:"payment_ref,omitempty" validate:"omitempty,max=128"`
}

type checkoutLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

type orderResponse struct {
	OrderCode           string              `json:"order_code"`
	Status              string              `json:"status"`
	SubtotalCents       int                 `json:"subtotal_cents"`
	CouponDiscountCents int                 `json:"coupon_discount_cents"`
	RewardPointsUsed    int                 `json:"reward_points_used"`
	RewardDiscountCents int                 `json:"reward_discount_cents"`
	RewardPointsEarned  int                 `json:"reward_points_earned"`
	TotalCents          int                 `json:"total_cents"`
	PaymentRef          *string             `json:"payment_ref,omitempty"`
	Lines               []orderLineResponse `json:"lines"`
}

type orderLineResponse struct {
	ProductID           uuid.UUID `json:"product_id"`
	Name                string    `json:"name"`
	UnitPriceCents      int       `json:"unit_price_cents"`
	Qty                 int       `json:"qty"`
	DiscountCents       int       `json:"discount_cents"`
	RewardDiscountCents int       `json:"reward_discount_cents"`
	TotalCents          int       `json:"total_cents"`
}

func newOrderResponse(order *models.Checkout) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineResponse{
			ProductID:           line.ProductID,
			Name:                line.Name,
			UnitPriceCents:      line.UnitPriceCents,
			Qty:                 line.Qty,
			DiscountCents:       line.DiscountCents,
			RewardDiscountCents: line.RewardDiscountCents,
			TotalCents:          line.TotalCents,
		})
	}
	return orderResponse{
		OrderCode:           order.OrderCode,
		Status:              order.Status.String(),
		SubtotalCents:       order.SubtotalCents,
		CouponDiscountCents: order.CouponDiscountCents,
		RewardPointsUsed:    order.RewardPointsUsed,
		RewardDiscountCents: order.RewardDiscountCents,
		RewardPointsEarned:  order.RewardPointsEarned,
		TotalCents:          order.TotalCents,
		PaymentRef:          order.PaymentRef,
		Lines:               lines,
	}
}
