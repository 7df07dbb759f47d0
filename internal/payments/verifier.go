package payments

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"

	"github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/square"
)

// completedStatus is the Square payment state that settles a checkout.
const completedStatus = "COMPLETED"

// ManifestLine is one cart line as the payment gateway recorded it. When a
// manifest is present it replaces the caller-supplied cart verbatim.
type ManifestLine struct {
	ProductID      uuid.UUID
	Name           string
	UnitPriceCents int
	Qty            int
}

// Verification is the gateway's answer for one payment reference.
type Verification struct {
	Ref      string
	Manifest []ManifestLine
}

// Verifier confirms that an external payment completed before settlement
// starts.
type Verifier interface {
	Verify(ctx context.Context, paymentRef string) (*Verification, error)
}

type squareVerifier struct {
	client *square.Client
}

// NewSquareVerifier builds a Verifier backed by the Square payments API.
func NewSquareVerifier(client *square.Client) (Verifier, error) {
	if client == nil {
		return nil, errors.New(errors.CodeDependency, "square client required")
	}
	return &squareVerifier{client: client}, nil
}

// Verify loads the payment and, when the payment is tied to a Square order,
// the order manifest. Anything but a completed payment fails with
// PAYMENT_NOT_COMPLETED.
func (v *squareVerifier) Verify(ctx context.Context, paymentRef string) (*Verification, error) {
	payment, err := v.client.GetPayment(ctx, paymentRef)
	if err != nil {
		return nil, err
	}
	if status := deref(payment.GetStatus()); status != completedStatus {
		return nil, errors.New(errors.CodePaymentNotCompleted, "payment is not completed").
			WithDetails(map[string]any{"status": status})
	}

	verification := &Verification{Ref: paymentRef}
	orderID := deref(payment.GetOrderID())
	if orderID == "" {
		return verification, nil
	}

	order, err := v.client.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	manifest, err := manifestFromOrder(order)
	if err != nil {
		return nil, err
	}
	verification.Manifest = manifest
	return verification, nil
}

// manifestFromOrder converts Square line items into cart lines. Each line
// item must carry the product id in its metadata; quantities must be whole.
func manifestFromOrder(order *sq.Order) ([]ManifestLine, error) {
	items := order.GetLineItems()
	manifest := make([]ManifestLine, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		productID, err := uuid.Parse(deref(item.GetMetadata()["product_id"]))
		if err != nil {
			return nil, errors.New(errors.CodeValidation, "gateway line item missing product id").
				WithDetails(map[string]any{"line_uid": deref(item.GetUID())})
		}
		qty, err := strconv.Atoi(item.GetQuantity())
		if err != nil || qty <= 0 {
			return nil, errors.New(errors.CodeValidation, "gateway line item has invalid quantity").
				WithDetails(map[string]any{"line_uid": deref(item.GetUID())})
		}
		var unitPrice int
		if money := item.GetBasePriceMoney(); money != nil && money.GetAmount() != nil {
			unitPrice = int(*money.GetAmount())
		}
		manifest = append(manifest, ManifestLine{
			ProductID:      productID,
			Name:           deref(item.GetName()),
			UnitPriceCents: unitPrice,
			Qty:            qty,
		})
	}
	return manifest, nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
