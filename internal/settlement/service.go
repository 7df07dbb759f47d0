package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/internal/activity"
	"github.com/tillpoint/tillpoint-backend/internal/catalog"
	"github.com/tillpoint/tillpoint-backend/internal/coupons"
	"github.com/tillpoint/tillpoint-backend/internal/discount"
	"github.com/tillpoint/tillpoint-backend/internal/inventory"
	"github.com/tillpoint/tillpoint-backend/internal/loyalty"
	"github.com/tillpoint/tillpoint-backend/internal/orders"
	"github.com/tillpoint/tillpoint-backend/internal/payments"
	"github.com/tillpoint/tillpoint-backend/internal/rewards"
	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/logger"
	"github.com/tillpoint/tillpoint-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Config carries the settlement policy switches.
type Config struct {
	MinRedemptionPoints  int
	RestockOnCancel      bool
	EnforceCombinedFloor bool
}

// CartLine is one caller-supplied cart entry. Prices come from the catalog
// snapshot, never from the caller.
type CartLine struct {
	ProductID uuid.UUID
	Qty       int
}

// CheckoutInput describes one settlement request.
type CheckoutInput struct {
	AccountID    uuid.UUID
	Lines        []CartLine
	CouponCode   string
	RedeemPoints int
	// PaymentRef triggers gateway verification. When the gateway returns a
	// cart manifest it replaces Lines verbatim.
	PaymentRef string
}

// StatusInput describes one order status change request.
type StatusInput struct {
	OrderCode  string
	NextStatus enums.OrderStatus
	ActorID    uuid.UUID
	ActorRole  enums.AccountRole
}

// Service coordinates checkouts and order transitions. Every operation is
// one all-or-nothing transaction; side effects either all commit or none do.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*models.Checkout, error)
	ChangeStatus(ctx context.Context, input StatusInput) (*models.Checkout, error)
	GetOrder(ctx context.Context, orderCode string) (*models.Checkout, error)
	ListOrders(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Checkout, error)
	PointBalance(ctx context.Context, accountID uuid.UUID) (int, error)
}

type service struct {
	tx       txRunner
	db       *gorm.DB
	catalog  catalog.Repository
	verifier payments.Verifier
	recorder *activity.Recorder
	metrics  *metrics.SettlementMetrics
	log      *logger.Logger
	cfg      Config
	now      func() time.Time
}

// NewService builds the settlement coordinator. The verifier is optional:
// without one, checkouts with a payment reference are rejected.
func NewService(
	tx txRunner,
	db *gorm.DB,
	catalogRepo catalog.Repository,
	verifier payments.Verifier,
	recorder *activity.Recorder,
	settlementMetrics *metrics.SettlementMetrics,
	log *logger.Logger,
	cfg Config,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		db:       db,
		catalog:  catalogRepo,
		verifier: verifier,
		recorder: recorder,
		metrics:  settlementMetrics,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.Checkout, error) {
	started := s.now()
	checkout, err := s.checkout(ctx, input)
	s.metrics.ObserveCheckout(checkoutOutcome(err), s.now().Sub(started))
	if err != nil {
		return nil, err
	}

	s.metrics.AddPoints(string(enums.LoyaltyEntryRedeem), checkout.RewardPointsUsed)
	s.metrics.AddPoints(string(enums.LoyaltyEntryPurchase), checkout.RewardPointsEarned)
	if s.recorder != nil {
		s.recorder.Record(ctx, input.AccountID, "checkout.created", "checkout", checkout.OrderCode, map[string]any{
			"total_cents":   checkout.TotalCents,
			"points_used":   checkout.RewardPointsUsed,
			"points_earned": checkout.RewardPointsEarned,
		})
	}
	return checkout, nil
}

func (s *service) checkout(ctx context.Context, input CheckoutInput) (*models.Checkout, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if input.RedeemPoints < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redeem points cannot be negative")
	}

	// Payment verification happens before the transaction opens; an unpaid
	// session never touches the store.
	manifest, paymentRef, err := s.verifyPayment(ctx, input.PaymentRef)
	if err != nil {
		return nil, err
	}

	var result *models.Checkout
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogRepo := s.catalog.WithTx(tx)

		account, err := loadAccount(ctx, tx, input.AccountID)
		if err != nil {
			return err
		}

		pricing, reserveReqs, err := s.buildCartLines(ctx, catalogRepo, input.Lines, manifest)
		if err != nil {
			return err
		}

		var coupon *models.Coupon
		var couponLookupErr error
		if strings.TrimSpace(input.CouponCode) != "" {
			coupon, couponLookupErr = coupons.FindByCode(ctx, tx, input.CouponCode)
			if couponLookupErr != nil && !pkgerrors.HasCode(couponLookupErr, pkgerrors.CodeInvalidCoupon) {
				return couponLookupErr
			}
		}

		resolution, err := discount.Resolve(discount.Input{
			Lines:                pricing,
			Coupon:               coupon,
			RequestedPoints:      input.RedeemPoints,
			PointBalance:         account.RewardPoints,
			Role:                 account.Role,
			Now:                  s.now(),
			MinRedemptionPoints:  s.cfg.MinRedemptionPoints,
			EnforceCombinedFloor: s.cfg.EnforceCombinedFloor,
		})
		if err != nil {
			return err
		}
		if skipped := firstCouponError(couponLookupErr, resolution.CouponErr); skipped != nil {
			logCtx := s.log.WithField(ctx, "coupon_code", coupons.NormalizeCode(input.CouponCode))
			s.log.Warn(logCtx, "coupon skipped: "+skipped.Error())
		}

		if err := inventory.Reserve(ctx, tx, reserveReqs); err != nil {
			return err
		}

		ruleSet, err := rewards.ListActive(ctx, tx)
		if err != nil {
			return err
		}
		earned, rule := rewards.Earn(resolution.TotalCents, resolution.RewardPointsUsed, ruleSet)

		checkout := buildCheckout(input.AccountID, resolution, coupon, earned, rule, paymentRef)
		if err := orders.Create(ctx, tx, checkout); err != nil {
			return err
		}

		if resolution.CouponApplied {
			if err := coupons.IncrementUsage(ctx, tx, coupon); err != nil {
				return err
			}
		}
		if resolution.RewardPointsUsed > 0 {
			if err := loyalty.Redeem(ctx, tx, input.AccountID, resolution.RewardPointsUsed, checkout.ID); err != nil {
				return err
			}
		}
		if earned > 0 {
			if err := loyalty.Accrue(ctx, tx, input.AccountID, earned, checkout.ID); err != nil {
				return err
			}
		}

		result = checkout
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ChangeStatus(ctx context.Context, input StatusInput) (*models.Checkout, error) {
	checkout, err := s.changeStatus(ctx, input)
	s.metrics.IncTransition(input.NextStatus.String(), transitionOutcome(err))
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, input.ActorID, "order."+input.NextStatus.String(), "checkout", checkout.OrderCode, map[string]any{
			"status": checkout.Status,
		})
	}
	return checkout, nil
}

func (s *service) changeStatus(ctx context.Context, input StatusInput) (*models.Checkout, error) {
	if strings.TrimSpace(input.OrderCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	if !input.ActorRole.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor role required")
	}

	var result *models.Checkout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		checkout, err := orders.FindByOrderCode(ctx, tx, input.OrderCode)
		if err != nil {
			return err
		}
		if input.ActorRole == enums.AccountRoleUser && checkout.AccountID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
		}
		if err := orders.ValidateTransition(checkout.Status, input.NextStatus, input.ActorRole); err != nil {
			return err
		}
		if err := orders.SetStatus(ctx, tx, checkout, input.NextStatus, s.now()); err != nil {
			return err
		}

		switch input.NextStatus {
		case enums.OrderStatusDelivered:
			if err := orders.RecordSales(ctx, tx, checkout); err != nil {
				return err
			}
		case enums.OrderStatusCancelled:
			if err := s.compensate(ctx, tx, checkout); err != nil {
				return err
			}
		}

		result = checkout
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// compensate undoes the loyalty effects of a cancelled checkout and, when
// the policy allows, returns its stock.
func (s *service) compensate(ctx context.Context, tx *gorm.DB, checkout *models.Checkout) error {
	if checkout.RewardPointsUsed > 0 {
		if err := loyalty.Refund(ctx, tx, checkout.AccountID, checkout.RewardPointsUsed, checkout.ID); err != nil {
			return err
		}
		s.metrics.AddPoints(string(enums.LoyaltyEntryRefund), checkout.RewardPointsUsed)
	}
	if checkout.RewardPointsEarned > 0 {
		if err := loyalty.Reverse(ctx, tx, checkout.AccountID, checkout.RewardPointsEarned, checkout.ID); err != nil {
			return err
		}
		s.metrics.AddPoints(string(enums.LoyaltyEntryReversal), checkout.RewardPointsEarned)
	}
	if s.cfg.RestockOnCancel {
		requests := make([]inventory.ReservationRequest, 0, len(checkout.Lines))
		for _, line := range checkout.Lines {
			requests = append(requests, inventory.ReservationRequest{ProductID: line.ProductID, Qty: line.Qty})
		}
		if err := inventory.Restock(ctx, tx, requests); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) GetOrder(ctx context.Context, orderCode string) (*models.Checkout, error) {
	return orders.FindByOrderCode(ctx, s.db, orderCode)
}

func (s *service) ListOrders(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Checkout, error) {
	return orders.ListByAccount(ctx, s.db, accountID, limit)
}

func (s *service) PointBalance(ctx context.Context, accountID uuid.UUID) (int, error) {
	return loyalty.Balance(ctx, s.db, accountID)
}

// verifyPayment resolves the gateway manifest for a payment reference. An
// empty reference skips verification entirely.
func (s *service) verifyPayment(ctx context.Context, paymentRef string) ([]payments.ManifestLine, *string, error) {
	ref := strings.TrimSpace(paymentRef)
	if ref == "" {
		return nil, nil, nil
	}
	if s.verifier == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeDependency, "payment verification not configured")
	}
	verification, err := s.verifier.Verify(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	return verification.Manifest, &ref, nil
}

// buildCartLines produces the priced resolver lines plus the matching
// inventory requests. Manifest lines carry gateway prices; caller lines are
// priced from the catalog snapshot.
func (s *service) buildCartLines(ctx context.Context, catalogRepo catalog.Repository, callerLines []CartLine, manifest []payments.ManifestLine) ([]discount.Line, []inventory.ReservationRequest, error) {
	if len(manifest) > 0 {
		pricing := make([]discount.Line, len(manifest))
		requests := make([]inventory.ReservationRequest, len(manifest))
		ids := make([]uuid.UUID, len(manifest))
		for i, line := range manifest {
			pricing[i] = discount.Line{
				ProductID:      line.ProductID,
				Name:           line.Name,
				UnitPriceCents: line.UnitPriceCents,
				Qty:            line.Qty,
			}
			requests[i] = inventory.ReservationRequest{ProductID: line.ProductID, Qty: line.Qty}
			ids[i] = line.ProductID
		}
		// Existence still checked against the catalog even though prices
		// come from the gateway.
		if _, err := catalogRepo.FindByIDs(ctx, ids); err != nil {
			return nil, nil, err
		}
		return pricing, requests, nil
	}

	if len(callerLines) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	ids := make([]uuid.UUID, len(callerLines))
	for i, line := range callerLines {
		ids[i] = line.ProductID
	}
	products, err := catalogRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	pricing := make([]discount.Line, len(callerLines))
	requests := make([]inventory.ReservationRequest, len(callerLines))
	for i, line := range callerLines {
		product := products[line.ProductID]
		if !product.IsActive {
			return nil, nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not available").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		pricing[i] = discount.Line{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.UnitPriceCents,
			Qty:            line.Qty,
		}
		requests[i] = inventory.ReservationRequest{ProductID: line.ProductID, Qty: line.Qty}
	}
	return pricing, requests, nil
}

func buildCheckout(accountID uuid.UUID, resolution *discount.Result, coupon *models.Coupon, earned int, rule *models.RewardRule, paymentRef *string) *models.Checkout {
	checkout := &models.Checkout{
		OrderCode:           newOrderCode(),
		AccountID:           accountID,
		Status:              enums.OrderStatusConfirmed,
		SubtotalCents:       resolution.SubtotalCents,
		CouponDiscountCents: resolution.CouponDiscountCents,
		RewardPointsUsed:    resolution.RewardPointsUsed,
		RewardDiscountCents: resolution.RewardDiscountCents,
		RewardPointsEarned:  earned,
		TotalCents:          resolution.TotalCents,
		PaymentRef:          paymentRef,
	}
	if resolution.CouponApplied && coupon != nil {
		checkout.CouponID = &coupon.ID
	}
	if rule != nil {
		checkout.RewardRuleID = &rule.ID
	}
	checkout.Lines = make([]models.OrderLine, len(resolution.Lines))
	for i, line := range resolution.Lines {
		checkout.Lines[i] = models.OrderLine{
			ProductID:           line.ProductID,
			Name:                line.Name,
			UnitPriceCents:      line.UnitPriceCents,
			Qty:                 line.Qty,
			DiscountCents:       line.CouponDiscountCents,
			RewardDiscountCents: line.RewardDiscountCents,
			TotalCents:          line.TotalCents,
		}
	}
	return checkout
}

func loadAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := tx.WithContext(ctx).First(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found").
			WithDetails(map[string]any{"account_id": accountID})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return &account, nil
}

func firstCouponError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func newOrderCode() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

func checkoutOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}

func transitionOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}
