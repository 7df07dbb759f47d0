package loyalty

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

// append writes one ledger entry and moves the cached balance by the same
// delta inside the caller's transaction. The entry and the balance can
// never disagree because they commit or roll back together.
func appendEntry(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, points int, typ enums.LoyaltyEntryType, checkoutID *uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for ledger write")
	}
	if accountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	entry := models.LoyaltyEntry{
		AccountID:  accountID,
		Points:     points,
		Type:       typ,
		CheckoutID: checkoutID,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append loyalty entry")
	}

	res := tx.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("reward_points", gorm.Expr("reward_points + ?", points))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update reward balance")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found").
			WithDetails(map[string]any{"account_id": accountID})
	}
	return nil
}

// Accrue credits points earned by a committed purchase.
func Accrue(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, points int, checkoutID uuid.UUID) error {
	if points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "accrual must be positive")
	}
	return appendEntry(ctx, tx, accountID, points, enums.LoyaltyEntryPurchase, &checkoutID)
}

// Redeem debits points converted into a checkout discount. The balance is
// re-checked in the statement so a concurrent redemption cannot drive it
// negative.
func Redeem(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, points int, checkoutID uuid.UUID) error {
	if points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "redemption must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for ledger write")
	}

	res := tx.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND reward_points >= ?", accountID, points).
		UpdateColumn("reward_points", gorm.Expr("reward_points - ?", points))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "debit reward balance")
	}
	if res.RowsAffected == 0 {
		return redeemFailure(ctx, tx, accountID, points)
	}

	entry := models.LoyaltyEntry{
		AccountID:  accountID,
		Points:     -points,
		Type:       enums.LoyaltyEntryRedeem,
		CheckoutID: &checkoutID,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append redeem entry")
	}
	return nil
}

func redeemFailure(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, points int) error {
	var account models.Account
	err := tx.WithContext(ctx).First(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found").
			WithDetails(map[string]any{"account_id": accountID})
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inspect reward balance")
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "insufficient reward points").
		WithDetails(map[string]any{
			"account_id": accountID,
			"requested":  points,
			"available":  account.RewardPoints,
		})
}

// Refund credits back points that a cancelled checkout had redeemed.
func Refund(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, points int, checkoutID uuid.UUID) error {
	if points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund must be positive")
	}
	return appendEntry(ctx, tx, accountID, points, enums.LoyaltyEntryRefund, &checkoutID)
}

// Reverse debits points that a cancelled checkout had accrued. The debit
// clamps at the current balance so the account never goes negative when the
// points were already spent; the entry records the clamped delta.
func Reverse(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, points int, checkoutID uuid.UUID) error {
	if points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reversal must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for ledger write")
	}

	var account models.Account
	err := tx.WithContext(ctx).First(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found").
			WithDetails(map[string]any{"account_id": accountID})
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inspect reward balance")
	}

	debit := points
	if account.RewardPoints < debit {
		debit = account.RewardPoints
	}
	if debit == 0 {
		return nil
	}
	return appendEntry(ctx, tx, accountID, -debit, enums.LoyaltyEntryReversal, &checkoutID)
}

// GrantLoginBonus appends a login-reward credit outside the checkout path.
func GrantLoginBonus(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, points int) error {
	if points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "login bonus must be positive")
	}
	return appendEntry(ctx, tx, accountID, points, enums.LoyaltyEntryLogin, nil)
}

// Balance reads the cached balance for an account.
func Balance(ctx context.Context, db *gorm.DB, accountID uuid.UUID) (int, error) {
	var account models.Account
	err := db.WithContext(ctx).First(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "account not found").
			WithDetails(map[string]any{"account_id": accountID})
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account.RewardPoints, nil
}
