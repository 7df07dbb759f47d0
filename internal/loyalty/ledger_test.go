package loyalty

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

func newLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:loyalty_%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Account{}, &models.LoyaltyEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedAccount(t *testing.T, gdb *gorm.DB, points int) uuid.UUID {
	t.Helper()
	account := models.Account{
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Role:         enums.AccountRoleUser,
		RewardPoints: points,
	}
	if err := gdb.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account.ID
}

func balanceOf(t *testing.T, gdb *gorm.DB, accountID uuid.UUID) int {
	t.Helper()
	got, err := Balance(context.Background(), gdb, accountID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return got
}

func entrySum(t *testing.T, gdb *gorm.DB, accountID uuid.UUID) int {
	t.Helper()
	var entries []models.LoyaltyEntry
	if err := gdb.Find(&entries, "account_id = ?", accountID).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	sum := 0
	for _, entry := range entries {
		sum += entry.Points
	}
	return sum
}

func TestAccrueUpdatesLedgerAndBalanceTogether(t *testing.T) {
	t.Parallel()
	gdb := newLedgerDB(t)
	accountID := seedAccount(t, gdb, 0)
	checkoutID := uuid.New()

	err := gdb.Transaction(func(tx *gorm.DB) error {
		return Accrue(context.Background(), tx, accountID, 80, checkoutID)
	})
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if got := balanceOf(t, gdb, accountID); got != 80 {
		t.Fatalf("balance = %d, want 80", got)
	}
	if got := entrySum(t, gdb, accountID); got != 80 {
		t.Fatalf("entry sum = %d, want 80", got)
	}

	var entry models.LoyaltyEntry
	if err := gdb.First(&entry, "account_id = ?", accountID).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if entry.Type != enums.LoyaltyEntryPurchase || entry.CheckoutID == nil || *entry.CheckoutID != checkoutID {
		t.Fatalf("entry = %+v, want purchase linked to checkout", entry)
	}
}

func TestRedeemDebitsAndGuardsBalance(t *testing.T) {
	t.Parallel()
	gdb := newLedgerDB(t)
	accountID := seedAccount(t, gdb, 50)

	err := gdb.Transaction(func(tx *gorm.DB) error {
		return Redeem(context.Background(), tx, accountID, 30, uuid.New())
	})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if got := balanceOf(t, gdb, accountID); got != 20 {
		t.Fatalf("balance = %d, want 20", got)
	}

	err = gdb.Transaction(func(tx *gorm.DB) error {
		return Redeem(context.Background(), tx, accountID, 25, uuid.New())
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("over-redeem err = %v, want VALIDATION", err)
	}
	if got := balanceOf(t, gdb, accountID); got != 20 {
		t.Fatalf("balance after failed redeem = %d, want 20", got)
	}
}

func TestRefundCreditsBack(t *testing.T) {
	t.Parallel()
	gdb := newLedgerDB(t)
	accountID := seedAccount(t, gdb, 5)

	err := gdb.Transaction(func(tx *gorm.DB) error {
		return Refund(context.Background(), tx, accountID, 30, uuid.New())
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if got := balanceOf(t, gdb, accountID); got != 35 {
		t.Fatalf("balance = %d, want 35", got)
	}
}

func TestReverseClampsAtZero(t *testing.T) {
	t.Parallel()
	gdb := newLedgerDB(t)
	accountID := seedAccount(t, gdb, 30)
	checkoutID := uuid.New()

	err := gdb.Transaction(func(tx *gorm.DB) error {
		return Reverse(context.Background(), tx, accountID, 80, checkoutID)
	})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if got := balanceOf(t, gdb, accountID); got != 0 {
		t.Fatalf("balance = %d, want clamped 0", got)
	}

	var entry models.LoyaltyEntry
	if err := gdb.First(&entry, "account_id = ? AND type = ?", accountID, enums.LoyaltyEntryReversal).Error; err != nil {
		t.Fatalf("load reversal: %v", err)
	}
	if entry.Points != -30 {
		t.Fatalf("reversal points = %d, want clamped -30", entry.Points)
	}
}

func TestReverseFullBalance(t *testing.T) {
	t.Parallel()
	gdb := newLedgerDB(t)
	accountID := seedAccount(t, gdb, 100)

	err := gdb.Transaction(func(tx *gorm.DB) error {
		return Reverse(context.Background(), tx, accountID, 80, uuid.New())
	})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if got := balanceOf(t, gdb, accountID); got != 20 {
		t.Fatalf("balance = %d, want 20", got)
	}
}

func TestReverseZeroBalanceWritesNothing(t *testing.T) {
	t.Parallel()
	gdb := newLedgerDB(t)
	accountID := seedAccount(t, gdb, 0)

	err := gdb.Transaction(func(tx *gorm.DB) error {
		return Reverse(context.Background(), tx, accountID, 80, uuid.New())
	})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	var count int64
	if err := gdb.Model(&models.LoyaltyEntry{}).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("entries = %d, want none for a fully clamped reversal", count)
	}
}

func TestGrantLoginBonus(t *testing.T) {
	t.Parallel()
	gdb := newLedgerDB(t)
	accountID := seedAccount(t, gdb, 0)

	err := gdb.Transaction(func(tx *gorm.DB) error {
		return GrantLoginBonus(context.Background(), tx, accountID, 10)
	})
	if err != nil {
		t.Fatalf("login bonus: %v", err)
	}
	var entry models.LoyaltyEntry
	if err := gdb.First(&entry, "account_id = ?", accountID).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if entry.Type != enums.LoyaltyEntryLogin || entry.CheckoutID != nil {
		t.Fatalf("entry = %+v, want login entry with no checkout", entry)
	}
	if got := balanceOf(t, gdb, accountID); got != 10 {
		t.Fatalf("balance = %d, want 10", got)
	}
}

func TestLedgerRejectsUnknownAccount(t *testing.T) {
	t.Parallel()
	gdb := newLedgerDB(t)

	err := gdb.Transaction(func(tx *gorm.DB) error {
		return Accrue(context.Background(), tx, uuid.New(), 10, uuid.New())
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}
