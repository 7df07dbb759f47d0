package enums

import "fmt"

// LoyaltyEntryType maps to the reason a loyalty ledger entry was appended.
type LoyaltyEntryType string

const (
	LoyaltyEntryLogin    LoyaltyEntryType = "login"
	LoyaltyEntryPurchase LoyaltyEntryType = "purchase"
	LoyaltyEntryRedeem   LoyaltyEntryType = "redeem"
	LoyaltyEntryRefund   LoyaltyEntryType = "refund"
	LoyaltyEntryReversal LoyaltyEntryType = "reversal"
)

var validLoyaltyEntryTypes = []LoyaltyEntryType{
	LoyaltyEntryLogin,
	LoyaltyEntryPurchase,
	LoyaltyEntryRedeem,
	LoyaltyEntryRefund,
	LoyaltyEntryReversal,
}

// IsValid reports whether the value matches the canonical loyalty entry enum.
func (t LoyaltyEntryType) IsValid() bool {
	for _, candidate := range validLoyaltyEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLoyaltyEntryType converts raw input into LoyaltyEntryType.
func ParseLoyaltyEntryType(value string) (LoyaltyEntryType, error) {
	for _, candidate := range validLoyaltyEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loyalty entry type %q", value)
}
