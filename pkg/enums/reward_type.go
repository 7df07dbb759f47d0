package enums

import "fmt"

// RewardType selects the point formula a reward rule applies.
type RewardType string

const (
	RewardTypeFixed      RewardType = "fixed"
	RewardTypeMultiplier RewardType = "multiplier"
	RewardTypePercentage RewardType = "percentage"
	RewardTypeStep       RewardType = "step"
)

var validRewardTypes = []RewardType{
	RewardTypeFixed,
	RewardTypeMultiplier,
	RewardTypePercentage,
	RewardTypeStep,
}

// IsValid reports whether the value is a known RewardType.
func (t RewardType) IsValid() bool {
	for _, candidate := range validRewardTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseRewardType converts raw input into a RewardType.
func ParseRewardType(value string) (RewardType, error) {
	for _, candidate := range validRewardTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reward type %q", value)
}
