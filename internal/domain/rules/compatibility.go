package rules

import (
	"math"
	"strings"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
)

const (
	AgeScoreMax          = 10.0
	BudgetScoreMax       = 15.0
	LocationScoreMax     = 10.0
	LifestyleScoreMax    = 15.0
	InterestsScoreMax    = 20.0
	DealBreakersScoreMax = 10.0
	VerificationScoreMax = 15.0
	TrustScoreMax        = 5.0

	locationFallbackScore  = 5.0
	agePenaltyPerYear      = 2.0
	budgetPenaltyPerStep   = 5.0
	budgetPenaltyStep      = 500.0
	pointsPerInterest      = 4.0
	lifestyleScaleMax      = 10
	lifestyleContinuous    = 2.0
	workFromHomeMatchBonus = 2.0
	petFriendlyMatchBonus  = 3.0
	smokingMatchBonus      = 5.0
)

const (
	DealBreakerSmoking = "smoking"
	DealBreakerPets    = "pets"
)

// LifestyleValues is a fully populated lifestyle with both scales in 0..10.
type LifestyleValues struct {
	Cleanliness  int
	SocialLevel  int
	WorkFromHome bool
	PetFriendly  bool
	Smoking      bool
}

// AgeScore is max inside [low,high] and loses 2 points per year outside.
func AgeScore(age, low, high int) float64 {
	distance := outside(age, low, high)
	return math.Max(0, AgeScoreMax-agePenaltyPerYear*float64(distance))
}

// BudgetScore is max inside [low,high] and loses 5 points per 500 outside.
func BudgetScore(budget, low, high int) float64 {
	distance := outside(budget, low, high)
	return math.Max(0, BudgetScoreMax-budgetPenaltyPerStep*float64(distance)/budgetPenaltyStep)
}

// LocationScore has no proximity model: an exact (case-insensitive) hit on
// the preferred list scores 10, any other known location scores 5.
func LocationScore(location string, preferred []string) float64 {
	value := normalizeToken(location)
	if value == "" {
		return 0
	}
	for _, candidate := range preferred {
		if normalizeToken(candidate) == value {
			return LocationScoreMax
		}
	}
	return locationFallbackScore
}

func LifestyleScore(candidate, target LifestyleValues) float64 {
	cleanliness := float64(lifestyleScaleMax - absInt(clampScale(candidate.Cleanliness)-clampScale(target.Cleanliness)))
	social := float64(lifestyleScaleMax - absInt(clampScale(candidate.SocialLevel)-clampScale(target.SocialLevel)))

	total := cleanliness + social
	if candidate.WorkFromHome == target.WorkFromHome {
		total += workFromHomeMatchBonus
	}
	if candidate.PetFriendly == target.PetFriendly {
		total += petFriendlyMatchBonus
	}
	if candidate.Smoking == target.Smoking {
		total += smokingMatchBonus
	}

	return total / lifestyleContinuous
}

// InterestsScore awards 4 points per distinct candidate interest found in
// wanted, capped at 20.
func InterestsScore(candidate, wanted []string) float64 {
	if len(candidate) == 0 || len(wanted) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(wanted))
	for _, item := range wanted {
		if token := normalizeToken(item); token != "" {
			set[token] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(candidate))
	shared := 0
	for _, item := range candidate {
		token := normalizeToken(item)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if _, ok := set[token]; ok {
			shared++
		}
	}

	return math.Min(InterestsScoreMax, pointsPerInterest*float64(shared))
}

// DealBreakersScore is 0 when any recognised deal breaker matches the
// candidate, otherwise 10. Unrecognised deal breakers are ignored.
func DealBreakersScore(dealBreakers []string, candidate LifestyleValues) float64 {
	for _, item := range dealBreakers {
		switch normalizeToken(item) {
		case DealBreakerSmoking:
			if candidate.Smoking {
				return 0
			}
		case DealBreakerPets:
			if candidate.PetFriendly {
				return 0
			}
		}
	}
	return DealBreakersScoreMax
}

func VerificationScore(level enums.VerificationLevel) float64 {
	switch level {
	case enums.VerificationBasic:
		return 3
	case enums.VerificationVerified:
		return 8
	case enums.VerificationPremium:
		return VerificationScoreMax
	default:
		return 0
	}
}

func TrustScore(trust int) float64 {
	if trust <= 0 {
		return 0
	}
	return math.Min(TrustScoreMax, math.Floor(float64(trust)/10))
}

func outside(value, low, high int) int {
	if low > high {
		low, high = high, low
	}
	switch {
	case value < low:
		return low - value
	case value > high:
		return value - high
	default:
		return 0
	}
}

func clampScale(v int) int {
	if v < 0 {
		return 0
	}
	if v > lifestyleScaleMax {
		return lifestyleScaleMax
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
