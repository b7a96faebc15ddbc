package model

import "github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"

// Lifestyle scales run 0..10. Nil means the value was not provided.
type Lifestyle struct {
	Cleanliness  *int `json:"cleanliness,omitempty"`
	SocialLevel  *int `json:"social_level,omitempty"`
	WorkFromHome bool `json:"work_from_home"`
	PetFriendly  bool `json:"pet_friendly"`
	Smoking      bool `json:"smoking"`
}

type UserProfile struct {
	ID                string                  `json:"id"`
	Age               int                     `json:"age"`
	Budget            int                     `json:"budget"`
	Location          string                  `json:"location"`
	Lifestyle         Lifestyle               `json:"lifestyle"`
	Interests         []string                `json:"interests"`
	VerificationLevel enums.VerificationLevel `json:"verification_level"`
	TrustScore        *int                    `json:"trust_score,omitempty"`
}

type Range struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

type UserPreferences struct {
	AgeRange     Range      `json:"age_range"`
	BudgetRange  Range      `json:"budget_range"`
	Locations    []string   `json:"locations"`
	Lifestyle    *Lifestyle `json:"lifestyle,omitempty"`
	Interests    []string   `json:"interests"`
	DealBreakers []string   `json:"deal_breakers"`
}
