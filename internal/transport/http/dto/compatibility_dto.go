package dto

import "github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"

type CompatibilityRequest struct {
	User        model.UserProfile     `json:"user"`
	Candidate   model.UserProfile     `json:"candidate"`
	Preferences model.UserPreferences `json:"preferences"`
}

type RecommendationsRequest struct {
	User        model.UserProfile     `json:"user"`
	Candidates  []model.UserProfile   `json:"candidates"`
	Preferences model.UserPreferences `json:"preferences"`
	Limit       int                   `json:"limit"`
}

type RecommendationsResponse struct {
	Items []model.Recommendation `json:"items"`
}

type DiscoveryCandidateRequest struct {
	Profile model.UserProfile     `json:"profile"`
	Signals *model.ProfileSignals `json:"signals,omitempty"`
}

type DiscoveryRequest struct {
	Viewer      model.UserProfile           `json:"viewer"`
	Preferences model.UserPreferences       `json:"preferences"`
	Candidates  []DiscoveryCandidateRequest `json:"candidates"`
	SafeMode    bool                        `json:"safe_mode"`
	MinScore    *int                        `json:"min_score,omitempty"`
	Limit       int                         `json:"limit"`
}

type DiscoveryResponse struct {
	Items          []model.Recommendation `json:"items"`
	HiddenCount    int                    `json:"hidden_count"`
	HiddenByReason map[string]int         `json:"hidden_by_reason"`
}
