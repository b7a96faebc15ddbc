package model

type CompatibilityCategory string

const (
	CategoryAge          CompatibilityCategory = "age"
	CategoryBudget       CompatibilityCategory = "budget"
	CategoryLocation     CompatibilityCategory = "location"
	CategoryLifestyle    CompatibilityCategory = "lifestyle"
	CategoryInterests    CompatibilityCategory = "interests"
	CategoryDealBreakers CompatibilityCategory = "dealBreakers"
	CategoryVerification CompatibilityCategory = "verification"
	CategoryTrust        CompatibilityCategory = "trust"
)

// Categories lists every compatibility category in declaration order.
var Categories = []CompatibilityCategory{
	CategoryAge,
	CategoryBudget,
	CategoryLocation,
	CategoryLifestyle,
	CategoryInterests,
	CategoryDealBreakers,
	CategoryVerification,
	CategoryTrust,
}

type ScoreScale string

const (
	// ScoreScaleRaw is the weighted sum of raw sub-scores (max 15).
	ScoreScaleRaw ScoreScale = "raw"
	// ScoreScalePercent normalizes every sub-score to [0,1] before weighting.
	ScoreScalePercent ScoreScale = "percent"
)

type CompatibilityScore struct {
	Overall   int                               `json:"overall"`
	Scale     ScoreScale                        `json:"scale"`
	Breakdown map[CompatibilityCategory]float64 `json:"breakdown"`
	Reasons   []string                          `json:"reasons"`
}

type Recommendation struct {
	Candidate UserProfile        `json:"candidate"`
	Score     CompatibilityScore `json:"score"`
}
