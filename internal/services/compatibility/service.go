package compatibility

import (
	"math"
	"sort"
	"strings"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/rules"
)

const (
	defaultAge            = 25
	defaultBudget         = 1000
	defaultLifestyleLevel = 5
	defaultTrustScore     = 50
	defaultAgeMin         = 18
	defaultAgeMax         = 99
	defaultBudgetMin      = 0
	defaultBudgetMax      = math.MaxInt32
	defaultMinOverall     = 50
	defaultLimit          = 10
)

const (
	reasonAge          = "Within your preferred age range"
	reasonBudget       = "Budget fits your range"
	reasonLocation     = "Lives in your preferred area"
	reasonLifestyle    = "Very compatible lifestyle"
	reasonInterests    = "Shares several of your interests"
	reasonDealBreakers = "No deal breakers"

	lifestyleReasonCutoff = 25.0
	interestsReasonCutoff = 10.0
)

type category struct {
	name   model.CompatibilityCategory
	weight float64
	max    float64
}

var categories = []category{
	{name: model.CategoryAge, weight: 0.10, max: rules.AgeScoreMax},
	{name: model.CategoryBudget, weight: 0.15, max: rules.BudgetScoreMax},
	{name: model.CategoryLocation, weight: 0.10, max: rules.LocationScoreMax},
	{name: model.CategoryLifestyle, weight: 0.30, max: rules.LifestyleScoreMax},
	{name: model.CategoryInterests, weight: 0.20, max: rules.InterestsScoreMax},
	{name: model.CategoryDealBreakers, weight: 0.05, max: rules.DealBreakersScoreMax},
	{name: model.CategoryVerification, weight: 0.10, max: rules.VerificationScoreMax},
	{name: model.CategoryTrust, weight: 0.05, max: rules.TrustScoreMax},
}

type Config struct {
	// Scale selects how Overall is computed. Empty means percent.
	Scale model.ScoreScale
	// MinOverall is the exclusive recommendation threshold on the configured
	// scale. Zero means 50; a negative value keeps every candidate.
	MinOverall   int
	DefaultLimit int
}

type Service struct {
	cfg Config
}

type profile struct {
	age       int
	budget    int
	location  string
	lifestyle rules.LifestyleValues
	interests []string
	level     enums.VerificationLevel
	trust     int
}

type preferences struct {
	ageMin       int
	ageMax       int
	budgetMin    int
	budgetMax    int
	locations    []string
	lifestyle    *rules.LifestyleValues
	interests    []string
	dealBreakers []string
}

func NewService(cfg Config) *Service {
	switch cfg.Scale {
	case model.ScoreScaleRaw, model.ScoreScalePercent:
	default:
		cfg.Scale = model.ScoreScalePercent
	}
	if cfg.MinOverall == 0 {
		cfg.MinOverall = defaultMinOverall
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}

	return &Service{cfg: cfg}
}

// CalculateCompatibility scores candidate against the viewer's preferences.
// The result is directional: the viewer's lifestyle and interests are the
// targets, the candidate's attributes are measured against them.
func (s *Service) CalculateCompatibility(user, candidate model.UserProfile, prefs model.UserPreferences) model.CompatibilityScore {
	viewer := normalizeProfile(user)
	target := normalizeProfile(candidate)
	wants := normalizePreferences(prefs)

	lifestyleTarget := viewer.lifestyle
	if wants.lifestyle != nil {
		lifestyleTarget = *wants.lifestyle
	}

	breakdown := map[model.CompatibilityCategory]float64{
		model.CategoryAge:          rules.AgeScore(target.age, wants.ageMin, wants.ageMax),
		model.CategoryBudget:       rules.BudgetScore(target.budget, wants.budgetMin, wants.budgetMax),
		model.CategoryLocation:     rules.LocationScore(target.location, wants.locations),
		model.CategoryLifestyle:    rules.LifestyleScore(target.lifestyle, lifestyleTarget),
		model.CategoryInterests:    rules.InterestsScore(target.interests, mergeTokens(viewer.interests, wants.interests)),
		model.CategoryDealBreakers: rules.DealBreakersScore(wants.dealBreakers, target.lifestyle),
		model.CategoryVerification: rules.VerificationScore(target.level),
		model.CategoryTrust:        rules.TrustScore(target.trust),
	}

	return model.CompatibilityScore{
		Overall:   s.overall(breakdown),
		Scale:     s.cfg.Scale,
		Breakdown: breakdown,
		Reasons:   reasons(breakdown),
	}
}

// GetRecommendations ranks candidates for user, excluding the user itself and
// every candidate at or below the configured threshold.
func (s *Service) GetRecommendations(user model.UserProfile, candidates []model.UserProfile, prefs model.UserPreferences, limit int) []model.Recommendation {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	userID := strings.TrimSpace(user.ID)
	out := make([]model.Recommendation, 0, len(candidates))
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.ID) == userID {
			continue
		}

		score := s.CalculateCompatibility(user, candidate, prefs)
		if score.Overall <= s.cfg.MinOverall {
			continue
		}
		out = append(out, model.Recommendation{Candidate: candidate, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score.Overall != out[j].Score.Overall {
			return out[i].Score.Overall > out[j].Score.Overall
		}
		return out[i].Candidate.ID < out[j].Candidate.ID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Service) overall(breakdown map[model.CompatibilityCategory]float64) int {
	var total, weights float64
	for _, c := range categories {
		value := breakdown[c.name]
		if s.cfg.Scale == model.ScoreScaleRaw {
			total += c.weight * value
			continue
		}
		total += c.weight * (value / c.max)
		weights += c.weight
	}

	if s.cfg.Scale == model.ScoreScaleRaw {
		return int(math.Round(total))
	}
	if weights <= 0 {
		return 0
	}
	return int(math.Round(total / weights * 100))
}

func reasons(breakdown map[model.CompatibilityCategory]float64) []string {
	out := make([]string, 0, 6)
	if breakdown[model.CategoryAge] >= rules.AgeScoreMax {
		out = append(out, reasonAge)
	}
	if breakdown[model.CategoryBudget] >= rules.BudgetScoreMax {
		out = append(out, reasonBudget)
	}
	if breakdown[model.CategoryLocation] >= rules.LocationScoreMax {
		out = append(out, reasonLocation)
	}
	if breakdown[model.CategoryLifestyle] > lifestyleReasonCutoff {
		out = append(out, reasonLifestyle)
	}
	if breakdown[model.CategoryInterests] > interestsReasonCutoff {
		out = append(out, reasonInterests)
	}
	if breakdown[model.CategoryDealBreakers] >= rules.DealBreakersScoreMax {
		out = append(out, reasonDealBreakers)
	}
	return out
}

func normalizeProfile(p model.UserProfile) profile {
	out := profile{
		age:       p.Age,
		budget:    p.Budget,
		location:  strings.TrimSpace(p.Location),
		lifestyle: normalizeLifestyle(p.Lifestyle),
		interests: append([]string(nil), p.Interests...),
		level:     p.VerificationLevel,
		trust:     defaultTrustScore,
	}
	if out.age <= 0 {
		out.age = defaultAge
	}
	if out.budget <= 0 {
		out.budget = defaultBudget
	}
	if !out.level.Valid() {
		out.level = enums.VerificationUnverified
	}
	if p.TrustScore != nil {
		out.trust = clamp(*p.TrustScore, 0, 100)
	}
	return out
}

func normalizePreferences(p model.UserPreferences) preferences {
	out := preferences{
		ageMin:       intOr(p.AgeRange.Min, defaultAgeMin),
		ageMax:       intOr(p.AgeRange.Max, defaultAgeMax),
		budgetMin:    intOr(p.BudgetRange.Min, defaultBudgetMin),
		budgetMax:    intOr(p.BudgetRange.Max, defaultBudgetMax),
		locations:    append([]string(nil), p.Locations...),
		interests:    append([]string(nil), p.Interests...),
		dealBreakers: append([]string(nil), p.DealBreakers...),
	}
	if p.Lifestyle != nil {
		lifestyle := normalizeLifestyle(*p.Lifestyle)
		out.lifestyle = &lifestyle
	}
	return out
}

func normalizeLifestyle(l model.Lifestyle) rules.LifestyleValues {
	return rules.LifestyleValues{
		Cleanliness:  clamp(intOr(l.Cleanliness, defaultLifestyleLevel), 0, 10),
		SocialLevel:  clamp(intOr(l.SocialLevel, defaultLifestyleLevel), 0, 10),
		WorkFromHome: l.WorkFromHome,
		PetFriendly:  l.PetFriendly,
		Smoking:      l.Smoking,
	}
}

func mergeTokens(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
