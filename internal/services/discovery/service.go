package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
	safetysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/safety"
)

const (
	defaultLimit      = 10
	maxLimit          = 50
	defaultTrustScore = 50
)

var ErrValidation = errors.New("validation error")

type Gate interface {
	EvaluateWith(userID string, signals model.ProfileSignals, opts safetysvc.GateOptions) safetysvc.Decision
}

type Ranker interface {
	GetRecommendations(user model.UserProfile, candidates []model.UserProfile, prefs model.UserPreferences, limit int) []model.Recommendation
}

type GateObserver interface {
	ObserveGateDecision(ctx context.Context, userID, reason string) error
}

type Config struct {
	DefaultLimit int
	MaxLimit     int
}

type Service struct {
	gate     Gate
	ranker   Ranker
	observer GateObserver
	cfg      Config
	log      *zap.Logger
}

// Candidate is a card to consider. Signals overrides the profile-derived
// safety signals when set. Both only describe the card for this request;
// facts already registered in the ledger take precedence.
type Candidate struct {
	Profile model.UserProfile
	Signals *model.ProfileSignals
}

type Request struct {
	Viewer      model.UserProfile
	Preferences model.UserPreferences
	Candidates  []Candidate
	SafeMode    bool
	MinScore    *int
	Limit       int
}

type Result struct {
	Recommendations []model.Recommendation
	HiddenCount     int
	HiddenByReason  map[safetysvc.DenialReason]int
}

func NewService(gate Gate, ranker Ranker, cfg Config) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = maxLimit
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}

	return &Service{
		gate:   gate,
		ranker: ranker,
		cfg:    cfg,
		log:    zap.NewNop(),
	}
}

func (s *Service) AttachGateObserver(observer GateObserver) {
	s.observer = observer
}

func (s *Service) AttachLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	s.log = log
}

// Discover gates every candidate for the viewer, then ranks the survivors.
func (s *Service) Discover(ctx context.Context, req Request) (Result, error) {
	viewerID := strings.TrimSpace(req.Viewer.ID)
	if viewerID == "" {
		return Result{}, ErrValidation
	}
	if s.gate == nil {
		return Result{}, fmt.Errorf("safety gate is nil")
	}
	if s.ranker == nil {
		return Result{}, fmt.Errorf("compatibility ranker is nil")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	opts := safetysvc.GateOptions{
		ViewerID: viewerID,
		SafeMode: req.SafeMode,
		MinScore: req.MinScore,
	}

	result := Result{HiddenByReason: make(map[safetysvc.DenialReason]int)}
	visible := make([]model.UserProfile, 0, len(req.Candidates))
	seen := make(map[string]struct{}, len(req.Candidates))
	for _, candidate := range req.Candidates {
		id := strings.TrimSpace(candidate.Profile.ID)
		if id == "" || id == viewerID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		decision := s.gate.EvaluateWith(id, signalsFor(candidate), opts)
		if !decision.Visible {
			result.HiddenCount++
			result.HiddenByReason[decision.Reason]++
			s.observe(ctx, id, decision.Reason)
			continue
		}
		visible = append(visible, candidate.Profile)
	}

	result.Recommendations = s.ranker.GetRecommendations(req.Viewer, visible, req.Preferences, limit)
	s.log.Debug("discovery evaluated",
		zap.String("viewer_id", viewerID),
		zap.Int("candidates", len(seen)),
		zap.Int("hidden", result.HiddenCount),
		zap.Int("returned", len(result.Recommendations)),
	)

	return result, nil
}

func (s *Service) observe(ctx context.Context, userID string, reason safetysvc.DenialReason) {
	if s.observer == nil {
		return
	}
	if err := s.observer.ObserveGateDecision(ctx, userID, string(reason)); err != nil {
		s.log.Warn("observe gate decision failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func signalsFor(candidate Candidate) model.ProfileSignals {
	if candidate.Signals != nil {
		return *candidate.Signals
	}

	level := candidate.Profile.VerificationLevel
	if !level.Valid() {
		level = enums.VerificationUnverified
	}
	trust := defaultTrustScore
	if candidate.Profile.TrustScore != nil {
		trust = *candidate.Profile.TrustScore
	}

	return model.ProfileSignals{
		VerificationLevel: level,
		TrustScore:        trust,
	}
}
