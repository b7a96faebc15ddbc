package safety

import (
	"strings"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
)

type DenialReason string

const (
	ReasonAccountStatus    DenialReason = "account_status"
	ReasonBlocked          DenialReason = "blocked"
	ReasonUnverifiedPhotos DenialReason = "unverified_photos"
	ReasonLowScore         DenialReason = "low_score"
	ReasonPolicy           DenialReason = "policy"
)

// DenialReasons lists every reason in gate evaluation order.
var DenialReasons = []DenialReason{
	ReasonAccountStatus,
	ReasonBlocked,
	ReasonUnverifiedPhotos,
	ReasonLowScore,
	ReasonPolicy,
}

type GateOptions struct {
	ViewerID string
	SafeMode bool
	// MinScore overrides the configured default threshold when set.
	MinScore *int
}

type Decision struct {
	Visible bool
	Reason  DenialReason
	Score   int
	Flags   model.SafetyFlags
}

// IsSafeToShow is the single visibility gate every card list goes through.
func (s *Service) IsSafeToShow(userID string, opts GateOptions) bool {
	return s.Evaluate(userID, opts).Visible
}

// Evaluate runs the gate and reports the first rule that denied the user.
// A non-active account is hidden regardless of safe mode.
func (s *Service) Evaluate(userID string, opts GateOptions) Decision {
	return s.evaluate(userID, nil, opts)
}

// EvaluateWith gates userID using signals as request-scoped profile facts.
// Facts registered with UpsertSignals win over the passed ones, and nothing is
// stored, so one caller's signals never reach another viewer's gate.
func (s *Service) EvaluateWith(userID string, signals model.ProfileSignals, opts GateOptions) Decision {
	return s.evaluate(userID, &signals, opts)
}

func (s *Service) evaluate(userID string, fallback *model.ProfileSignals, opts GateOptions) Decision {
	userID = strings.TrimSpace(userID)
	viewerID := strings.TrimSpace(opts.ViewerID)
	minScore := s.cfg.DefaultMinScore
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}

	s.mu.RLock()
	status := s.statusLocked(userID)
	blocked := viewerID != "" && s.isBlockedLocked(viewerID, userID)
	signals, ok := s.signals[userID]
	if !ok {
		signals = defaultSignals()
		if fallback != nil {
			signals = *fallback
		}
	}
	flags := s.flagsFrom(len(s.byUser[userID]), signals)
	s.mu.RUnlock()

	decision := Decision{Flags: flags, Score: s.score(flags)}
	switch {
	case status != enums.AccountStatusActive:
		decision.Reason = ReasonAccountStatus
	case !opts.SafeMode:
		decision.Visible = true
	case blocked:
		decision.Reason = ReasonBlocked
	case flags.HasUnverifiedPhotos:
		decision.Reason = ReasonUnverifiedPhotos
	case decision.Score < minScore:
		decision.Reason = ReasonLowScore
	case shouldHide(flags, gateSettings(minScore)):
		decision.Reason = ReasonPolicy
	default:
		decision.Visible = true
	}
	return decision
}

func gateSettings(minScore int) model.SafetySettings {
	return model.SafetySettings{
		SafeMode:              true,
		HideUnverifiedUsers:   true,
		MinimumTrustScore:     minScore,
		AutoHideReportedUsers: true,
	}
}
