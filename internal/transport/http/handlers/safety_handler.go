package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
	authsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/auth"
	ratesvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/rate"
	safetysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/safety"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/transport/http/dto"
	httperrors "github.com/olaemy/HomeConnectproV3-sub001/internal/transport/http/errors"
)

const (
	maxDescriptionLen = 2000
	maxEvidenceRefs   = 10
)

type SafetyHandler struct {
	safety  *safetysvc.Service
	limiter *ratesvc.Limiter
}

func NewSafetyHandler(safety *safetysvc.Service, limiter *ratesvc.Limiter) *SafetyHandler {
	return &SafetyHandler{safety: safety, limiter: limiter}
}

func (h *SafetyHandler) Report(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.safety == nil {
		writeInternal(w, "SAFETY_SERVICE_UNAVAILABLE", "safety service is unavailable")
		return
	}

	var req dto.CreateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	reportType := enums.ReportType(strings.TrimSpace(req.Type))
	if strings.TrimSpace(req.ReportedUserID) == "" || !reportType.Valid() {
		writeBadRequest(w, "VALIDATION_ERROR", "reported_user_id and a known type are required")
		return
	}
	if len(req.Description) > maxDescriptionLen || len(req.Evidence) > maxEvidenceRefs {
		writeBadRequest(w, "VALIDATION_ERROR", "description or evidence is too large")
		return
	}

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowReport(r.Context(), identity.UserID)
		if err != nil {
			writeTempUnavailable(w)
			return
		}
		if !allowed {
			until := time.Now().UTC().Add(time.Duration(retryAfter) * time.Second)
			httperrors.WriteRetry(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "REPORT_RATE_LIMIT",
				Message:       "too many reports, slow down",
				RetryAfterSec: retryAfter,
				CooldownUntil: &until,
			})
			return
		}
	}

	reportID := h.safety.ReportUser(r.Context(), safetysvc.ReportInput{
		ReporterID:     identity.UserID,
		ReportedUserID: req.ReportedUserID,
		Type:           reportType,
		Description:    req.Description,
		Evidence:       req.Evidence,
	})
	writeJSON(w, http.StatusCreated, dto.CreateReportResponse{OK: true, ReportID: reportID})
}

func (h *SafetyHandler) Block(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.safety == nil {
		writeInternal(w, "SAFETY_SERVICE_UNAVAILABLE", "safety service is unavailable")
		return
	}

	var req dto.BlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	blockedID := strings.TrimSpace(req.UserID)
	if blockedID == "" || blockedID == identity.UserID {
		writeBadRequest(w, "VALIDATION_ERROR", "user_id must name another user")
		return
	}

	h.safety.BlockUser(r.Context(), identity.UserID, blockedID)
	writeJSON(w, http.StatusOK, dto.BlockStatusResponse{UserID: blockedID, Blocked: true})
}

func (h *SafetyHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.safety == nil {
		writeInternal(w, "SAFETY_SERVICE_UNAVAILABLE", "safety service is unavailable")
		return
	}

	blockedID := strings.TrimSpace(chi.URLParam(r, "id"))
	if blockedID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "user id is required")
		return
	}

	h.safety.UnblockUser(r.Context(), identity.UserID, blockedID)
	writeJSON(w, http.StatusOK, dto.BlockStatusResponse{UserID: blockedID, Blocked: false})
}

func (h *SafetyHandler) BlockStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.safety == nil {
		writeInternal(w, "SAFETY_SERVICE_UNAVAILABLE", "safety service is unavailable")
		return
	}

	blockedID := strings.TrimSpace(chi.URLParam(r, "id"))
	if blockedID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "user id is required")
		return
	}

	writeJSON(w, http.StatusOK, dto.BlockStatusResponse{
		UserID:  blockedID,
		Blocked: h.safety.IsUserBlocked(identity.UserID, blockedID),
	})
}

// UserSafety reports how the gate treats a user for the calling viewer.
// safe_mode defaults to on.
func (h *SafetyHandler) UserSafety(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.safety == nil {
		writeInternal(w, "SAFETY_SERVICE_UNAVAILABLE", "safety service is unavailable")
		return
	}

	userID := strings.TrimSpace(chi.URLParam(r, "id"))
	if userID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "user id is required")
		return
	}
	safeMode, ok := queryBool(r, "safe_mode", true)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "safe_mode must be a boolean")
		return
	}
	minScore, ok := queryOptionalInt(r, "min_score")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "min_score must be an integer")
		return
	}

	decision := h.safety.Evaluate(userID, safetysvc.GateOptions{
		ViewerID: identity.UserID,
		SafeMode: safeMode,
		MinScore: minScore,
	})
	writeJSON(w, http.StatusOK, dto.UserSafetyResponse{
		UserID:        userID,
		Flags:         decision.Flags,
		Score:         decision.Score,
		AccountStatus: string(h.safety.AccountStatus(userID)),
		ReportCount:   len(h.safety.ReportsFor(userID)),
		Visible:       decision.Visible,
		DenialReason:  string(decision.Reason),
	})
}
