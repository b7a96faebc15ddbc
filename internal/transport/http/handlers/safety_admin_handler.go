package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
	redrepo "github.com/olaemy/HomeConnectproV3-sub001/internal/repo/redis"
	authsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/auth"
	evidencesvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/evidence"
	safetysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/safety"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/transport/http/dto"
	httperrors "github.com/olaemy/HomeConnectproV3-sub001/internal/transport/http/errors"
)

const summaryTopLimit = 10

type SafetySummaryReader interface {
	Summary(ctx context.Context) (redrepo.SafetySummary, error)
	Top(ctx context.Context, kind string, limit int64) ([]redrepo.TopUserItem, error)
}

type SafetyAdminHandler struct {
	safety   *safetysvc.Service
	evidence *evidencesvc.Service
	summary  SafetySummaryReader
	log      *zap.Logger
}

func NewSafetyAdminHandler(safety *safetysvc.Service, evidence *evidencesvc.Service, log *zap.Logger) *SafetyAdminHandler {
	if evidence == nil {
		evidence = evidencesvc.NewService(nil, 0, log)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SafetyAdminHandler{safety: safety, evidence: evidence, log: log}
}

func (h *SafetyAdminHandler) AttachSummary(summary SafetySummaryReader) {
	h.summary = summary
}

// Reports lists filed reports, optionally narrowed by user_id and status.
func (h *SafetyAdminHandler) Reports(w http.ResponseWriter, r *http.Request) {
	if h.safety == nil {
		writeInternal(w, "SAFETY_SERVICE_UNAVAILABLE", "safety service is unavailable")
		return
	}

	var reports []model.SafetyReport
	if userID := strings.TrimSpace(r.URL.Query().Get("user_id")); userID != "" {
		reports = h.safety.ReportsFor(userID)
	} else {
		reports = h.safety.GetAllReports()
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := enums.ReportStatus(raw)
		if !status.Valid() {
			writeBadRequest(w, "VALIDATION_ERROR", "unknown report status")
			return
		}
		filtered := reports[:0]
		for _, report := range reports {
			if report.Status == status {
				filtered = append(filtered, report)
			}
		}
		reports = filtered
	}

	views := h.evidence.Reports(r.Context(), reports)
	items := make([]dto.ReportItemResponse, 0, len(views))
	for _, view := range views {
		links := make([]dto.EvidenceLinkResponse, 0, len(view.EvidenceLinks))
		for _, link := range view.EvidenceLinks {
			links = append(links, dto.EvidenceLinkResponse{Ref: link.Ref, URL: link.URL})
		}
		items = append(items, dto.ReportItemResponse{
			ID:             view.ID,
			ReporterID:     view.ReporterID,
			ReportedUserID: view.ReportedUserID,
			Type:           string(view.Type),
			Description:    view.Description,
			Status:         string(view.Status),
			Evidence:       links,
			CreatedAt:      view.CreatedAt,
			UpdatedAt:      view.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, dto.ReportsResponse{Items: items})
}

func (h *SafetyAdminHandler) UpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	if h.safety == nil {
		writeInternal(w, "SAFETY_SERVICE_UNAVAILABLE", "safety service is unavailable")
		return
	}

	reportID := strings.TrimSpace(chi.URLParam(r, "id"))
	var req dto.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	status := enums.ReportStatus(strings.TrimSpace(req.Status))
	if reportID == "" || !status.Valid() {
		writeBadRequest(w, "VALIDATION_ERROR", "report id and a known status are required")
		return
	}

	if !h.safety.UpdateReportStatus(r.Context(), reportID, status) {
		writeNotFound(w, "REPORT_NOT_FOUND", "report not found")
		return
	}
	h.log.Info("report status updated",
		zap.String("report_id", reportID),
		zap.String("status", string(status)),
		zap.String("moderator_id", moderatorID(r)),
	)
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *SafetyAdminHandler) UpdateAccountStatus(w http.ResponseWriter, r *http.Request) {
	if h.safety == nil {
		writeInternal(w, "SAFETY_SERVICE_UNAVAILABLE", "safety service is unavailable")
		return
	}

	userID := strings.TrimSpace(chi.URLParam(r, "id"))
	var req dto.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	status := enums.AccountStatus(strings.TrimSpace(req.Status))
	if userID == "" || !status.Valid() {
		writeBadRequest(w, "VALIDATION_ERROR", "user id and a known status are required")
		return
	}

	h.safety.SetAccountStatus(r.Context(), userID, status)
	h.log.Info("account status updated",
		zap.String("user_id", userID),
		zap.String("status", string(status)),
		zap.String("moderator_id", moderatorID(r)),
	)
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

// UpdateSignals registers a user's profile facts in the ledger. These apply to
// every viewer, so only moderators may set them.
func (h *SafetyAdminHandler) UpdateSignals(w http.ResponseWriter, r *http.Request) {
	if h.safety == nil {
		writeInternal(w, "SAFETY_SERVICE_UNAVAILABLE", "safety service is unavailable")
		return
	}

	userID := strings.TrimSpace(chi.URLParam(r, "id"))
	var signals model.ProfileSignals
	if err := decodeJSON(r, &signals); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if userID == "" || !signals.VerificationLevel.Valid() || signals.TrustScore < 0 || signals.TrustScore > 100 {
		writeBadRequest(w, "VALIDATION_ERROR", "user id, a known verification level and a trust score in 0..100 are required")
		return
	}

	h.safety.UpsertSignals(userID, signals)
	h.log.Info("profile signals updated",
		zap.String("user_id", userID),
		zap.String("verification_level", string(signals.VerificationLevel)),
		zap.String("moderator_id", moderatorID(r)),
	)
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *SafetyAdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.summary == nil {
		httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{
			Code:    "SUMMARY_UNAVAILABLE",
			Message: "safety summary is unavailable",
		})
		return
	}

	summary, err := h.summary.Summary(r.Context())
	if err != nil {
		h.log.Warn("safety summary failed", zap.Error(err))
		writeTempUnavailable(w)
		return
	}
	topReported, err := h.summary.Top(r.Context(), "reported", summaryTopLimit)
	if err != nil {
		h.log.Warn("safety summary top reported failed", zap.Error(err))
		writeTempUnavailable(w)
		return
	}
	topHidden, err := h.summary.Top(r.Context(), "hidden", summaryTopLimit)
	if err != nil {
		h.log.Warn("safety summary top hidden failed", zap.Error(err))
		writeTempUnavailable(w)
		return
	}

	hidden := make(map[string]int64, len(safetysvc.DenialReasons))
	for _, reason := range safetysvc.DenialReasons {
		hidden[string(reason)] = 0
	}
	for reason, count := range summary.HiddenByReason {
		hidden[reason] = count
	}
	writeJSON(w, http.StatusOK, dto.SafetySummaryResponse{
		Reports24h:     summary.Reports24h,
		Blocks24h:      summary.Blocks24h,
		Suspensions24h: summary.Suspensions24h,
		HiddenByReason: hidden,
		TopReported:    topUsers(topReported),
		TopHidden:      topUsers(topHidden),
	})
}

func topUsers(items []redrepo.TopUserItem) []dto.TopUserResponse {
	out := make([]dto.TopUserResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.TopUserResponse{ID: item.ID, Score: item.Score})
	}
	return out
}

func moderatorID(r *http.Request) string {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		return ""
	}
	return identity.UserID
}
