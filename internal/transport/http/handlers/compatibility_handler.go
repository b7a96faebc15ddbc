package handlers

import (
	"net/http"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
	compatsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/compatibility"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/transport/http/dto"
)

const maxCandidates = 500

type CompatibilityHandler struct {
	service *compatsvc.Service
}

func NewCompatibilityHandler(service *compatsvc.Service) *CompatibilityHandler {
	return &CompatibilityHandler{service: service}
}

func (h *CompatibilityHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "COMPATIBILITY_SERVICE_UNAVAILABLE", "compatibility service is unavailable")
		return
	}

	var req dto.CompatibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, h.service.CalculateCompatibility(req.User, req.Candidate, req.Preferences))
}

func (h *CompatibilityHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "COMPATIBILITY_SERVICE_UNAVAILABLE", "compatibility service is unavailable")
		return
	}

	var req dto.RecommendationsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if len(req.Candidates) > maxCandidates {
		writeBadRequest(w, "VALIDATION_ERROR", "too many candidates")
		return
	}

	items := h.service.GetRecommendations(req.User, req.Candidates, req.Preferences, req.Limit)
	if items == nil {
		items = []model.Recommendation{}
	}
	writeJSON(w, http.StatusOK, dto.RecommendationsResponse{Items: items})
}
