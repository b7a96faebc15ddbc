package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
	authsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/auth"
	discoverysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/discovery"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/transport/http/dto"
)

type DiscoveryHandler struct {
	service *discoverysvc.Service
	log     *zap.Logger
}

func NewDiscoveryHandler(service *discoverysvc.Service, log *zap.Logger) *DiscoveryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DiscoveryHandler{service: service, log: log}
}

// Handle gates and ranks the posted candidates for the authenticated viewer.
// The viewer id always comes from the identity, never from the body.
func (h *DiscoveryHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}

	var req dto.DiscoveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if len(req.Candidates) > maxCandidates {
		writeBadRequest(w, "VALIDATION_ERROR", "too many candidates")
		return
	}
	if id := strings.TrimSpace(req.Viewer.ID); id != "" && id != identity.UserID {
		writeBadRequest(w, "VALIDATION_ERROR", "viewer id does not match the caller")
		return
	}
	req.Viewer.ID = identity.UserID

	candidates := make([]discoverysvc.Candidate, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		candidates = append(candidates, discoverysvc.Candidate{Profile: c.Profile, Signals: c.Signals})
	}

	result, err := h.service.Discover(r.Context(), discoverysvc.Request{
		Viewer:      req.Viewer,
		Preferences: req.Preferences,
		Candidates:  candidates,
		SafeMode:    req.SafeMode,
		MinScore:    req.MinScore,
		Limit:       req.Limit,
	})
	if err != nil {
		if errors.Is(err, discoverysvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid discovery request")
			return
		}
		h.log.Error("discovery failed", zap.String("viewer_id", identity.UserID), zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to run discovery")
		return
	}

	items := result.Recommendations
	if items == nil {
		items = []model.Recommendation{}
	}
	hidden := make(map[string]int, len(result.HiddenByReason))
	for reason, count := range result.HiddenByReason {
		hidden[string(reason)] = count
	}
	writeJSON(w, http.StatusOK, dto.DiscoveryResponse{
		Items:          items,
		HiddenCount:    result.HiddenCount,
		HiddenByReason: hidden,
	})
}
