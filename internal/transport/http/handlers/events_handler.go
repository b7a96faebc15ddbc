package handlers

import (
	"errors"
	"net/http"
	"strings"

	analyticsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/analytics"
	authsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/auth"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/transport/http/dto"
	httperrors "github.com/olaemy/HomeConnectproV3-sub001/internal/transport/http/errors"
)

// serverEventPrefix is reserved for events the safety ledger emits itself.
const serverEventPrefix = "safety_"

type EventsHandler struct {
	service *analyticsvc.Service
}

func NewEventsHandler(service *analyticsvc.Service) *EventsHandler {
	return &EventsHandler{service: service}
}

func (h *EventsHandler) Batch(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "EVENTS_SERVICE_UNAVAILABLE", "events service is unavailable")
		return
	}

	var req dto.EventsBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	input := make([]analyticsvc.BatchEvent, 0, len(req))
	for _, item := range req {
		if strings.HasPrefix(strings.TrimSpace(item.Name), serverEventPrefix) {
			writeBadRequest(w, "VALIDATION_ERROR", "event names with prefix safety_ are reserved")
			return
		}
		input = append(input, analyticsvc.BatchEvent{
			Name:  item.Name,
			TS:    item.TS,
			Props: item.Props,
		})
	}

	if err := h.service.IngestBatch(r.Context(), identity.UserID, input); err != nil {
		switch {
		case errors.Is(err, analyticsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid events batch: max 100 events, each with non-empty name")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to ingest events")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.EventsBatchResponse{
		OK:       true,
		Accepted: len(input),
	})
}
