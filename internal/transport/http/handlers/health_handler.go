package handlers

import (
	"net/http"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/transport/http/dto"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}
