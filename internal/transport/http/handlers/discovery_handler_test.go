package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	compatsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/compatibility"
	discoverysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/discovery"
	safetysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/safety"
)

func TestCompatibilityCalculate(t *testing.T) {
	h := NewCompatibilityHandler(compatsvc.NewService(compatsvc.Config{}))

	rr := httptest.NewRecorder()
	h.Calculate(rr, jsonRequest(t, http.MethodPost, "/compatibility", "u-1", map[string]any{
		"user":        map[string]any{"id": "u-1", "age": 25, "budget": 1000},
		"candidate":   map[string]any{"id": "u-2", "age": 25, "budget": 1000},
		"preferences": map[string]any{},
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var score struct {
		Overall   int                `json:"overall"`
		Scale     string             `json:"scale"`
		Breakdown map[string]float64 `json:"breakdown"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &score); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if score.Scale != "percent" || score.Overall < 0 || score.Overall > 100 {
		t.Fatalf("unexpected score: %+v", score)
	}
	if len(score.Breakdown) != 8 {
		t.Fatalf("unexpected breakdown size: got %d want 8", len(score.Breakdown))
	}

	rr = httptest.NewRecorder()
	h.Calculate(rr, jsonRequest(t, http.MethodPost, "/compatibility", "u-1", map[string]any{"unknown": true}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCompatibilityRecommendationsEmpty(t *testing.T) {
	h := NewCompatibilityHandler(compatsvc.NewService(compatsvc.Config{}))

	rr := httptest.NewRecorder()
	h.Recommendations(rr, jsonRequest(t, http.MethodPost, "/recommendations", "u-1", map[string]any{
		"user":       map[string]any{"id": "u-1"},
		"candidates": []any{},
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "{\"items\":[]}\n" {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestDiscoveryUsesCallerAsViewer(t *testing.T) {
	safety := safetysvc.NewService(safetysvc.Config{})
	discovery := discoverysvc.NewService(safety, compatsvc.NewService(compatsvc.Config{MinOverall: -1}), discoverysvc.Config{})
	h := NewDiscoveryHandler(discovery, nil)

	safety.BlockUser(context.Background(), "u-1", "u-2")
	verified := map[string]any{
		"verification_level": "verified",
		"trust_score":        90,
		"photo_verified":     true,
	}

	rr := httptest.NewRecorder()
	h.Handle(rr, jsonRequest(t, http.MethodPost, "/discovery", "u-1", map[string]any{
		"viewer": map[string]any{"age": 25},
		"candidates": []any{
			map[string]any{"profile": map[string]any{"id": "u-2"}, "signals": verified},
			map[string]any{"profile": map[string]any{"id": "u-3"}, "signals": verified},
		},
		"safe_mode": true,
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		Items []struct {
			Candidate struct {
				ID string `json:"id"`
			} `json:"candidate"`
		} `json:"items"`
		HiddenCount    int            `json:"hidden_count"`
		HiddenByReason map[string]int `json:"hidden_by_reason"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Candidate.ID != "u-3" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	if resp.HiddenCount != 1 || resp.HiddenByReason["blocked"] != 1 {
		t.Fatalf("unexpected hidden stats: %+v", resp)
	}

	rr = httptest.NewRecorder()
	h.Handle(rr, jsonRequest(t, http.MethodPost, "/discovery", "u-1", map[string]any{
		"viewer": map[string]any{"id": "u-7"},
	}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("foreign viewer id: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}
