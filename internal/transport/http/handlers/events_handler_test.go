package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pgrepo "github.com/olaemy/HomeConnectproV3-sub001/internal/repo/postgres"
	analyticsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/analytics"
)

func TestEventsBatchStoresClientEvents(t *testing.T) {
	store := &eventStoreStub{}
	h := NewEventsHandler(analyticsvc.NewService(store, analyticsvc.Config{MaxBatchSize: 2}, nil))

	rr := httptest.NewRecorder()
	h.Batch(rr, jsonRequest(t, http.MethodPost, "/events/batch", "u-1", []map[string]any{
		{"name": "safe_mode_toggled", "ts": 1700000000000, "props": map[string]any{"enabled": true}},
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		Accepted int `json:"accepted"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Accepted != 1 || len(store.rows) != 1 || store.userID != "u-1" {
		t.Fatalf("unexpected ingest: accepted=%d rows=%d user=%q", resp.Accepted, len(store.rows), store.userID)
	}
}

func TestEventsBatchRejectsReservedAndOversizedBatches(t *testing.T) {
	store := &eventStoreStub{}
	h := NewEventsHandler(analyticsvc.NewService(store, analyticsvc.Config{MaxBatchSize: 2}, nil))

	rr := httptest.NewRecorder()
	h.Batch(rr, jsonRequest(t, http.MethodPost, "/events/batch", "u-1", []map[string]any{
		{"name": "safety_report_filed"},
	}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("reserved name: got %d want %d", rr.Code, http.StatusBadRequest)
	}

	rr = httptest.NewRecorder()
	h.Batch(rr, jsonRequest(t, http.MethodPost, "/events/batch", "u-1", []map[string]any{
		{"name": "a"}, {"name": "b"}, {"name": "c"},
	}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("oversized batch: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	if len(store.rows) != 0 {
		t.Fatalf("nothing should be stored, got %d rows", len(store.rows))
	}
}

type eventStoreStub struct {
	userID string
	rows   []pgrepo.EventWriteRecord
}

func (s *eventStoreStub) InsertBatch(_ context.Context, userID string, events []pgrepo.EventWriteRecord) error {
	s.userID = userID
	s.rows = append(s.rows, events...)
	return nil
}
