package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
	redrepo "github.com/olaemy/HomeConnectproV3-sub001/internal/repo/redis"
	authsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/auth"
	ratesvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/rate"
	safetysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/safety"
)

func TestReportReturnsTempUnavailableOnRedisError(t *testing.T) {
	limiter := ratesvc.NewLimiter(windowStoreStub{err: errors.New("redis unavailable")}, 3, 10)
	h := NewSafetyHandler(safetysvc.NewService(safetysvc.Config{}), limiter)

	rr := httptest.NewRecorder()
	h.Report(rr, jsonRequest(t, http.MethodPost, "/safety/reports", "u-1", map[string]any{
		"reported_user_id": "u-2",
		"type":             "spam",
	}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown type: got %d want %d", rr.Code, http.StatusBadRequest)
	}

	rr = httptest.NewRecorder()
	h.Report(rr, jsonRequest(t, http.MethodPost, "/safety/reports", "u-1", map[string]any{
		"reported_user_id": "u-2",
		"type":             "scam",
		"description":      "asked for a deposit",
	}))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusServiceUnavailable)
	}

	var payload struct {
		Code          string `json:"code"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "TEMP_UNAVAILABLE" || payload.RetryAfterSec != 10 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestReportIsThrottledPerReporter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	safety := safetysvc.NewService(safetysvc.Config{})
	h := NewSafetyHandler(safety, ratesvc.NewLimiter(redrepo.NewRateRepo(client), 2, 10))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.Report(rr, jsonRequest(t, http.MethodPost, "/safety/reports", "u-1", map[string]any{
			"reported_user_id": "u-2",
			"type":             "harassment",
			"evidence":         []string{"evidence/u-2/1.jpg"},
		}))
		if rr.Code != http.StatusCreated {
			t.Fatalf("report %d: got %d want %d", i, rr.Code, http.StatusCreated)
		}
		var resp struct {
			OK       bool   `json:"ok"`
			ReportID string `json:"report_id"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.OK || resp.ReportID == "" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	}

	rr := httptest.NewRecorder()
	h.Report(rr, jsonRequest(t, http.MethodPost, "/safety/reports", "u-1", map[string]any{
		"reported_user_id": "u-3",
		"type":             "other",
	}))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("throttled report: got %d want %d", rr.Code, http.StatusTooManyRequests)
	}
	var limited struct {
		Code          string `json:"code"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &limited); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if limited.Code != "REPORT_RATE_LIMIT" || limited.RetryAfterSec <= 0 {
		t.Fatalf("unexpected rate limit payload: %+v", limited)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	rr = httptest.NewRecorder()
	h.Report(rr, jsonRequest(t, http.MethodPost, "/safety/reports", "u-9", map[string]any{
		"reported_user_id": "u-3",
		"type":             "other",
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("other reporter: got %d want %d", rr.Code, http.StatusCreated)
	}

	if got := len(safety.ReportsFor("u-2")); got != 2 {
		t.Fatalf("reports for u-2: got %d want 2", got)
	}
	if got := safety.ReportsFor("u-2")[0].ReporterID; got != "u-1" {
		t.Fatalf("reporter id should come from identity: got %q", got)
	}
}

func TestReportRequiresIdentity(t *testing.T) {
	h := NewSafetyHandler(safetysvc.NewService(safetysvc.Config{}), nil)

	req := httptest.NewRequest(http.MethodPost, "/safety/reports", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()
	h.Report(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestBlockFlow(t *testing.T) {
	safety := safetysvc.NewService(safetysvc.Config{})
	h := NewSafetyHandler(safety, nil)

	rr := httptest.NewRecorder()
	h.Block(rr, jsonRequest(t, http.MethodPost, "/safety/blocks", "u-1", map[string]any{"user_id": "u-1"}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("self block: got %d want %d", rr.Code, http.StatusBadRequest)
	}

	rr = httptest.NewRecorder()
	h.Block(rr, jsonRequest(t, http.MethodPost, "/safety/blocks", "u-1", map[string]any{"user_id": "u-2"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("block: got %d want %d", rr.Code, http.StatusOK)
	}
	if !safety.IsUserBlocked("u-1", "u-2") {
		t.Fatalf("expected u-2 to be blocked by u-1")
	}

	status := func(viewer string) bool {
		req := withViewer(httptest.NewRequest(http.MethodGet, "/safety/blocks/u-2", nil), viewer)
		req = req.WithContext(withURLParam(req.Context(), "id", "u-2"))
		rr := httptest.NewRecorder()
		h.BlockStatus(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("block status: got %d want %d", rr.Code, http.StatusOK)
		}
		var resp struct {
			Blocked bool `json:"blocked"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp.Blocked
	}
	if !status("u-1") {
		t.Fatalf("expected blocked for u-1")
	}
	if status("u-3") {
		t.Fatalf("blocks must be scoped to the viewer")
	}

	req := withViewer(httptest.NewRequest(http.MethodDelete, "/safety/blocks/u-2", nil), "u-1")
	req = req.WithContext(withURLParam(req.Context(), "id", "u-2"))
	rr = httptest.NewRecorder()
	h.Unblock(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("unblock: got %d want %d", rr.Code, http.StatusOK)
	}
	if status("u-1") {
		t.Fatalf("expected unblocked")
	}
}

func TestUserSafetyReportsDecision(t *testing.T) {
	safety := safetysvc.NewService(safetysvc.Config{})
	verified := true
	safety.UpsertSignals("u-2", model.ProfileSignals{
		VerificationLevel: enums.VerificationVerified,
		PhotoVerified:     &verified,
		TrustScore:        80,
		AccountCreatedAt:  time.Now().Add(-90 * 24 * time.Hour),
	})
	h := NewSafetyHandler(safety, nil)

	get := func(query string) (int, map[string]any) {
		req := withViewer(httptest.NewRequest(http.MethodGet, "/safety/users/u-2"+query, nil), "u-1")
		req = req.WithContext(withURLParam(req.Context(), "id", "u-2"))
		rr := httptest.NewRecorder()
		h.UserSafety(rr, req)
		payload := map[string]any{}
		if rr.Code == http.StatusOK {
			if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
		}
		return rr.Code, payload
	}

	code, payload := get("")
	if code != http.StatusOK {
		t.Fatalf("unexpected status: got %d", code)
	}
	if payload["visible"] != true || payload["score"] != float64(100) || payload["account_status"] != "active" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	safety.BlockUser(context.Background(), "u-1", "u-2")
	_, payload = get("?safe_mode=true")
	if payload["visible"] != false || payload["denial_reason"] != "blocked" {
		t.Fatalf("expected blocked denial: %+v", payload)
	}
	_, payload = get("?safe_mode=false")
	if payload["visible"] != true {
		t.Fatalf("safe mode off should ignore blocks: %+v", payload)
	}

	if code, _ := get("?min_score=abc"); code != http.StatusBadRequest {
		t.Fatalf("bad min_score: got %d want %d", code, http.StatusBadRequest)
	}
}

type windowStoreStub struct {
	err error
}

func (s windowStoreStub) IncrementWindow(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, s.err
}

func (s windowStoreStub) WindowState(context.Context, string) (int64, time.Duration, error) {
	return 0, 0, s.err
}

func jsonRequest(t *testing.T, method, target, viewerID string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return withViewer(httptest.NewRequest(method, target, bytes.NewReader(raw)), viewerID)
}

func withViewer(req *http.Request, viewerID string) *http.Request {
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: viewerID,
		Role:   authsvc.RoleUser,
	}))
}

func withURLParam(ctx context.Context, key, value string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}
