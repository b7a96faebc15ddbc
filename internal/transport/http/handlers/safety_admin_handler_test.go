package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
	redrepo "github.com/olaemy/HomeConnectproV3-sub001/internal/repo/redis"
	evidencesvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/evidence"
	safetysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/safety"
)

func TestAdminReportsIncludeEvidenceLinks(t *testing.T) {
	safety := safetysvc.NewService(safetysvc.Config{})
	safety.ReportUser(context.Background(), safetysvc.ReportInput{
		ReporterID:     "u-1",
		ReportedUserID: "u-2",
		Type:           enums.ReportTypeScam,
		Evidence:       []string{"evidence/u-2/chat.png", "https://cdn.example.com/x.jpg"},
	})
	safety.ReportUser(context.Background(), safetysvc.ReportInput{
		ReporterID:     "u-1",
		ReportedUserID: "u-3",
		Type:           enums.ReportTypeOther,
	})
	h := NewSafetyAdminHandler(safety, evidencesvc.NewService(signerStub{}, time.Minute, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/reports?user_id=u-2", nil)
	rr := httptest.NewRecorder()
	h.Reports(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		Items []struct {
			ReportedUserID string `json:"reported_user_id"`
			Evidence       []struct {
				Ref string `json:"ref"`
				URL string `json:"url"`
			} `json:"evidence"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ReportedUserID != "u-2" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	links := resp.Items[0].Evidence
	if len(links) != 2 {
		t.Fatalf("unexpected evidence count: %d", len(links))
	}
	if links[0].URL != "https://signed.example.com/evidence/u-2/chat.png" {
		t.Fatalf("unexpected signed url: %q", links[0].URL)
	}
	if links[1].URL != "https://cdn.example.com/x.jpg" {
		t.Fatalf("absolute url should pass through: %q", links[1].URL)
	}

	rr = httptest.NewRecorder()
	h.Reports(rr, httptest.NewRequest(http.MethodGet, "/admin/reports?status=closed", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown status filter: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAdminUpdateReportStatus(t *testing.T) {
	safety := safetysvc.NewService(safetysvc.Config{})
	reportID := safety.ReportUser(context.Background(), safetysvc.ReportInput{
		ReporterID:     "u-1",
		ReportedUserID: "u-2",
		Type:           enums.ReportTypeHarassment,
	})
	h := NewSafetyAdminHandler(safety, nil, nil)

	update := func(id, status string) int {
		req := jsonRequest(t, http.MethodPost, "/admin/reports/"+id+"/status", "mod-1", map[string]any{"status": status})
		req = req.WithContext(withURLParam(req.Context(), "id", id))
		rr := httptest.NewRecorder()
		h.UpdateReportStatus(rr, req)
		return rr.Code
	}

	if code := update(reportID, "resolved"); code != http.StatusOK {
		t.Fatalf("update: got %d want %d", code, http.StatusOK)
	}
	if got := safety.ReportsFor("u-2")[0].Status; got != enums.ReportStatusResolved {
		t.Fatalf("unexpected status: %q", got)
	}
	if code := update("missing", "resolved"); code != http.StatusNotFound {
		t.Fatalf("missing report: got %d want %d", code, http.StatusNotFound)
	}
	if code := update(reportID, "closed"); code != http.StatusBadRequest {
		t.Fatalf("unknown status: got %d want %d", code, http.StatusBadRequest)
	}
}

func TestAdminUpdateAccountStatus(t *testing.T) {
	safety := safetysvc.NewService(safetysvc.Config{})
	h := NewSafetyAdminHandler(safety, nil, nil)

	req := jsonRequest(t, http.MethodPost, "/admin/users/u-2/status", "mod-1", map[string]any{"status": "suspended"})
	req = req.WithContext(withURLParam(req.Context(), "id", "u-2"))
	rr := httptest.NewRecorder()
	h.UpdateAccountStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if got := safety.AccountStatus("u-2"); got != enums.AccountStatusSuspended {
		t.Fatalf("unexpected account status: %q", got)
	}
	if safety.IsSafeToShow("u-2", safetysvc.GateOptions{SafeMode: false}) {
		t.Fatalf("suspended account must stay hidden")
	}
}

func TestAdminUpdateSignals(t *testing.T) {
	safety := safetysvc.NewService(safetysvc.Config{})
	h := NewSafetyAdminHandler(safety, nil, nil)

	req := jsonRequest(t, http.MethodPost, "/admin/users/u-2/signals", "mod-1", map[string]any{
		"verification_level": "verified",
		"trust_score":        80,
		"photo_verified":     true,
	})
	req = req.WithContext(withURLParam(req.Context(), "id", "u-2"))
	rr := httptest.NewRecorder()
	h.UpdateSignals(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if !safety.IsSafeToShow("u-2", safetysvc.GateOptions{ViewerID: "any", SafeMode: true}) {
		t.Fatalf("expected registered signals to apply to every viewer")
	}

	req = jsonRequest(t, http.MethodPost, "/admin/users/u-2/signals", "mod-1", map[string]any{
		"verification_level": "gold",
		"trust_score":        80,
	})
	req = req.WithContext(withURLParam(req.Context(), "id", "u-2"))
	rr = httptest.NewRecorder()
	h.UpdateSignals(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown level: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAdminSummary(t *testing.T) {
	h := NewSafetyAdminHandler(safetysvc.NewService(safetysvc.Config{}), nil, nil)

	rr := httptest.NewRecorder()
	h.Summary(rr, httptest.NewRequest(http.MethodGet, "/admin/safety/summary", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("without dashboard: got %d want %d", rr.Code, http.StatusServiceUnavailable)
	}

	h.AttachSummary(summaryStub{
		summary: redrepo.SafetySummary{Reports24h: 4, HiddenByReason: map[string]int64{"blocked": 2}},
		top:     []redrepo.TopUserItem{{ID: "u-2", Score: 3}},
	})
	rr = httptest.NewRecorder()
	h.Summary(rr, httptest.NewRequest(http.MethodGet, "/admin/safety/summary", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		Reports24h     int64            `json:"reports_24h"`
		HiddenByReason map[string]int64 `json:"hidden_by_reason"`
		TopReported    []struct {
			ID string `json:"id"`
		} `json:"top_reported"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reports24h != 4 || resp.HiddenByReason["blocked"] != 2 {
		t.Fatalf("unexpected summary: %+v", resp)
	}
	if count, ok := resp.HiddenByReason["low_score"]; !ok || count != 0 {
		t.Fatalf("expected every gate reason listed, got %+v", resp.HiddenByReason)
	}
	if len(resp.TopReported) != 1 || resp.TopReported[0].ID != "u-2" {
		t.Fatalf("unexpected top reported: %+v", resp.TopReported)
	}

	h.AttachSummary(summaryStub{err: errors.New("redis down")})
	rr = httptest.NewRecorder()
	h.Summary(rr, httptest.NewRequest(http.MethodGet, "/admin/safety/summary", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("redis failure: got %d want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

type signerStub struct{}

func (signerStub) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

type summaryStub struct {
	summary redrepo.SafetySummary
	top     []redrepo.TopUserItem
	err     error
}

func (s summaryStub) Summary(context.Context) (redrepo.SafetySummary, error) {
	return s.summary, s.err
}

func (s summaryStub) Top(context.Context, string, int64) ([]redrepo.TopUserItem, error) {
	return s.top, s.err
}
