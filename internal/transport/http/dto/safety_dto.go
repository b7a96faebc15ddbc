package dto

import (
	"time"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
)

type OKResponse struct {
	OK bool `json:"ok"`
}

type CreateReportRequest struct {
	ReportedUserID string   `json:"reported_user_id"`
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Evidence       []string `json:"evidence,omitempty"`
}

type CreateReportResponse struct {
	OK       bool   `json:"ok"`
	ReportID string `json:"report_id"`
}

type BlockRequest struct {
	UserID string `json:"user_id"`
}

type BlockStatusResponse struct {
	UserID  string `json:"user_id"`
	Blocked bool   `json:"blocked"`
}

type UserSafetyResponse struct {
	UserID        string            `json:"user_id"`
	Flags         model.SafetyFlags `json:"flags"`
	Score         int               `json:"score"`
	AccountStatus string            `json:"account_status"`
	ReportCount   int               `json:"report_count"`
	Visible       bool              `json:"visible"`
	DenialReason  string            `json:"denial_reason,omitempty"`
}

type EvidenceLinkResponse struct {
	Ref string `json:"ref"`
	URL string `json:"url,omitempty"`
}

type ReportItemResponse struct {
	ID             string                 `json:"id"`
	ReporterID     string                 `json:"reporter_id"`
	ReportedUserID string                 `json:"reported_user_id"`
	Type           string                 `json:"type"`
	Description    string                 `json:"description"`
	Status         string                 `json:"status"`
	Evidence       []EvidenceLinkResponse `json:"evidence"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type ReportsResponse struct {
	Items []ReportItemResponse `json:"items"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type TopUserResponse struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type SafetySummaryResponse struct {
	Reports24h     int64             `json:"reports_24h"`
	Blocks24h      int64             `json:"blocks_24h"`
	Suspensions24h int64             `json:"suspensions_24h"`
	HiddenByReason map[string]int64  `json:"hidden_by_reason"`
	TopReported    []TopUserResponse `json:"top_reported"`
	TopHidden      []TopUserResponse `json:"top_hidden"`
}
