package model

import (
	"time"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
)

type SafetyReport struct {
	ID             string             `json:"id"`
	ReporterID     string             `json:"reporter_id"`
	ReportedUserID string             `json:"reported_user_id"`
	Type           enums.ReportType   `json:"type"`
	Description    string             `json:"description"`
	Evidence       []string           `json:"evidence,omitempty"`
	Status         enums.ReportStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type SafetyFlags struct {
	HasMultipleReports  bool `json:"has_multiple_reports"`
	HasBeenReported     bool `json:"has_been_reported"`
	HasUnverifiedPhotos bool `json:"has_unverified_photos"`
	HasInconsistentInfo bool `json:"has_inconsistent_info"`
	HasLowTrustScore    bool `json:"has_low_trust_score"`
	IsNewAccount        bool `json:"is_new_account"`
}

type SafetySettings struct {
	SafeMode                 bool `json:"safe_mode"`
	HideUnverifiedUsers      bool `json:"hide_unverified_users"`
	RequirePhotoVerification bool `json:"require_photo_verification"`
	MinimumTrustScore        int  `json:"minimum_trust_score"`
	BlockNewAccounts         bool `json:"block_new_accounts"`
	AutoHideReportedUsers    bool `json:"auto_hide_reported_users"`
}

// ProfileSignals carries the profile facts the ledger derives its
// non-report flags from. PhotoVerified nil means "derive from level".
type ProfileSignals struct {
	VerificationLevel enums.VerificationLevel `json:"verification_level"`
	TrustScore        int                     `json:"trust_score"`
	PhotoVerified     *bool                   `json:"photo_verified,omitempty"`
	InconsistentInfo  bool                    `json:"inconsistent_info"`
	AccountCreatedAt  time.Time               `json:"account_created_at"`
}

type Block struct {
	ViewerID  string    `json:"viewer_id"`
	BlockedID string    `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

type AccountStatusRecord struct {
	UserID    string              `json:"user_id"`
	Status    enums.AccountStatus `json:"status"`
	UpdatedAt time.Time           `json:"updated_at"`
}
