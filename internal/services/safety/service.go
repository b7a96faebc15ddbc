package safety

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
	pgrepo "github.com/olaemy/HomeConnectproV3-sub001/internal/repo/postgres"
	analyticsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/analytics"
)

const (
	defaultAutoSuspendThreshold = 3
	defaultLowTrustThreshold    = 30
	defaultNewAccountAge        = 7 * 24 * time.Hour
	defaultMinScore             = 50
	defaultTrustScore           = 50

	multipleReportsThreshold = 3
	maxSafetyScore           = 100
)

type Journal interface {
	SaveReport(ctx context.Context, report model.SafetyReport) error
	SaveReportStatus(ctx context.Context, reportID string, status enums.ReportStatus, updatedAt time.Time) error
	SaveBlock(ctx context.Context, block model.Block) error
	DeleteBlock(ctx context.Context, viewerID, blockedID string) error
	SaveAccountStatus(ctx context.Context, record model.AccountStatusRecord) error
	// SaveReportWithStatus stores a report and the account status it caused
	// in one write.
	SaveReportWithStatus(ctx context.Context, report model.SafetyReport, record model.AccountStatusRecord) error
}

type Snapshotter interface {
	LoadSafetyState(ctx context.Context) (pgrepo.SafetyState, error)
}

type TelemetryService interface {
	IngestBatch(ctx context.Context, userID string, events []analyticsvc.BatchEvent) error
}

// Penalties are subtracted from 100 per raised flag. Zero fields take the
// default penalty.
type Penalties struct {
	MultipleReports  int
	UnverifiedPhotos int
	InconsistentInfo int
	LowTrust         int
	NewAccount       int
}

func DefaultPenalties() Penalties {
	return Penalties{
		MultipleReports:  30,
		UnverifiedPhotos: 15,
		InconsistentInfo: 20,
		LowTrust:         25,
		NewAccount:       10,
	}
}

func (p Penalties) withDefaults() Penalties {
	d := DefaultPenalties()
	if p.MultipleReports <= 0 {
		p.MultipleReports = d.MultipleReports
	}
	if p.UnverifiedPhotos <= 0 {
		p.UnverifiedPhotos = d.UnverifiedPhotos
	}
	if p.InconsistentInfo <= 0 {
		p.InconsistentInfo = d.InconsistentInfo
	}
	if p.LowTrust <= 0 {
		p.LowTrust = d.LowTrust
	}
	if p.NewAccount <= 0 {
		p.NewAccount = d.NewAccount
	}
	return p
}

type Config struct {
	// AutoSuspendThreshold suspends an account when its report count reaches
	// the value. Negative disables; zero means 3.
	AutoSuspendThreshold int
	LowTrustThreshold    int
	NewAccountAge        time.Duration
	DefaultMinScore      int
	Penalties            Penalties
}

type ReportInput struct {
	ReporterID     string
	ReportedUserID string
	Type           enums.ReportType
	Description    string
	Evidence       []string
}

type blockKey struct {
	viewerID  string
	blockedID string
}

type statusChange struct {
	record   model.AccountStatusRecord
	previous enums.AccountStatus
}

type journalOp struct {
	ctx   context.Context
	label string
	write func(ctx context.Context, journal Journal) error
}

type Service struct {
	cfg Config

	mu       sync.RWMutex
	reports  []model.SafetyReport
	byUser   map[string][]int
	blocks   map[blockKey]time.Time
	statuses map[string]model.AccountStatusRecord
	signals  map[string]model.ProfileSignals
	// pending holds journal writes in the order their mutations were
	// applied. Guarded by mu, drained under journalMu.
	pending   []journalOp
	journalMu sync.Mutex

	journal   Journal
	telemetry TelemetryService
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewService(cfg Config) *Service {
	if cfg.AutoSuspendThreshold == 0 {
		cfg.AutoSuspendThreshold = defaultAutoSuspendThreshold
	}
	if cfg.LowTrustThreshold <= 0 {
		cfg.LowTrustThreshold = defaultLowTrustThreshold
	}
	if cfg.NewAccountAge <= 0 {
		cfg.NewAccountAge = defaultNewAccountAge
	}
	if cfg.DefaultMinScore <= 0 {
		cfg.DefaultMinScore = defaultMinScore
	}
	cfg.Penalties = cfg.Penalties.withDefaults()

	return &Service{
		cfg:      cfg,
		byUser:   make(map[string][]int),
		blocks:   make(map[blockKey]time.Time),
		statuses: make(map[string]model.AccountStatusRecord),
		signals:  make(map[string]model.ProfileSignals),
		log:      zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *Service) AttachJournal(journal Journal) {
	s.journal = journal
}

func (s *Service) AttachTelemetry(telemetry TelemetryService) {
	s.telemetry = telemetry
}

func (s *Service) AttachLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	s.log = log
}

// Restore replaces the in-memory ledger with the snapshot. Reports are
// expected in filing order.
func (s *Service) Restore(ctx context.Context, source Snapshotter) error {
	if source == nil {
		return nil
	}
	state, err := source.LoadSafetyState(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = make([]model.SafetyReport, 0, len(state.Reports))
	s.byUser = make(map[string][]int)
	for _, report := range state.Reports {
		s.byUser[report.ReportedUserID] = append(s.byUser[report.ReportedUserID], len(s.reports))
		s.reports = append(s.reports, cloneReport(report))
	}
	s.blocks = make(map[blockKey]time.Time, len(state.Blocks))
	for _, block := range state.Blocks {
		s.blocks[blockKey{viewerID: block.ViewerID, blockedID: block.BlockedID}] = block.CreatedAt
	}
	s.statuses = make(map[string]model.AccountStatusRecord, len(state.Statuses))
	for _, record := range state.Statuses {
		s.statuses[record.UserID] = record
	}

	s.log.Info("safety ledger restored",
		zap.Int("reports", len(s.reports)),
		zap.Int("blocks", len(s.blocks)),
		zap.Int("statuses", len(s.statuses)),
	)
	return nil
}

// ReportUser always files the report and returns its id. Self-reports are
// accepted.
func (s *Service) ReportUser(ctx context.Context, in ReportInput) string {
	now := s.now().UTC()
	report := model.SafetyReport{
		ID:             s.newID(),
		ReporterID:     strings.TrimSpace(in.ReporterID),
		ReportedUserID: strings.TrimSpace(in.ReportedUserID),
		Type:           in.Type,
		Description:    in.Description,
		Evidence:       append([]string(nil), in.Evidence...),
		Status:         enums.ReportStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var change *statusChange
	s.mu.Lock()
	s.byUser[report.ReportedUserID] = append(s.byUser[report.ReportedUserID], len(s.reports))
	s.reports = append(s.reports, report)
	count := len(s.byUser[report.ReportedUserID])
	if s.cfg.AutoSuspendThreshold > 0 && count == s.cfg.AutoSuspendThreshold &&
		s.statusLocked(report.ReportedUserID) == enums.AccountStatusActive {
		change = s.setStatusLocked(report.ReportedUserID, enums.AccountStatusSuspended, now)
	}
	if change != nil {
		record := change.record
		s.enqueueLocked(ctx, "report_with_status", func(ctx context.Context, j Journal) error {
			return j.SaveReportWithStatus(ctx, cloneReport(report), record)
		})
	} else {
		s.enqueueLocked(ctx, "report", func(ctx context.Context, j Journal) error {
			return j.SaveReport(ctx, cloneReport(report))
		})
	}
	s.mu.Unlock()

	s.flushJournal()
	s.emit(ctx, report.ReporterID, "safety_report_filed", map[string]any{
		"report_id":        report.ID,
		"reported_user_id": report.ReportedUserID,
		"type":             string(report.Type),
		"report_count":     count,
	})

	if change != nil {
		s.log.Info("account auto-suspended",
			zap.String("user_id", report.ReportedUserID),
			zap.Int("report_count", count),
		)
		s.emitStatusChange(ctx, *change, "auto_suspend")
	}

	return report.ID
}

func (s *Service) GetSafetyFlags(userID string) model.SafetyFlags {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.flagsLocked(strings.TrimSpace(userID))
}

// GetSafetyScore is 100 minus the penalty of every raised flag, floored at 0.
func (s *Service) GetSafetyScore(userID string) int {
	return s.score(s.GetSafetyFlags(userID))
}

// ShouldHideUser applies the caller's policy bundle. MinimumTrustScore is not
// consulted here; IsSafeToShow enforces the score threshold.
func (s *Service) ShouldHideUser(userID string, settings model.SafetySettings) bool {
	if !settings.SafeMode {
		return false
	}
	return shouldHide(s.GetSafetyFlags(userID), settings)
}

func (s *Service) BlockUser(ctx context.Context, viewerID, blockedID string) {
	key := blockKey{viewerID: strings.TrimSpace(viewerID), blockedID: strings.TrimSpace(blockedID)}
	now := s.now().UTC()

	s.mu.Lock()
	_, exists := s.blocks[key]
	if !exists {
		s.blocks[key] = now
		block := model.Block{ViewerID: key.viewerID, BlockedID: key.blockedID, CreatedAt: now}
		s.enqueueLocked(ctx, "block", func(ctx context.Context, j Journal) error {
			return j.SaveBlock(ctx, block)
		})
	}
	s.mu.Unlock()

	if exists {
		return
	}
	s.flushJournal()
	s.emit(ctx, key.viewerID, "safety_user_blocked", map[string]any{"blocked_user_id": key.blockedID})
}

func (s *Service) UnblockUser(ctx context.Context, viewerID, blockedID string) {
	key := blockKey{viewerID: strings.TrimSpace(viewerID), blockedID: strings.TrimSpace(blockedID)}

	s.mu.Lock()
	_, exists := s.blocks[key]
	if exists {
		delete(s.blocks, key)
		s.enqueueLocked(ctx, "unblock", func(ctx context.Context, j Journal) error {
			return j.DeleteBlock(ctx, key.viewerID, key.blockedID)
		})
	}
	s.mu.Unlock()

	if !exists {
		return
	}
	s.flushJournal()
	s.emit(ctx, key.viewerID, "safety_user_unblocked", map[string]any{"blocked_user_id": key.blockedID})
}

func (s *Service) IsUserBlocked(viewerID, blockedID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.isBlockedLocked(strings.TrimSpace(viewerID), strings.TrimSpace(blockedID))
}

// BlockedBy lists the users viewerID has blocked, oldest block first.
func (s *Service) BlockedBy(viewerID string) []string {
	viewerID = strings.TrimSpace(viewerID)

	s.mu.RLock()
	type entry struct {
		id string
		at time.Time
	}
	entries := make([]entry, 0)
	for key, at := range s.blocks {
		if key.viewerID == viewerID {
			entries = append(entries, entry{id: key.blockedID, at: at})
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].at.Equal(entries[j].at) {
			return entries[i].at.Before(entries[j].at)
		}
		return entries[i].id < entries[j].id
	})

	out := make([]string, 0, len(entries))
	for _, item := range entries {
		out = append(out, item.id)
	}
	return out
}

// GetAllReports returns copies of every report in filing order.
func (s *Service) GetAllReports() []model.SafetyReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.SafetyReport, 0, len(s.reports))
	for _, report := range s.reports {
		out = append(out, cloneReport(report))
	}
	return out
}

func (s *Service) ReportsFor(userID string) []model.SafetyReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.byUser[strings.TrimSpace(userID)]
	out := make([]model.SafetyReport, 0, len(idx))
	for _, i := range idx {
		out = append(out, cloneReport(s.reports[i]))
	}
	return out
}

// UpdateReportStatus overwrites the status of a report. Any transition is
// accepted. It reports whether the id was found.
func (s *Service) UpdateReportStatus(ctx context.Context, reportID string, status enums.ReportStatus) bool {
	reportID = strings.TrimSpace(reportID)
	now := s.now().UTC()

	var (
		found    bool
		previous enums.ReportStatus
		reported string
	)
	s.mu.Lock()
	for i := range s.reports {
		if s.reports[i].ID != reportID {
			continue
		}
		previous = s.reports[i].Status
		reported = s.reports[i].ReportedUserID
		s.reports[i].Status = status
		s.reports[i].UpdatedAt = now
		found = true
		s.enqueueLocked(ctx, "report_status", func(ctx context.Context, j Journal) error {
			return j.SaveReportStatus(ctx, reportID, status, now)
		})
		break
	}
	s.mu.Unlock()

	if !found {
		return false
	}
	s.flushJournal()
	s.emit(ctx, reported, "safety_report_status_changed", map[string]any{
		"report_id": reportID,
		"from":      string(previous),
		"to":        string(status),
	})
	return true
}

func (s *Service) SetAccountStatus(ctx context.Context, userID string, status enums.AccountStatus) {
	userID = strings.TrimSpace(userID)

	s.mu.Lock()
	change := s.setStatusLocked(userID, status, s.now().UTC())
	if change != nil {
		record := change.record
		s.enqueueLocked(ctx, "account_status", func(ctx context.Context, j Journal) error {
			return j.SaveAccountStatus(ctx, record)
		})
	}
	s.mu.Unlock()

	if change != nil {
		s.flushJournal()
		s.emitStatusChange(ctx, *change, "moderator")
	}
}

func (s *Service) AccountStatus(userID string) enums.AccountStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.statusLocked(strings.TrimSpace(userID))
}

// UpsertSignals records the profile facts behind the non-report flags. Only
// trusted sources call it: the facts apply to every viewer.
func (s *Service) UpsertSignals(userID string, signals model.ProfileSignals) {
	s.mu.Lock()
	s.signals[strings.TrimSpace(userID)] = signals
	s.mu.Unlock()
}

func (s *Service) setStatusLocked(userID string, status enums.AccountStatus, now time.Time) *statusChange {
	previous := s.statusLocked(userID)
	if previous == status {
		return nil
	}
	record := model.AccountStatusRecord{UserID: userID, Status: status, UpdatedAt: now}
	s.statuses[userID] = record
	return &statusChange{record: record, previous: previous}
}

func (s *Service) statusLocked(userID string) enums.AccountStatus {
	record, ok := s.statuses[userID]
	if !ok || !record.Status.Valid() {
		return enums.AccountStatusActive
	}
	return record.Status
}

func (s *Service) isBlockedLocked(viewerID, blockedID string) bool {
	_, ok := s.blocks[blockKey{viewerID: viewerID, blockedID: blockedID}]
	return ok
}

func (s *Service) flagsLocked(userID string) model.SafetyFlags {
	signals, ok := s.signals[userID]
	if !ok {
		signals = defaultSignals()
	}
	return s.flagsFrom(len(s.byUser[userID]), signals)
}

func defaultSignals() model.ProfileSignals {
	return model.ProfileSignals{
		VerificationLevel: enums.VerificationUnverified,
		TrustScore:        defaultTrustScore,
	}
}

func (s *Service) flagsFrom(count int, signals model.ProfileSignals) model.SafetyFlags {

	unverified := signals.VerificationLevel.Rank() <= 0
	if signals.PhotoVerified != nil {
		unverified = !*signals.PhotoVerified
	}
	newAccount := false
	if !signals.AccountCreatedAt.IsZero() {
		newAccount = s.now().Sub(signals.AccountCreatedAt) < s.cfg.NewAccountAge
	}

	return model.SafetyFlags{
		HasMultipleReports:  count >= multipleReportsThreshold,
		HasBeenReported:     count > 0,
		HasUnverifiedPhotos: unverified,
		HasInconsistentInfo: signals.InconsistentInfo,
		HasLowTrustScore:    signals.TrustScore < s.cfg.LowTrustThreshold,
		IsNewAccount:        newAccount,
	}
}

func (s *Service) score(flags model.SafetyFlags) int {
	p := s.cfg.Penalties
	score := maxSafetyScore
	if flags.HasMultipleReports {
		score -= p.MultipleReports
	}
	if flags.HasUnverifiedPhotos {
		score -= p.UnverifiedPhotos
	}
	if flags.HasInconsistentInfo {
		score -= p.InconsistentInfo
	}
	if flags.HasLowTrustScore {
		score -= p.LowTrust
	}
	if flags.IsNewAccount {
		score -= p.NewAccount
	}
	if score < 0 {
		return 0
	}
	return score
}

func shouldHide(flags model.SafetyFlags, settings model.SafetySettings) bool {
	switch {
	case flags.HasBeenReported && settings.AutoHideReportedUsers:
		return true
	case flags.HasUnverifiedPhotos && settings.HideUnverifiedUsers:
		return true
	case flags.IsNewAccount && settings.BlockNewAccounts:
		return true
	case flags.HasUnverifiedPhotos && settings.RequirePhotoVerification:
		return true
	default:
		return false
	}
}

// enqueueLocked queues a journal write behind every earlier mutation. The
// caller holds mu.
func (s *Service) enqueueLocked(ctx context.Context, label string, write func(ctx context.Context, journal Journal) error) {
	if s.journal == nil {
		return
	}
	s.pending = append(s.pending, journalOp{ctx: context.WithoutCancel(ctx), label: label, write: write})
}

// flushJournal writes queued operations in mutation order. Whoever holds
// journalMu drains writes queued by other callers too.
func (s *Service) flushJournal() {
	if s.journal == nil {
		return
	}

	s.journalMu.Lock()
	defer s.journalMu.Unlock()

	for {
		s.mu.Lock()
		ops := s.pending
		s.pending = nil
		s.mu.Unlock()

		if len(ops) == 0 {
			return
		}
		for _, op := range ops {
			if err := op.write(op.ctx, s.journal); err != nil {
				s.log.Warn("journal write failed", zap.String("op", op.label), zap.Error(err))
			}
		}
	}
}

func (s *Service) emitStatusChange(ctx context.Context, change statusChange, source string) {
	s.emit(ctx, change.record.UserID, "safety_account_status_changed", map[string]any{
		"from":   string(change.previous),
		"to":     string(change.record.Status),
		"source": source,
	})
}

func (s *Service) emit(ctx context.Context, userID, name string, props map[string]any) {
	if s.telemetry == nil {
		return
	}
	err := s.telemetry.IngestBatch(ctx, userID, []analyticsvc.BatchEvent{{
		Name:  name,
		TS:    s.now().UTC().UnixMilli(),
		Props: props,
	}})
	if err != nil {
		s.log.Warn("safety telemetry failed", zap.String("event", name), zap.Error(err))
	}
}

func cloneReport(report model.SafetyReport) model.SafetyReport {
	report.Evidence = append([]string(nil), report.Evidence...)
	return report
}
