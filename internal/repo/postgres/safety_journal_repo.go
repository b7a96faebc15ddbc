package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/enums"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
)

type SafetyJournalRepo struct {
	pool *pgxpool.Pool
}

// SafetyState is everything the in-memory ledger needs to rebuild itself.
type SafetyState struct {
	Reports  []model.SafetyReport
	Blocks   []model.Block
	Statuses []model.AccountStatusRecord
}

func NewSafetyJournalRepo(pool *pgxpool.Pool) *SafetyJournalRepo {
	return &SafetyJournalRepo{pool: pool}
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *SafetyJournalRepo) SaveReport(ctx context.Context, report model.SafetyReport) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return insertReport(ctx, r.pool, report)
}

// SaveReportWithStatus stores a report together with the account status it
// triggered, so a restart never sees one without the other.
func (r *SafetyJournalRepo) SaveReportWithStatus(ctx context.Context, report model.SafetyReport, record model.AccountStatusRecord) error {
	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := insertReport(ctx, tx, report); err != nil {
			return err
		}
		return upsertAccountStatus(ctx, tx, record)
	})
}

func insertReport(ctx context.Context, db execer, report model.SafetyReport) error {
	evidence := report.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	if _, err := db.Exec(ctx, `
INSERT INTO safety_reports (
	id,
	reporter_id,
	reported_user_id,
	type,
	description,
	evidence,
	status,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING
`, report.ID, report.ReporterID, report.ReportedUserID, string(report.Type), report.Description, evidence,
		string(report.Status), report.CreatedAt.UTC(), report.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("insert safety report: %w", err)
	}

	return nil
}

func (r *SafetyJournalRepo) SaveReportStatus(ctx context.Context, reportID string, status enums.ReportStatus, updatedAt time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE safety_reports
SET status = $2,
	updated_at = $3
WHERE id = $1
`, reportID, string(status), updatedAt.UTC()); err != nil {
		return fmt.Errorf("update safety report status: %w", err)
	}

	return nil
}

func (r *SafetyJournalRepo) SaveBlock(ctx context.Context, block model.Block) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO safety_blocks (
	viewer_id,
	blocked_id,
	created_at
) VALUES ($1, $2, $3)
ON CONFLICT (viewer_id, blocked_id) DO NOTHING
`, block.ViewerID, block.BlockedID, block.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert safety block: %w", err)
	}

	return nil
}

func (r *SafetyJournalRepo) DeleteBlock(ctx context.Context, viewerID, blockedID string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
DELETE FROM safety_blocks
WHERE viewer_id = $1
	AND blocked_id = $2
`, viewerID, blockedID); err != nil {
		return fmt.Errorf("delete safety block: %w", err)
	}

	return nil
}

func (r *SafetyJournalRepo) SaveAccountStatus(ctx context.Context, record model.AccountStatusRecord) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return upsertAccountStatus(ctx, r.pool, record)
}

// upsertAccountStatus never overwrites a newer status with an older one.
func upsertAccountStatus(ctx context.Context, db execer, record model.AccountStatusRecord) error {
	if _, err := db.Exec(ctx, `
INSERT INTO safety_account_statuses (
	user_id,
	status,
	updated_at
) VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET
	status = EXCLUDED.status,
	updated_at = EXCLUDED.updated_at
WHERE safety_account_statuses.updated_at <= EXCLUDED.updated_at
`, record.UserID, string(record.Status), record.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("upsert account status: %w", err)
	}

	return nil
}

// LoadSafetyState reads the whole journal from one snapshot. Reports come
// back in filing order.
func (r *SafetyJournalRepo) LoadSafetyState(ctx context.Context) (SafetyState, error) {
	var state SafetyState
	err := WithSnapshot(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		reports, err := loadReports(ctx, tx)
		if err != nil {
			return err
		}
		blocks, err := loadBlocks(ctx, tx)
		if err != nil {
			return err
		}
		statuses, err := loadAccountStatuses(ctx, tx)
		if err != nil {
			return err
		}

		state = SafetyState{Reports: reports, Blocks: blocks, Statuses: statuses}
		return nil
	})
	if err != nil {
		return SafetyState{}, fmt.Errorf("load safety state: %w", err)
	}

	return state, nil
}

func loadReports(ctx context.Context, tx pgx.Tx) ([]model.SafetyReport, error) {
	rows, err := tx.Query(ctx, `
SELECT
	id,
	reporter_id,
	reported_user_id,
	type,
	description,
	evidence,
	status,
	created_at,
	updated_at
FROM safety_reports
ORDER BY created_at ASC, seq ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query safety reports: %w", err)
	}
	defer rows.Close()

	out := make([]model.SafetyReport, 0)
	for rows.Next() {
		var (
			item       model.SafetyReport
			reportType string
			status     string
		)
		if err := rows.Scan(
			&item.ID,
			&item.ReporterID,
			&item.ReportedUserID,
			&reportType,
			&item.Description,
			&item.Evidence,
			&status,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan safety report: %w", err)
		}
		item.Type = enums.ReportType(reportType)
		item.Status = enums.ReportStatus(status)
		item.CreatedAt = item.CreatedAt.UTC()
		item.UpdatedAt = item.UpdatedAt.UTC()
		out = append(out, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate safety reports: %w", rows.Err())
	}

	return out, nil
}

func loadBlocks(ctx context.Context, tx pgx.Tx) ([]model.Block, error) {
	rows, err := tx.Query(ctx, `
SELECT viewer_id, blocked_id, created_at
FROM safety_blocks
ORDER BY created_at ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query safety blocks: %w", err)
	}
	defer rows.Close()

	out := make([]model.Block, 0)
	for rows.Next() {
		var item model.Block
		if err := rows.Scan(&item.ViewerID, &item.BlockedID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan safety block: %w", err)
		}
		item.CreatedAt = item.CreatedAt.UTC()
		out = append(out, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate safety blocks: %w", rows.Err())
	}

	return out, nil
}

func loadAccountStatuses(ctx context.Context, tx pgx.Tx) ([]model.AccountStatusRecord, error) {
	rows, err := tx.Query(ctx, `
SELECT user_id, status, updated_at
FROM safety_account_statuses
`)
	if err != nil {
		return nil, fmt.Errorf("query account statuses: %w", err)
	}
	defer rows.Close()

	out := make([]model.AccountStatusRecord, 0)
	for rows.Next() {
		var (
			item   model.AccountStatusRecord
			status string
		)
		if err := rows.Scan(&item.UserID, &status, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account status: %w", err)
		}
		item.Status = enums.AccountStatus(status)
		item.UpdatedAt = item.UpdatedAt.UTC()
		out = append(out, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate account statuses: %w", rows.Err())
	}

	return out, nil
}
