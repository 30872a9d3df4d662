package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type InsertDisqualifiedRAParams struct {
	TenderID               int64
	Status                 string
	TechnicallyQualified   string
	DisqualificationReason string
	BidSubmissionDate      *time.Time
	ProjectionStatus       string
}

// InsertDisqualifiedRA records a failed technical qualification. The tender's
// canonical status is left untouched; only the sub-record and the projection
// are written.
func (r *Repository) InsertDisqualifiedRA(ctx context.Context, p InsertDisqualifiedRAParams) (*ReverseAuction, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tender, err := r.lockTenderTx(ctx, tx, p.TenderID)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO reverse_auctions (
			tender_id, tender_no, bid_submission_date, status,
			technically_qualified, disqualification_reason
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+reverseAuctionColumns,
		p.TenderID, tender.TenderNo, p.BidSubmissionDate, p.Status,
		p.TechnicallyQualified, p.DisqualificationReason)
	ra, err := scanReverseAuction(row)
	if err != nil {
		return nil, err
	}

	if err := r.upsertResultProjectionTx(ctx, tx, p.TenderID, &ra.ID, p.ProjectionStatus); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ra, nil
}

type InsertScheduledRAParams struct {
	TenderID              int64
	Status                string
	TechnicallyQualified  string
	QualifiedPartiesCount int
	QualifiedPartiesNames string
	RAStartTime           *time.Time
	RAEndTime             *time.Time
	BidSubmissionDate     *time.Time
	TenderStatus          int64
	ChangedBy             int64
	HistoryComment        string
	ProjectionStatus      string
}

// InsertScheduledRA records a passed technical qualification: the scheduled
// sub-record, the forced canonical status, the ledger entry and the
// projection commit as one unit.
func (r *Repository) InsertScheduledRA(ctx context.Context, p InsertScheduledRAParams) (*ReverseAuction, *StatusChange, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tender, err := r.lockTenderTx(ctx, tx, p.TenderID)
	if err != nil {
		return nil, nil, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO reverse_auctions (
			tender_id, tender_no, bid_submission_date, status,
			technically_qualified, qualified_parties_count, qualified_parties_names,
			ra_start_time, ra_end_time, scheduled_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING `+reverseAuctionColumns,
		p.TenderID, tender.TenderNo, p.BidSubmissionDate, p.Status,
		p.TechnicallyQualified, p.QualifiedPartiesCount, p.QualifiedPartiesNames,
		p.RAStartTime, p.RAEndTime)
	ra, err := scanReverseAuction(row)
	if err != nil {
		return nil, nil, err
	}

	if err := r.setTenderStatusTx(ctx, tx, p.TenderID, p.TenderStatus); err != nil {
		return nil, nil, err
	}
	if err := r.appendStatusHistoryTx(ctx, tx, historyParams{
		TenderID:   p.TenderID,
		PrevStatus: tender.Status,
		NewStatus:  p.TenderStatus,
		ChangedBy:  p.ChangedBy,
		Comment:    &p.HistoryComment,
	}); err != nil {
		return nil, nil, err
	}
	if err := r.upsertResultProjectionTx(ctx, tx, p.TenderID, &ra.ID, p.ProjectionStatus); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	change := &StatusChange{
		TenderID:   tender.ID,
		TenderNo:   tender.TenderNo,
		PrevStatus: tender.Status,
		NewStatus:  p.TenderStatus,
	}
	return ra, change, nil
}

type UploadRAResultParams struct {
	RAID                  int64
	Status                string
	Result                string
	VeL1AtStart           *string
	RAStartPrice          *float64
	RAClosePrice          *float64
	RACloseTime           *time.Time
	FinalResultScreenshot *string
	ForceTenderStatus     *int64
	ChangedBy             int64
	HistoryComment        string
	ProjectionStatus      string
}

// UploadRAResult settles a reverse auction with its uploaded outcome. When
// ForceTenderStatus is set the canonical status and its ledger entry are part
// of the same transaction.
func (r *Repository) UploadRAResult(ctx context.Context, p UploadRAResultParams) (*ReverseAuction, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var tenderID int64
	err = tx.QueryRow(ctx, `
		SELECT tender_id FROM reverse_auctions WHERE id = $1 FOR UPDATE`, p.RAID).Scan(&tenderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tender, err := r.lockTenderTx(ctx, tx, tenderID)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE reverse_auctions
		SET status = $2,
		    ra_result = $3,
		    ve_l1_at_start = COALESCE($4, ve_l1_at_start),
		    ra_start_price = COALESCE($5, ra_start_price),
		    ra_close_price = COALESCE($6, ra_close_price),
		    ra_close_time = COALESCE($7, ra_close_time),
		    final_result_screenshot = COALESCE($8, final_result_screenshot),
		    result_uploaded_at = now(),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+reverseAuctionColumns,
		p.RAID, p.Status, p.Result,
		p.VeL1AtStart, p.RAStartPrice, p.RAClosePrice, p.RACloseTime,
		p.FinalResultScreenshot)
	ra, err := scanReverseAuction(row)
	if err != nil {
		return nil, err
	}

	if p.ForceTenderStatus != nil {
		if err := r.setTenderStatusTx(ctx, tx, tenderID, *p.ForceTenderStatus); err != nil {
			return nil, err
		}
		if err := r.appendStatusHistoryTx(ctx, tx, historyParams{
			TenderID:   tenderID,
			PrevStatus: tender.Status,
			NewStatus:  *p.ForceTenderStatus,
			ChangedBy:  p.ChangedBy,
			Comment:    &p.HistoryComment,
		}); err != nil {
			return nil, err
		}
	}

	if err := r.upsertResultProjectionTx(ctx, tx, tenderID, &ra.ID, p.ProjectionStatus); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ra, nil
}

// AdvanceScheduledToStarted flips every scheduled auction whose start time
// has passed to started, refreshing each projection in the same transaction.
// Returns the number of rows advanced. Safe to re-run at any time.
func (r *Repository) AdvanceScheduledToStarted(ctx context.Context, fromStatus, toStatus, projectionStatus string, now time.Time) (int, error) {
	return r.advanceDueRA(ctx, fromStatus, toStatus, projectionStatus, "ra_start_time", now)
}

// AdvanceStartedToEnded is the mirror sweep for the auction end time.
func (r *Repository) AdvanceStartedToEnded(ctx context.Context, fromStatus, toStatus, projectionStatus string, now time.Time) (int, error) {
	return r.advanceDueRA(ctx, fromStatus, toStatus, projectionStatus, "ra_end_time", now)
}

// advanceDueRA bulk-updates due auctions. timeColumn is a literal column name
// supplied by the two wrappers above, never caller input.
func (r *Repository) advanceDueRA(ctx context.Context, fromStatus, toStatus, projectionStatus, timeColumn string, now time.Time) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`
		UPDATE reverse_auctions
		SET status = $1, updated_at = now()
		WHERE status = $2 AND %s IS NOT NULL AND %s <= $3
		RETURNING id, tender_id`, timeColumn, timeColumn)

	rows, err := tx.Query(ctx, query, toStatus, fromStatus, now)
	if err != nil {
		return 0, err
	}

	type advanced struct {
		raID     int64
		tenderID int64
	}
	var changed []advanced
	for rows.Next() {
		var a advanced
		if err := rows.Scan(&a.raID, &a.tenderID); err != nil {
			rows.Close()
			return 0, err
		}
		changed = append(changed, a)
	}
	rows.Close()
	if rows.Err() != nil {
		return 0, rows.Err()
	}

	for _, a := range changed {
		raID := a.raID
		if err := r.upsertResultProjectionTx(ctx, tx, a.tenderID, &raID, projectionStatus); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(changed), nil
}
