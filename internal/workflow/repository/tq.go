package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const tenderQueryColumns = `
	id, tender_id, status, tq_submission_deadline, tq_document_received,
	received_by, received_at, replied_datetime, replied_document,
	proof_of_submission, replied_by, replied_at,
	missed_reason, prevention_measures, tms_improvements,
	created_at, updated_at`

func scanTenderQuery(row pgx.Row) (*TenderQuery, error) {
	var q TenderQuery
	err := row.Scan(
		&q.ID, &q.TenderID, &q.Status, &q.TQSubmissionDeadline, &q.TQDocumentReceived,
		&q.ReceivedBy, &q.ReceivedAt, &q.RepliedDatetime, &q.RepliedDocument,
		&q.ProofOfSubmission, &q.RepliedBy, &q.RepliedAt,
		&q.MissedReason, &q.PreventionMeasures, &q.TMSImprovements,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// lockTenderQueryTx resolves a tender query to its tender and locks the query
// row for the remainder of the transaction.
func (r *Repository) lockTenderQueryTx(ctx context.Context, tx pgx.Tx, tqID int64) (int64, error) {
	var tenderID int64
	err := tx.QueryRow(ctx, `
		SELECT tender_id FROM tender_queries WHERE id = $1 FOR UPDATE`, tqID).Scan(&tenderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return tenderID, nil
}

type TQItemInput struct {
	SrNo             int
	TQType           string
	QueryDescription string
}

type InsertTQReceivedParams struct {
	TenderID           int64
	Status             string
	Deadline           *time.Time
	TQDocumentReceived *string
	Items              []TQItemInput
	ReceivedBy         int64
	TenderStatus       int64
	HistoryComment     string
}

// InsertTQReceived records a received tender query with its line items,
// forcing the canonical status in the same transaction.
func (r *Repository) InsertTQReceived(ctx context.Context, p InsertTQReceivedParams) (*TenderQuery, *StatusChange, error) {
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
		INSERT INTO tender_queries (
			tender_id, status, tq_submission_deadline, tq_document_received,
			received_by, received_at
		)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+tenderQueryColumns,
		p.TenderID, p.Status, p.Deadline, p.TQDocumentReceived, p.ReceivedBy)
	tq, err := scanTenderQuery(row)
	if err != nil {
		return nil, nil, err
	}

	for _, item := range p.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO tender_query_items (tender_query_id, sr_no, tq_type, query_description)
			VALUES ($1, $2, $3, $4)`,
			tq.ID, item.SrNo, item.TQType, item.QueryDescription); err != nil {
			return nil, nil, err
		}
	}

	if err := r.setTenderStatusTx(ctx, tx, p.TenderID, p.TenderStatus); err != nil {
		return nil, nil, err
	}
	if err := r.appendStatusHistoryTx(ctx, tx, historyParams{
		TenderID:   p.TenderID,
		PrevStatus: tender.Status,
		NewStatus:  p.TenderStatus,
		ChangedBy:  p.ReceivedBy,
		Comment:    &p.HistoryComment,
	}); err != nil {
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
	return tq, change, nil
}

type UpdateTQRepliedParams struct {
	TQID              int64
	Status            string
	RepliedDatetime   *time.Time
	RepliedDocument   *string
	ProofOfSubmission *string
	RepliedBy         int64
	TenderStatus      int64
	HistoryComment    string
}

// UpdateTQReplied records the reply to a tender query, forcing the canonical
// status in the same transaction.
func (r *Repository) UpdateTQReplied(ctx context.Context, p UpdateTQRepliedParams) (*TenderQuery, *StatusChange, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tenderID, err := r.lockTenderQueryTx(ctx, tx, p.TQID)
	if err != nil {
		return nil, nil, err
	}
	tender, err := r.lockTenderTx(ctx, tx, tenderID)
	if err != nil {
		return nil, nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE tender_queries
		SET status = $2,
		    replied_datetime = $3,
		    replied_document = COALESCE($4, replied_document),
		    proof_of_submission = COALESCE($5, proof_of_submission),
		    replied_by = $6,
		    replied_at = now(),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+tenderQueryColumns,
		p.TQID, p.Status, p.RepliedDatetime, p.RepliedDocument, p.ProofOfSubmission, p.RepliedBy)
	tq, err := scanTenderQuery(row)
	if err != nil {
		return nil, nil, err
	}

	if err := r.setTenderStatusTx(ctx, tx, tenderID, p.TenderStatus); err != nil {
		return nil, nil, err
	}
	if err := r.appendStatusHistoryTx(ctx, tx, historyParams{
		TenderID:   tenderID,
		PrevStatus: tender.Status,
		NewStatus:  p.TenderStatus,
		ChangedBy:  p.RepliedBy,
		Comment:    &p.HistoryComment,
	}); err != nil {
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
	return tq, change, nil
}

type UpdateTQMissedParams struct {
	TQID               int64
	Status             string
	MissedReason       string
	PreventionMeasures *string
	TMSImprovements    *string
	ChangedBy          int64
	TenderStatus       int64
	HistoryComment     string
}

// UpdateTQMissed records a missed tender-query deadline, forcing the
// disqualification status in the same transaction.
func (r *Repository) UpdateTQMissed(ctx context.Context, p UpdateTQMissedParams) (*TenderQuery, *StatusChange, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tenderID, err := r.lockTenderQueryTx(ctx, tx, p.TQID)
	if err != nil {
		return nil, nil, err
	}
	tender, err := r.lockTenderTx(ctx, tx, tenderID)
	if err != nil {
		return nil, nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE tender_queries
		SET status = $2,
		    missed_reason = $3,
		    prevention_measures = COALESCE($4, prevention_measures),
		    tms_improvements = COALESCE($5, tms_improvements),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+tenderQueryColumns,
		p.TQID, p.Status, p.MissedReason, p.PreventionMeasures, p.TMSImprovements)
	tq, err := scanTenderQuery(row)
	if err != nil {
		return nil, nil, err
	}

	if err := r.setTenderStatusTx(ctx, tx, tenderID, p.TenderStatus); err != nil {
		return nil, nil, err
	}
	if err := r.appendStatusHistoryTx(ctx, tx, historyParams{
		TenderID:   tenderID,
		PrevStatus: tender.Status,
		NewStatus:  p.TenderStatus,
		ChangedBy:  p.ChangedBy,
		Comment:    &p.HistoryComment,
	}); err != nil {
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
	return tq, change, nil
}

type InsertTQQualificationParams struct {
	TenderID       int64
	Status         string
	ChangedBy      int64
	TenderStatus   int64
	HistoryComment string
}

// InsertTQQualification records a qualification outcome for a tender that
// never received a query document: a fresh query row carries the outcome
// status so the dashboard classification stays derivable from query rows.
func (r *Repository) InsertTQQualification(ctx context.Context, p InsertTQQualificationParams) (*TenderQuery, *StatusChange, error) {
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
		INSERT INTO tender_queries (tender_id, status)
		VALUES ($1, $2)
		RETURNING `+tenderQueryColumns,
		p.TenderID, p.Status)
	tq, err := scanTenderQuery(row)
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

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	change := &StatusChange{
		TenderID:   tender.ID,
		TenderNo:   tender.TenderNo,
		PrevStatus: tender.Status,
		NewStatus:  p.TenderStatus,
	}
	return tq, change, nil
}

type UpdateTQQualificationParams struct {
	TQID           int64
	Status         string
	ChangedBy      int64
	TenderStatus   int64
	HistoryComment string
}

// UpdateTQQualification records a qualification outcome on an existing
// tender query.
func (r *Repository) UpdateTQQualification(ctx context.Context, p UpdateTQQualificationParams) (*TenderQuery, *StatusChange, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tenderID, err := r.lockTenderQueryTx(ctx, tx, p.TQID)
	if err != nil {
		return nil, nil, err
	}
	tender, err := r.lockTenderTx(ctx, tx, tenderID)
	if err != nil {
		return nil, nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE tender_queries
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+tenderQueryColumns,
		p.TQID, p.Status)
	tq, err := scanTenderQuery(row)
	if err != nil {
		return nil, nil, err
	}

	if err := r.setTenderStatusTx(ctx, tx, tenderID, p.TenderStatus); err != nil {
		return nil, nil, err
	}
	if err := r.appendStatusHistoryTx(ctx, tx, historyParams{
		TenderID:   tenderID,
		PrevStatus: tender.Status,
		NewStatus:  p.TenderStatus,
		ChangedBy:  p.ChangedBy,
		Comment:    &p.HistoryComment,
	}); err != nil {
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
	return tq, change, nil
}
