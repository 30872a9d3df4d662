package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrSameStatus = errors.New("status unchanged")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Tender struct {
	ID           int64
	TenderNo     string
	TenderName   string
	Organisation *string
	ItemName     *string
	Status       *int64
	DeleteStatus int
	TLStatus     int
	Team         *int64
	TeamMember   *int64
	DueDate      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ReverseAuction struct {
	ID                     int64
	TenderID               int64
	TenderNo               *string
	BidSubmissionDate      *time.Time
	Status                 string
	TechnicallyQualified   *string
	DisqualificationReason *string
	QualifiedPartiesCount  *int
	QualifiedPartiesNames  *string
	RAStartTime            *time.Time
	RAEndTime              *time.Time
	RAResult               *string
	VeL1AtStart            *string
	RAStartPrice           *float64
	RAClosePrice           *float64
	RACloseTime            *time.Time
	FinalResultScreenshot  *string
	ResultUploadedAt       *time.Time
	ScheduledAt            *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type TenderQuery struct {
	ID                   int64
	TenderID             int64
	Status               string
	TQSubmissionDeadline *time.Time
	TQDocumentReceived   *string
	ReceivedBy           *int64
	ReceivedAt           *time.Time
	RepliedDatetime      *time.Time
	RepliedDocument      *string
	ProofOfSubmission    *string
	RepliedBy            *int64
	RepliedAt            *time.Time
	MissedReason         *string
	PreventionMeasures   *string
	TMSImprovements      *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type TQItem struct {
	ID               int64
	TenderQueryID    int64
	SrNo             *int
	TQType           *string
	QueryDescription *string
	CreatedAt        time.Time
}

type StatusHistoryEntry struct {
	ID             int64
	TenderID       int64
	PrevStatus     *int64
	PrevStatusName *string
	NewStatus      int64
	NewStatusName  *string
	ChangedBy      int64
	ChangedByName  *string
	Comment        *string
	CreatedAt      time.Time
}

const reverseAuctionColumns = `
	id, tender_id, tender_no, bid_submission_date, status,
	technically_qualified, disqualification_reason,
	qualified_parties_count, qualified_parties_names,
	ra_start_time, ra_end_time, ra_result,
	ve_l1_at_start, ra_start_price, ra_close_price, ra_close_time,
	final_result_screenshot, result_uploaded_at, scheduled_at,
	created_at, updated_at`

func scanReverseAuction(row pgx.Row) (*ReverseAuction, error) {
	var ra ReverseAuction
	err := row.Scan(
		&ra.ID, &ra.TenderID, &ra.TenderNo, &ra.BidSubmissionDate, &ra.Status,
		&ra.TechnicallyQualified, &ra.DisqualificationReason,
		&ra.QualifiedPartiesCount, &ra.QualifiedPartiesNames,
		&ra.RAStartTime, &ra.RAEndTime, &ra.RAResult,
		&ra.VeL1AtStart, &ra.RAStartPrice, &ra.RAClosePrice, &ra.RACloseTime,
		&ra.FinalResultScreenshot, &ra.ResultUploadedAt, &ra.ScheduledAt,
		&ra.CreatedAt, &ra.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ra, nil
}

// GetTender returns a tender regardless of its soft-delete flag. Callers that
// must ignore deleted tenders go through lockTenderTx.
func (r *Repository) GetTender(ctx context.Context, tenderID int64) (*Tender, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tender_no, tender_name, organisation, item_name, status,
		       delete_status, tl_status, team, team_member, due_date,
		       created_at, updated_at
		FROM tender_infos
		WHERE id = $1`, tenderID)

	var t Tender
	err := row.Scan(
		&t.ID, &t.TenderNo, &t.TenderName, &t.Organisation, &t.ItemName, &t.Status,
		&t.DeleteStatus, &t.TLStatus, &t.Team, &t.TeamMember, &t.DueDate,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) GetReverseAuction(ctx context.Context, raID int64) (*ReverseAuction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reverseAuctionColumns+`
		FROM reverse_auctions
		WHERE id = $1`, raID)
	return scanReverseAuction(row)
}

func (r *Repository) ListTenderQueries(ctx context.Context, tenderID int64) ([]TenderQuery, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tender_id, status, tq_submission_deadline, tq_document_received,
		       received_by, received_at, replied_datetime, replied_document,
		       proof_of_submission, replied_by, replied_at,
		       missed_reason, prevention_measures, tms_improvements,
		       created_at, updated_at
		FROM tender_queries
		WHERE tender_id = $1
		ORDER BY updated_at DESC, created_at DESC, id DESC`, tenderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queries := make([]TenderQuery, 0)
	for rows.Next() {
		var q TenderQuery
		if err := rows.Scan(
			&q.ID, &q.TenderID, &q.Status, &q.TQSubmissionDeadline, &q.TQDocumentReceived,
			&q.ReceivedBy, &q.ReceivedAt, &q.RepliedDatetime, &q.RepliedDocument,
			&q.ProofOfSubmission, &q.RepliedBy, &q.RepliedAt,
			&q.MissedReason, &q.PreventionMeasures, &q.TMSImprovements,
			&q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return queries, nil
}

func (r *Repository) ListTQItems(ctx context.Context, tqID int64) ([]TQItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tender_query_id, sr_no, tq_type, query_description, created_at
		FROM tender_query_items
		WHERE tender_query_id = $1
		ORDER BY sr_no ASC, id ASC`, tqID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]TQItem, 0)
	for rows.Next() {
		var item TQItem
		if err := rows.Scan(&item.ID, &item.TenderQueryID, &item.SrNo, &item.TQType, &item.QueryDescription, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

// ListStatusHistory returns the ledger for a tender oldest-first, with status
// and user display names joined in.
func (r *Repository) ListStatusHistory(ctx context.Context, tenderID int64) ([]StatusHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT h.id, h.tender_id, h.prev_status, ps.name, h.new_status, ns.name,
		       h.changed_by, u.name, h.comment, h.created_at
		FROM tender_status_history h
		LEFT JOIN statuses ps ON ps.id = h.prev_status
		LEFT JOIN statuses ns ON ns.id = h.new_status
		LEFT JOIN users u ON u.id = h.changed_by
		WHERE h.tender_id = $1
		ORDER BY h.created_at ASC, h.id ASC`, tenderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]StatusHistoryEntry, 0)
	for rows.Next() {
		var e StatusHistoryEntry
		if err := rows.Scan(
			&e.ID, &e.TenderID, &e.PrevStatus, &e.PrevStatusName, &e.NewStatus, &e.NewStatusName,
			&e.ChangedBy, &e.ChangedByName, &e.Comment, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return entries, nil
}
