// Package repository implements the dashboard queries. Each tab is a named
// SQL predicate constant used verbatim by both the paginated list query and
// the count query, so the two can never drift apart.
package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tender_portal_backend/internal/dashboard/scope"
	"tender_portal_backend/internal/workflow/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Base predicate shared by both dashboards: active, team-leader approved.
const baseActivePredicate = `t.delete_status = 0 AND t.tl_status = 1`

// Reverse-auction tab predicates over the joined reverse_auctions row.
// Together they partition the snapshot space: no usable record means under
// evaluation, a result means completed, a start or end time without a result
// means scheduled.
const (
	raUnderEvaluationPredicate = `(ra.id IS NULL OR (ra.ra_result IS NULL AND ra.ra_start_time IS NULL AND ra.ra_end_time IS NULL))`
	raScheduledPredicate       = `(ra.id IS NOT NULL AND ra.ra_result IS NULL AND (ra.ra_start_time IS NOT NULL OR ra.ra_end_time IS NOT NULL))`
	raCompletedPredicate       = `(ra.id IS NOT NULL AND ra.ra_result IS NOT NULL)`
)

// TQ tab predicates over the latest tender-query row per tender.
const (
	tqAwaitedPredicate      = `(tq.id IS NULL OR tq.status = 'TQ awaited')`
	tqReceivedPredicate     = `tq.status = 'TQ received'`
	tqRepliedPredicate      = `tq.status = 'TQ replied'`
	tqQualifiedPredicate    = `tq.status IN ('Qualified, No TQ received', 'TQ replied, Qualified')`
	tqDisqualifiedPredicate = `tq.status IN ('Disqualified, No TQ received', 'Disqualified, TQ missed')`
)

// latestTQJoin resolves the authoritative query row per tender. The ORDER BY
// carries the full tie-break chain so the winner is deterministic even when
// timestamps collide.
const latestTQJoin = `LEFT JOIN (
	SELECT DISTINCT ON (tender_id)
		tender_id, id, status, tq_submission_deadline, received_at, replied_at, updated_at
	FROM tender_queries
	ORDER BY tender_id, updated_at DESC, created_at DESC, id DESC
) tq ON tq.tender_id = t.id`

// latestRAJoin resolves the one active reverse-auction row per tender. The
// table is insert-heavy (a disqualified then rescheduled tender has several
// rows) and only the newest row drives classification; joining them all would
// let stale rows place a tender on two tabs at once.
const latestRAJoin = `LEFT JOIN (
	SELECT DISTINCT ON (tender_id)
		tender_id, id, status, ra_result, ra_start_time, ra_end_time,
		qualified_parties_count, scheduled_at
	FROM reverse_auctions
	ORDER BY tender_id, updated_at DESC, created_at DESC, id DESC
) ra ON ra.tender_id = t.id`

// The RA dashboard's documented join asymmetry: tenders only reach the
// under-evaluation and scheduled tabs once a bid has been submitted, while
// the completed tab keeps showing tenders whose bid row was cleaned up.
// Both variants take the latest submission so a tender holds one page slot.
const (
	bidSubmissionInnerJoin = `JOIN (` + latestBidSubquery + `) bs ON bs.tender_id = t.id`
	bidSubmissionLeftJoin  = `LEFT JOIN (` + latestBidSubquery + `) bs ON bs.tender_id = t.id`

	latestBidSubquery = `
	SELECT DISTINCT ON (tender_id) tender_id, submission_datetime
	FROM bid_submissions
	ORDER BY tender_id, submission_datetime DESC NULLS LAST, id DESC
`
)

const commonJoins = `
	LEFT JOIN statuses s ON s.id = t.status
	LEFT JOIN users u ON u.id = t.team_member`

func raTabPredicate(tab domain.RATab) (string, bool) {
	switch tab {
	case domain.RATabUnderEvaluation:
		return raUnderEvaluationPredicate, true
	case domain.RATabScheduled:
		return raScheduledPredicate, true
	case domain.RATabCompleted:
		return raCompletedPredicate, true
	default:
		return "", false
	}
}

func raTabJoin(tab domain.RATab) string {
	if tab == domain.RATabCompleted {
		return bidSubmissionLeftJoin
	}
	return bidSubmissionInnerJoin
}

func tqTabPredicate(tab domain.TQTab) (string, bool) {
	switch tab {
	case domain.TQTabAwaited:
		return tqAwaitedPredicate, true
	case domain.TQTabReceived:
		return tqReceivedPredicate, true
	case domain.TQTabReplied:
		return tqRepliedPredicate, true
	case domain.TQTabQualified:
		return tqQualifiedPredicate, true
	case domain.TQTabDisqualified:
		return tqDisqualifiedPredicate, true
	default:
		return "", false
	}
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Query carries the shared dashboard request parameters. Exclude holds the
// status ids whose category the dashboard hides; Scope is the viewer's
// visibility predicate.
type Query struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Search    string
	Exclude   []int64
	Scope     scope.Predicate
}

func (q Query) offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.limit()
}

func (q Query) limit() int {
	if q.Limit < 1 || q.Limit > 100 {
		return 20
	}
	return q.Limit
}

// condBuilder accumulates ?-style conditions and renumbers the placeholders
// into PostgreSQL's positional form.
type condBuilder struct {
	conds []string
	args  []any
}

func (b *condBuilder) add(cond string, args ...any) {
	b.conds = append(b.conds, cond)
	b.args = append(b.args, args...)
}

func (b *condBuilder) where() string {
	joined := strings.Join(b.conds, " AND ")
	var sb strings.Builder
	n := 0
	for _, ch := range joined {
		if ch == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

// nextArg returns the positional placeholder that follows the WHERE args.
func (b *condBuilder) nextArg() int {
	return len(b.args) + 1
}

// RARow is one tender on the reverse-auction dashboard.
type RARow struct {
	TenderID              int64
	TenderNo              string
	TenderName            string
	Organisation          *string
	ItemName              *string
	StatusID              *int64
	StatusName            *string
	AssigneeName          *string
	SubmissionDate        *time.Time
	RAID                  *int64
	RAStatus              *string
	RAResult              *string
	RAStartTime           *time.Time
	RAEndTime             *time.Time
	QualifiedPartiesCount *int
	ScheduledAt           *time.Time
}

// Snapshot exposes the classification inputs of the row.
func (r RARow) Snapshot() domain.RASnapshot {
	var result *domain.RAResult
	if r.RAResult != nil {
		v := domain.RAResult(*r.RAResult)
		result = &v
	}
	return domain.RASnapshot{
		HasRecord: r.RAID != nil,
		Result:    result,
		StartTime: r.RAStartTime,
		EndTime:   r.RAEndTime,
	}
}

// TQRow is one tender on the TQ-management dashboard.
type TQRow struct {
	TenderID       int64
	TenderNo       string
	TenderName     string
	Organisation   *string
	ItemName       *string
	StatusID       *int64
	StatusName     *string
	AssigneeName   *string
	SubmissionDate *time.Time
	TQID           *int64
	TQStatus       *string
	TQDeadline     *time.Time
	ReceivedAt     *time.Time
	RepliedAt      *time.Time
}

const raSelectColumns = `
	t.id, t.tender_no, t.tender_name, t.organisation, t.item_name,
	t.status, s.name, u.name, bs.submission_datetime,
	ra.id, ra.status, ra.ra_result, ra.ra_start_time, ra.ra_end_time,
	ra.qualified_parties_count, ra.scheduled_at`

const tqSelectColumns = `
	t.id, t.tender_no, t.tender_name, t.organisation, t.item_name,
	t.status, s.name, u.name, bs.submission_datetime,
	tq.id, tq.status, tq.tq_submission_deadline, tq.received_at, tq.replied_at`

// Sort key allow-lists. Unknown keys fall back to the default rather than
// erroring.
var raSortColumns = map[string]string{
	"tenderNo":       "t.tender_no",
	"tenderName":     "t.tender_name",
	"assignee":       "u.name",
	"submissionDate": "bs.submission_datetime",
	"raStartTime":    "ra.ra_start_time",
	"scheduledAt":    "ra.scheduled_at",
}

var tqSortColumns = map[string]string{
	"tenderNo":       "t.tender_no",
	"tenderName":     "t.tender_name",
	"assignee":       "u.name",
	"submissionDate": "bs.submission_datetime",
	"deadline":       "tq.tq_submission_deadline",
	"receivedAt":     "tq.received_at",
}

const defaultSort = "bs.submission_datetime DESC NULLS LAST, t.id ASC"

func orderClause(columns map[string]string, sortBy, sortOrder string) string {
	column, ok := columns[sortBy]
	if !ok {
		return defaultSort
	}
	direction := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s NULLS LAST, t.id ASC", column, direction)
}

const raSearchPredicate = `(
	t.tender_no ILIKE ? OR t.tender_name ILIKE ? OR u.name ILIKE ? OR s.name ILIKE ?
	OR COALESCE(ra.ra_result, '') ILIKE ?
	OR to_char(bs.submission_datetime, 'DD-MM-YYYY') ILIKE ?
	OR to_char(ra.ra_start_time, 'DD-MM-YYYY') ILIKE ?
)`

const tqSearchPredicate = `(
	t.tender_no ILIKE ? OR t.tender_name ILIKE ? OR u.name ILIKE ? OR s.name ILIKE ?
	OR COALESCE(tq.status, '') ILIKE ?
	OR to_char(bs.submission_datetime, 'DD-MM-YYYY') ILIKE ?
	OR to_char(tq.tq_submission_deadline, 'DD-MM-YYYY') ILIKE ?
)`

// buildRAConditions assembles the WHERE conditions for an RA tab. Both the
// list and the count path call this, which is what makes the totals agree.
func buildRAConditions(tab domain.RATab, q Query) (*condBuilder, error) {
	predicate, ok := raTabPredicate(tab)
	if !ok {
		return nil, fmt.Errorf("unknown reverse auction tab %q", tab)
	}

	b := &condBuilder{}
	b.add(baseActivePredicate)
	if len(q.Exclude) > 0 {
		b.add(`(t.status IS NULL OR t.status <> ALL(?))`, q.Exclude)
	}
	b.add(predicate)
	b.add(q.Scope.SQL, q.Scope.Args...)
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		b.add(raSearchPredicate, pattern, pattern, pattern, pattern, pattern, pattern, pattern)
	}
	return b, nil
}

func buildTQConditions(tab domain.TQTab, q Query) (*condBuilder, error) {
	predicate, ok := tqTabPredicate(tab)
	if !ok {
		return nil, fmt.Errorf("unknown tq tab %q", tab)
	}

	b := &condBuilder{}
	b.add(baseActivePredicate)
	if len(q.Exclude) > 0 {
		b.add(`(t.status IS NULL OR t.status <> ALL(?))`, q.Exclude)
	}
	b.add(predicate)
	b.add(q.Scope.SQL, q.Scope.Args...)
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		b.add(tqSearchPredicate, pattern, pattern, pattern, pattern, pattern, pattern, pattern)
	}
	return b, nil
}

// ListRAPage returns one page of the RA dashboard plus the total for the tab.
func (r *Repository) ListRAPage(ctx context.Context, tab domain.RATab, q Query) ([]RARow, int, error) {
	b, err := buildRAConditions(tab, q)
	if err != nil {
		return nil, 0, err
	}

	joins := raTabJoin(tab) + "\n\t" + latestRAJoin + commonJoins
	where := b.where()

	countQuery := fmt.Sprintf(`SELECT COUNT(DISTINCT t.id) FROM tender_infos t %s WHERE %s`, joins, where)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM tender_infos t %s
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		raSelectColumns, joins, where,
		orderClause(raSortColumns, q.SortBy, q.SortOrder),
		b.nextArg(), b.nextArg()+1)

	args := append(append([]any{}, b.args...), q.limit(), q.offset())
	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]RARow, 0)
	for rows.Next() {
		var row RARow
		if err := rows.Scan(
			&row.TenderID, &row.TenderNo, &row.TenderName, &row.Organisation, &row.ItemName,
			&row.StatusID, &row.StatusName, &row.AssigneeName, &row.SubmissionDate,
			&row.RAID, &row.RAStatus, &row.RAResult, &row.RAStartTime, &row.RAEndTime,
			&row.QualifiedPartiesCount, &row.ScheduledAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return out, total, nil
}

// CountRAByTab returns the per-tab totals, derived from the same predicate
// constants the list query uses. The three counts run concurrently on the
// pool.
func (r *Repository) CountRAByTab(ctx context.Context, q Query) (map[domain.RATab]int, error) {
	tabs := []domain.RATab{domain.RATabUnderEvaluation, domain.RATabScheduled, domain.RATabCompleted}

	var mu sync.Mutex
	counts := make(map[domain.RATab]int, len(tabs))

	g, gctx := errgroup.WithContext(ctx)
	for _, tab := range tabs {
		b, err := buildRAConditions(tab, q)
		if err != nil {
			return nil, err
		}

		joins := raTabJoin(tab) + "\n\t" + latestRAJoin + commonJoins
		query := fmt.Sprintf(`SELECT COUNT(DISTINCT t.id) FROM tender_infos t %s WHERE %s`, joins, b.where())

		g.Go(func() error {
			var total int
			if err := r.pool.QueryRow(gctx, query, b.args...).Scan(&total); err != nil {
				return err
			}
			mu.Lock()
			counts[tab] = total
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// ListTQPage returns one page of the TQ dashboard plus the total for the tab.
func (r *Repository) ListTQPage(ctx context.Context, tab domain.TQTab, q Query) ([]TQRow, int, error) {
	b, err := buildTQConditions(tab, q)
	if err != nil {
		return nil, 0, err
	}

	joins := bidSubmissionLeftJoin + "\n\t" + latestTQJoin + commonJoins
	where := b.where()

	countQuery := fmt.Sprintf(`SELECT COUNT(DISTINCT t.id) FROM tender_infos t %s WHERE %s`, joins, where)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM tender_infos t %s
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		tqSelectColumns, joins, where,
		orderClause(tqSortColumns, q.SortBy, q.SortOrder),
		b.nextArg(), b.nextArg()+1)

	args := append(append([]any{}, b.args...), q.limit(), q.offset())
	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]TQRow, 0)
	for rows.Next() {
		var row TQRow
		if err := rows.Scan(
			&row.TenderID, &row.TenderNo, &row.TenderName, &row.Organisation, &row.ItemName,
			&row.StatusID, &row.StatusName, &row.AssigneeName, &row.SubmissionDate,
			&row.TQID, &row.TQStatus, &row.TQDeadline, &row.ReceivedAt, &row.RepliedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return out, total, nil
}

// CountTQByTab returns the per-tab totals for the TQ dashboard.
func (r *Repository) CountTQByTab(ctx context.Context, q Query) (map[domain.TQTab]int, error) {
	tabs := []domain.TQTab{
		domain.TQTabAwaited, domain.TQTabReceived, domain.TQTabReplied,
		domain.TQTabQualified, domain.TQTabDisqualified,
	}

	var mu sync.Mutex
	counts := make(map[domain.TQTab]int, len(tabs))

	g, gctx := errgroup.WithContext(ctx)
	for _, tab := range tabs {
		b, err := buildTQConditions(tab, q)
		if err != nil {
			return nil, err
		}

		joins := bidSubmissionLeftJoin + "\n\t" + latestTQJoin + commonJoins
		query := fmt.Sprintf(`SELECT COUNT(DISTINCT t.id) FROM tender_infos t %s WHERE %s`, joins, b.where())

		g.Go(func() error {
			var total int
			if err := r.pool.QueryRow(gctx, query, b.args...).Scan(&total); err != nil {
				return err
			}
			mu.Lock()
			counts[tab] = total
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
