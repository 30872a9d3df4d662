// Package repository resolves notification recipients from the users and
// tender tables.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TenderContacts is everything the notifier needs to address mail about one
// tender. Assignee and team leader are nil when the tender has none.
type TenderContacts struct {
	TenderNo        string
	TenderName      string
	AssigneeEmail   *string
	TeamLeaderEmail *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTenderContacts resolves the assignee and the leader of the tender's
// team in one query.
func (r *Repository) GetTenderContacts(ctx context.Context, tenderID int64) (*TenderContacts, error) {
	query := `
		SELECT t.tender_no, t.tender_name, assignee.email, leader.email
		FROM tender_infos t
		LEFT JOIN users assignee ON assignee.id = t.team_member
		LEFT JOIN users leader ON leader.team_id = t.team AND leader.role = 'team_leader'
		WHERE t.id = $1`

	var contacts TenderContacts
	err := r.pool.QueryRow(ctx, query, tenderID).Scan(
		&contacts.TenderNo, &contacts.TenderName,
		&contacts.AssigneeEmail, &contacts.TeamLeaderEmail,
	)
	if err != nil {
		return nil, err
	}
	return &contacts, nil
}

// ListEmailsByRole returns the addresses of every user holding the role.
func (r *Repository) ListEmailsByRole(ctx context.Context, role string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM users WHERE role = $1 ORDER BY id`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
