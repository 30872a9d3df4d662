// Package scope computes the visibility predicate a viewer's role allows.
// The same predicate is ANDed into every dashboard list query and its count
// query, so a scoping bug cannot make the two disagree.
package scope

// Roles recognised by the visibility policy.
const (
	RoleSuperuser   = "superuser"
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleTeamLeader  = "team_leader"
	RoleEngineer    = "engineer"
)

// Viewer is the authenticated identity a dashboard request runs as.
type Viewer struct {
	UserID int64
	Role   string
	TeamID *int64
}

// Predicate is a SQL condition with ?-style placeholders. The repository
// renumbers the placeholders when it splices the predicate into a query.
type Predicate struct {
	SQL  string
	Args []any
}

// Unrestricted matches every tender.
var Unrestricted = Predicate{SQL: "TRUE"}

// Nothing matches no tender. Every ambiguous case resolves to this: scoping
// fails closed, never open.
var Nothing = Predicate{SQL: "FALSE"}

// For computes the visibility predicate for a viewer. Policy, in priority
// order: elevated roles see everything, optionally narrowed to one team;
// team-scoped roles see their own team (and nothing at all without a team
// assignment); everyone else sees only tenders assigned to them personally.
func For(viewer *Viewer, teamOverride *int64) Predicate {
	if viewer == nil {
		return Nothing
	}

	switch viewer.Role {
	case RoleSuperuser, RoleAdmin, RoleCoordinator:
		if teamOverride != nil {
			return Predicate{SQL: "t.team = ?", Args: []any{*teamOverride}}
		}
		return Unrestricted

	case RoleTeamLeader, RoleEngineer:
		if viewer.TeamID == nil {
			return Nothing
		}
		return Predicate{SQL: "t.team = ?", Args: []any{*viewer.TeamID}}

	default:
		return Predicate{SQL: "t.team_member = ?", Args: []any{viewer.UserID}}
	}
}
