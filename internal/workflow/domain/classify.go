package domain

import "time"

// RATab is a reverse-auction dashboard bucket.
type RATab string

const (
	RATabUnderEvaluation RATab = "under-evaluation"
	RATabScheduled       RATab = "scheduled"
	RATabCompleted       RATab = "completed"
)

// TQTab is a TQ-management dashboard bucket.
type TQTab string

const (
	TQTabAwaited      TQTab = "awaited"
	TQTabReceived     TQTab = "received"
	TQTabReplied      TQTab = "replied"
	TQTabQualified    TQTab = "qualified"
	TQTabDisqualified TQTab = "disqualified"
)

// RASnapshot is the part of a reverse-auction record the classification
// depends on. HasRecord is false when no record exists for the tender yet.
type RASnapshot struct {
	HasRecord bool
	Result    *RAResult
	StartTime *time.Time
	EndTime   *time.Time
}

// ClassifyRA partitions a tender into exactly one reverse-auction tab.
// The three buckets are disjoint and exhaustive over the snapshot space:
// a result settles the tender as completed, a start or end time without a
// result means scheduled, and everything else is still under evaluation.
func ClassifyRA(s RASnapshot) RATab {
	if !s.HasRecord {
		return RATabUnderEvaluation
	}
	if s.Result != nil {
		return RATabCompleted
	}
	if s.StartTime != nil || s.EndTime != nil {
		return RATabScheduled
	}
	return RATabUnderEvaluation
}

// ClassifyTQ maps the latest tender-query status to its dashboard bucket.
// A tender with no query rows at all belongs to the awaited bucket.
func ClassifyTQ(latest *TQStatus) TQTab {
	if latest == nil {
		return TQTabAwaited
	}
	switch *latest {
	case TQReceived:
		return TQTabReceived
	case TQReplied:
		return TQTabReplied
	case TQRepliedQualified, TQQualifiedNoReceived:
		return TQTabQualified
	case TQDisqualifiedMissed, TQDisqualifiedNoReceived:
		return TQTabDisqualified
	default:
		return TQTabAwaited
	}
}

// TQMeta identifies a tender-query row for recency comparison.
type TQMeta struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MoreRecent reports whether a is the more authoritative row of the two.
// Rows are compared by update time, then creation time, then id, so the
// winner is deterministic even when timestamps collide.
func MoreRecent(a, b TQMeta) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// LatestTQ returns the authoritative row out of rows, or nil when empty.
func LatestTQ(rows []TQMeta) *TQMeta {
	var latest *TQMeta
	for i := range rows {
		if latest == nil || MoreRecent(rows[i], *latest) {
			latest = &rows[i]
		}
	}
	return latest
}
