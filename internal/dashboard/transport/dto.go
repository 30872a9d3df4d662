package transport

import (
	"time"

	"tender_portal_backend/internal/dashboard/repository"
	"tender_portal_backend/internal/dashboard/service"
	"tender_portal_backend/internal/workflow/domain"
)

// ListRequest carries the query parameters shared by both dashboards.
type ListRequest struct {
	Tab       string `form:"tab"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc ASC DESC"`
	Search    string `form:"search"`
	TeamID    *int64 `form:"teamId"`
}

type RARowResponse struct {
	TenderID              int64      `json:"tenderId"`
	TenderNo              string     `json:"tenderNo"`
	TenderName            string     `json:"tenderName"`
	Organisation          *string    `json:"organisation,omitempty"`
	ItemName              *string    `json:"itemName,omitempty"`
	StatusName            *string    `json:"statusName,omitempty"`
	AssigneeName          *string    `json:"assigneeName,omitempty"`
	SubmissionDate        *time.Time `json:"submissionDate,omitempty"`
	RAStatus              *string    `json:"raStatus,omitempty"`
	RAResult              *string    `json:"raResult,omitempty"`
	RAStartTime           *time.Time `json:"raStartTime,omitempty"`
	RAEndTime             *time.Time `json:"raEndTime,omitempty"`
	QualifiedPartiesCount *int       `json:"qualifiedPartiesCount,omitempty"`
	ScheduledAt           *time.Time `json:"scheduledAt,omitempty"`
	Bucket                string     `json:"bucket"`
}

type TQRowResponse struct {
	TenderID       int64      `json:"tenderId"`
	TenderNo       string     `json:"tenderNo"`
	TenderName     string     `json:"tenderName"`
	Organisation   *string    `json:"organisation,omitempty"`
	ItemName       *string    `json:"itemName,omitempty"`
	StatusName     *string    `json:"statusName,omitempty"`
	AssigneeName   *string    `json:"assigneeName,omitempty"`
	SubmissionDate *time.Time `json:"submissionDate,omitempty"`
	TQStatus       *string    `json:"tqStatus,omitempty"`
	TQDeadline     *time.Time `json:"tqDeadline,omitempty"`
	ReceivedAt     *time.Time `json:"receivedAt,omitempty"`
	RepliedAt      *time.Time `json:"repliedAt,omitempty"`
	Bucket         string     `json:"bucket"`
}

type PageResponse[T any] struct {
	Tab   string `json:"tab"`
	Rows  []T    `json:"rows"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

func ToRAPageResponse(page *service.RAPage) PageResponse[RARowResponse] {
	rows := make([]RARowResponse, 0, len(page.Rows))
	for _, r := range page.Rows {
		rows = append(rows, toRARowResponse(r))
	}
	return PageResponse[RARowResponse]{
		Tab:   string(page.Tab),
		Rows:  rows,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
}

func toRARowResponse(r repository.RARow) RARowResponse {
	return RARowResponse{
		TenderID:              r.TenderID,
		TenderNo:              r.TenderNo,
		TenderName:            r.TenderName,
		Organisation:          r.Organisation,
		ItemName:              r.ItemName,
		StatusName:            r.StatusName,
		AssigneeName:          r.AssigneeName,
		SubmissionDate:        r.SubmissionDate,
		RAStatus:              r.RAStatus,
		RAResult:              r.RAResult,
		RAStartTime:           r.RAStartTime,
		RAEndTime:             r.RAEndTime,
		QualifiedPartiesCount: r.QualifiedPartiesCount,
		ScheduledAt:           r.ScheduledAt,
		Bucket:                string(domain.ClassifyRA(r.Snapshot())),
	}
}

func ToTQPageResponse(page *service.TQPage) PageResponse[TQRowResponse] {
	rows := make([]TQRowResponse, 0, len(page.Rows))
	for _, r := range page.Rows {
		rows = append(rows, toTQRowResponse(r))
	}
	return PageResponse[TQRowResponse]{
		Tab:   string(page.Tab),
		Rows:  rows,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
}

func toTQRowResponse(r repository.TQRow) TQRowResponse {
	var latest *domain.TQStatus
	if r.TQStatus != nil {
		v := domain.TQStatus(*r.TQStatus)
		latest = &v
	}
	return TQRowResponse{
		TenderID:       r.TenderID,
		TenderNo:       r.TenderNo,
		TenderName:     r.TenderName,
		Organisation:   r.Organisation,
		ItemName:       r.ItemName,
		StatusName:     r.StatusName,
		AssigneeName:   r.AssigneeName,
		SubmissionDate: r.SubmissionDate,
		TQStatus:       r.TQStatus,
		TQDeadline:     r.TQDeadline,
		ReceivedAt:     r.ReceivedAt,
		RepliedAt:      r.RepliedAt,
		Bucket:         string(domain.ClassifyTQ(latest)),
	}
}

// CountsResponse keys tab name to its total.
type CountsResponse map[string]int

func ToRACountsResponse(counts map[domain.RATab]int) CountsResponse {
	out := make(CountsResponse, len(counts))
	for tab, n := range counts {
		out[string(tab)] = n
	}
	return out
}

func ToTQCountsResponse(counts map[domain.TQTab]int) CountsResponse {
	out := make(CountsResponse, len(counts))
	for tab, n := range counts {
		out[string(tab)] = n
	}
	return out
}
