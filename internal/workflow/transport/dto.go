// Package transport defines the request and response shapes of the workflow
// HTTP surface.
package transport

import (
	"time"

	"tender_portal_backend/internal/workflow/repository"
)

// UpdateStatusRequest is the body of a manual canonical-status transition.
type UpdateStatusRequest struct {
	Status  int64   `json:"status" validate:"required,gt=0"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// ScheduleRARequest carries the technical qualification outcome.
type ScheduleRARequest struct {
	TechnicallyQualified   string     `json:"technicallyQualified" validate:"required,oneof=Yes No"`
	DisqualificationReason *string    `json:"disqualificationReason" validate:"omitempty,max=2000"`
	QualifiedPartiesCount  *int       `json:"qualifiedPartiesCount" validate:"omitempty,gte=0"`
	QualifiedPartiesNames  *string    `json:"qualifiedPartiesNames" validate:"omitempty,max=4000"`
	RAStartTime            *time.Time `json:"raStartTime"`
	RAEndTime              *time.Time `json:"raEndTime"`
	BidSubmissionDate      *time.Time `json:"bidSubmissionDate"`
}

// UploadRAResultRequest carries the auction outcome and closing figures.
type UploadRAResultRequest struct {
	Result                string     `json:"result" validate:"required,oneof=Won Lost 'H1 Elimination'"`
	VeL1AtStart           *string    `json:"veL1AtStart" validate:"omitempty,max=255"`
	RAStartPrice          *float64   `json:"raStartPrice" validate:"omitempty,gte=0"`
	RAClosePrice          *float64   `json:"raClosePrice" validate:"omitempty,gte=0"`
	RACloseTime           *time.Time `json:"raCloseTime"`
	FinalResultScreenshot *string    `json:"finalResultScreenshot" validate:"omitempty,max=1024"`
}

// TQItemRequest is one query line item.
type TQItemRequest struct {
	SrNo             int    `json:"srNo" validate:"gte=0"`
	TQType           string `json:"tqType" validate:"omitempty,max=255"`
	QueryDescription string `json:"queryDescription" validate:"required,max=4000"`
}

// RecordTQReceivedRequest records an incoming tender query document.
type RecordTQReceivedRequest struct {
	Deadline           *time.Time      `json:"tqSubmissionDeadline"`
	TQDocumentReceived *string         `json:"tqDocumentReceived" validate:"omitempty,max=1024"`
	Items              []TQItemRequest `json:"items" validate:"omitempty,dive"`
}

// RecordTQRepliedRequest records the reply to a tender query.
type RecordTQRepliedRequest struct {
	RepliedDatetime   *time.Time `json:"repliedDatetime"`
	RepliedDocument   *string    `json:"repliedDocument" validate:"omitempty,max=1024"`
	ProofOfSubmission *string    `json:"proofOfSubmission" validate:"omitempty,max=1024"`
}

// RecordTQMissedRequest records a missed tender-query deadline.
type RecordTQMissedRequest struct {
	MissedReason       string  `json:"missedReason" validate:"required,max=2000"`
	PreventionMeasures *string `json:"preventionMeasures" validate:"omitempty,max=2000"`
	TMSImprovements    *string `json:"tmsImprovements" validate:"omitempty,max=2000"`
}

// QualifyRequest carries the boolean qualification outcome, shared by the
// no-TQ and qualify-TQ operations.
type QualifyRequest struct {
	Qualified *bool `json:"qualified" validate:"required"`
}

// ReverseAuctionResponse is the API representation of a reverse auction.
type ReverseAuctionResponse struct {
	ID                     int64      `json:"id"`
	TenderID               int64      `json:"tenderId"`
	TenderNo               *string    `json:"tenderNo,omitempty"`
	Status                 string     `json:"status"`
	TechnicallyQualified   *string    `json:"technicallyQualified,omitempty"`
	DisqualificationReason *string    `json:"disqualificationReason,omitempty"`
	QualifiedPartiesCount  *int       `json:"qualifiedPartiesCount,omitempty"`
	QualifiedPartiesNames  *string    `json:"qualifiedPartiesNames,omitempty"`
	RAStartTime            *time.Time `json:"raStartTime,omitempty"`
	RAEndTime              *time.Time `json:"raEndTime,omitempty"`
	RAResult               *string    `json:"raResult,omitempty"`
	VeL1AtStart            *string    `json:"veL1AtStart,omitempty"`
	RAStartPrice           *float64   `json:"raStartPrice,omitempty"`
	RAClosePrice           *float64   `json:"raClosePrice,omitempty"`
	RACloseTime            *time.Time `json:"raCloseTime,omitempty"`
	FinalResultScreenshot  *string    `json:"finalResultScreenshot,omitempty"`
	ResultUploadedAt       *time.Time `json:"resultUploadedAt,omitempty"`
	ScheduledAt            *time.Time `json:"scheduledAt,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// ToReverseAuctionResponse maps a repository row to its API shape.
func ToReverseAuctionResponse(ra *repository.ReverseAuction) ReverseAuctionResponse {
	return ReverseAuctionResponse{
		ID:                     ra.ID,
		TenderID:               ra.TenderID,
		TenderNo:               ra.TenderNo,
		Status:                 ra.Status,
		TechnicallyQualified:   ra.TechnicallyQualified,
		DisqualificationReason: ra.DisqualificationReason,
		QualifiedPartiesCount:  ra.QualifiedPartiesCount,
		QualifiedPartiesNames:  ra.QualifiedPartiesNames,
		RAStartTime:            ra.RAStartTime,
		RAEndTime:              ra.RAEndTime,
		RAResult:               ra.RAResult,
		VeL1AtStart:            ra.VeL1AtStart,
		RAStartPrice:           ra.RAStartPrice,
		RAClosePrice:           ra.RAClosePrice,
		RACloseTime:            ra.RACloseTime,
		FinalResultScreenshot:  ra.FinalResultScreenshot,
		ResultUploadedAt:       ra.ResultUploadedAt,
		ScheduledAt:            ra.ScheduledAt,
		CreatedAt:              ra.CreatedAt,
		UpdatedAt:              ra.UpdatedAt,
	}
}

// TenderQueryResponse is the API representation of a tender query.
type TenderQueryResponse struct {
	ID                   int64      `json:"id"`
	TenderID             int64      `json:"tenderId"`
	Status               string     `json:"status"`
	TQSubmissionDeadline *time.Time `json:"tqSubmissionDeadline,omitempty"`
	TQDocumentReceived   *string    `json:"tqDocumentReceived,omitempty"`
	ReceivedBy           *int64     `json:"receivedBy,omitempty"`
	ReceivedAt           *time.Time `json:"receivedAt,omitempty"`
	RepliedDatetime      *time.Time `json:"repliedDatetime,omitempty"`
	RepliedDocument      *string    `json:"repliedDocument,omitempty"`
	ProofOfSubmission    *string    `json:"proofOfSubmission,omitempty"`
	RepliedBy            *int64     `json:"repliedBy,omitempty"`
	RepliedAt            *time.Time `json:"repliedAt,omitempty"`
	MissedReason         *string    `json:"missedReason,omitempty"`
	PreventionMeasures   *string    `json:"preventionMeasures,omitempty"`
	TMSImprovements      *string    `json:"tmsImprovements,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// ToTenderQueryResponse maps a repository row to its API shape.
func ToTenderQueryResponse(q *repository.TenderQuery) TenderQueryResponse {
	return TenderQueryResponse{
		ID:                   q.ID,
		TenderID:             q.TenderID,
		Status:               q.Status,
		TQSubmissionDeadline: q.TQSubmissionDeadline,
		TQDocumentReceived:   q.TQDocumentReceived,
		ReceivedBy:           q.ReceivedBy,
		ReceivedAt:           q.ReceivedAt,
		RepliedDatetime:      q.RepliedDatetime,
		RepliedDocument:      q.RepliedDocument,
		ProofOfSubmission:    q.ProofOfSubmission,
		RepliedBy:            q.RepliedBy,
		RepliedAt:            q.RepliedAt,
		MissedReason:         q.MissedReason,
		PreventionMeasures:   q.PreventionMeasures,
		TMSImprovements:      q.TMSImprovements,
		CreatedAt:            q.CreatedAt,
		UpdatedAt:            q.UpdatedAt,
	}
}

// TQItemResponse is one query line item as returned by the API.
type TQItemResponse struct {
	ID               int64   `json:"id"`
	SrNo             *int    `json:"srNo,omitempty"`
	TQType           *string `json:"tqType,omitempty"`
	QueryDescription *string `json:"queryDescription,omitempty"`
}

// ToTQItemResponses maps repository rows to their API shape.
func ToTQItemResponses(items []repository.TQItem) []TQItemResponse {
	out := make([]TQItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, TQItemResponse{
			ID:               item.ID,
			SrNo:             item.SrNo,
			TQType:           item.TQType,
			QueryDescription: item.QueryDescription,
		})
	}
	return out
}

// StatusHistoryResponse is one ledger entry as returned by the API.
type StatusHistoryResponse struct {
	ID             int64     `json:"id"`
	PrevStatus     *int64    `json:"prevStatus,omitempty"`
	PrevStatusName *string   `json:"prevStatusName,omitempty"`
	NewStatus      int64     `json:"newStatus"`
	NewStatusName  *string   `json:"newStatusName,omitempty"`
	ChangedBy      int64     `json:"changedBy"`
	ChangedByName  *string   `json:"changedByName,omitempty"`
	Comment        *string   `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToStatusHistoryResponses maps ledger rows to their API shape.
func ToStatusHistoryResponses(entries []repository.StatusHistoryEntry) []StatusHistoryResponse {
	out := make([]StatusHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, StatusHistoryResponse{
			ID:             e.ID,
			PrevStatus:     e.PrevStatus,
			PrevStatusName: e.PrevStatusName,
			NewStatus:      e.NewStatus,
			NewStatusName:  e.NewStatusName,
			ChangedBy:      e.ChangedBy,
			ChangedByName:  e.ChangedByName,
			Comment:        e.Comment,
			CreatedAt:      e.CreatedAt,
		})
	}
	return out
}

// SweepResponse reports how many auctions a sweep advanced.
type SweepResponse struct {
	Advanced int `json:"advanced"`
}
