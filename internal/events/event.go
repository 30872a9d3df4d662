// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"tender_portal_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Workflow Domain Events
// =============================================================================

// TenderStatusChanged is published after any committed canonical-status
// transition, whether manual or forced by a sub-workflow operation.
type TenderStatusChanged struct {
	BaseEvent
	TenderID   int64  `json:"tenderId"`
	TenderNo   string `json:"tenderNo"`
	PrevStatus *int64 `json:"prevStatus,omitempty"`
	NewStatus  int64  `json:"newStatus"`
	ChangedBy  int64  `json:"changedBy"`
	Comment    string `json:"comment,omitempty"`
}

func (e TenderStatusChanged) EventName() string { return "tender.status_changed" }

// ReverseAuctionScheduled is published when a tender passes technical
// qualification and its reverse auction is scheduled. The disqualified
// branch publishes nothing.
type ReverseAuctionScheduled struct {
	BaseEvent
	TenderID              int64      `json:"tenderId"`
	TenderNo              string     `json:"tenderNo"`
	ReverseAuctionID      int64      `json:"reverseAuctionId"`
	QualifiedPartiesCount int        `json:"qualifiedPartiesCount"`
	QualifiedPartiesNames string     `json:"qualifiedPartiesNames"`
	RAStartTime           *time.Time `json:"raStartTime,omitempty"`
	RAEndTime             *time.Time `json:"raEndTime,omitempty"`
	ScheduledBy           int64      `json:"scheduledBy"`
}

func (e ReverseAuctionScheduled) EventName() string { return "ra.scheduled" }

// ReverseAuctionResultUploaded is published for every uploaded outcome.
type ReverseAuctionResultUploaded struct {
	BaseEvent
	TenderID         int64  `json:"tenderId"`
	TenderNo         string `json:"tenderNo"`
	ReverseAuctionID int64  `json:"reverseAuctionId"`
	Result           string `json:"result"`
	UploadedBy       int64  `json:"uploadedBy"`
}

func (e ReverseAuctionResultUploaded) EventName() string { return "ra.result" }

// TQReceived is published when a tender query document is recorded.
type TQReceived struct {
	BaseEvent
	TenderID      int64      `json:"tenderId"`
	TenderNo      string     `json:"tenderNo"`
	TenderQueryID int64      `json:"tenderQueryId"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	ItemCount     int        `json:"itemCount"`
	ReceivedBy    int64      `json:"receivedBy"`
}

func (e TQReceived) EventName() string { return "tq.received" }

// TQReplied is published when the reply to a tender query is recorded.
type TQReplied struct {
	BaseEvent
	TenderID      int64  `json:"tenderId"`
	TenderNo      string `json:"tenderNo"`
	TenderQueryID int64  `json:"tenderQueryId"`
	RepliedBy     int64  `json:"repliedBy"`
}

func (e TQReplied) EventName() string { return "tq.replied" }

// TQMissed is published when a tender query deadline was missed and the
// tender is disqualified for it.
type TQMissed struct {
	BaseEvent
	TenderID      int64  `json:"tenderId"`
	TenderNo      string `json:"tenderNo"`
	TenderQueryID int64  `json:"tenderQueryId"`
	MissedReason  string `json:"missedReason"`
	ChangedBy     int64  `json:"changedBy"`
}

func (e TQMissed) EventName() string { return "tq.missed" }

// TQQualified is published by the qualified branch of the TQ qualification
// operations. The disqualified branch publishes nothing.
type TQQualified struct {
	BaseEvent
	TenderID      int64  `json:"tenderId"`
	TenderNo      string `json:"tenderNo"`
	TenderQueryID *int64 `json:"tenderQueryId,omitempty"`
	QualifiedBy   int64  `json:"qualifiedBy"`
}

func (e TQQualified) EventName() string { return "tq.qualified" }
