// Package service implements the tender workflow engine: every status
// transition, its ledger entry and the result projection commit atomically,
// and interested modules are told about it afterwards.
package service

import (
	"context"
	"errors"
	"time"

	"tender_portal_backend/internal/events"
	"tender_portal_backend/internal/scheduler"
	"tender_portal_backend/internal/statuscatalog"
	"tender_portal_backend/internal/workflow/domain"
	"tender_portal_backend/internal/workflow/repository"
	"tender_portal_backend/internal/workflow/transport"
	"tender_portal_backend/platform/apperr"
	"tender_portal_backend/platform/logger"
)

// History comments written by the engine's forced transitions.
const (
	commentRAScheduled   = "RA scheduled"
	commentH1Elimination = "H1 Elimination"
	commentTQReceived    = "TQ received"
	commentTQReplied     = "TQ replied"
	commentTQMissed      = "TQ deadline missed"
	commentQualified     = "Technically qualified"
	commentDisqualified  = "Technically disqualified"
)

// Store is the persistence surface the engine drives. Satisfied by
// *repository.Repository.
type Store interface {
	GetTender(ctx context.Context, tenderID int64) (*repository.Tender, error)
	GetReverseAuction(ctx context.Context, raID int64) (*repository.ReverseAuction, error)
	ListTenderQueries(ctx context.Context, tenderID int64) ([]repository.TenderQuery, error)
	ListTQItems(ctx context.Context, tqID int64) ([]repository.TQItem, error)
	ListStatusHistory(ctx context.Context, tenderID int64) ([]repository.StatusHistoryEntry, error)

	UpdateTenderStatus(ctx context.Context, p repository.UpdateTenderStatusParams) (*repository.StatusChange, error)
	InsertDisqualifiedRA(ctx context.Context, p repository.InsertDisqualifiedRAParams) (*repository.ReverseAuction, error)
	InsertScheduledRA(ctx context.Context, p repository.InsertScheduledRAParams) (*repository.ReverseAuction, *repository.StatusChange, error)
	UploadRAResult(ctx context.Context, p repository.UploadRAResultParams) (*repository.ReverseAuction, error)
	AdvanceScheduledToStarted(ctx context.Context, fromStatus, toStatus, projectionStatus string, now time.Time) (int, error)
	AdvanceStartedToEnded(ctx context.Context, fromStatus, toStatus, projectionStatus string, now time.Time) (int, error)
	InsertTQReceived(ctx context.Context, p repository.InsertTQReceivedParams) (*repository.TenderQuery, *repository.StatusChange, error)
	UpdateTQReplied(ctx context.Context, p repository.UpdateTQRepliedParams) (*repository.TenderQuery, *repository.StatusChange, error)
	UpdateTQMissed(ctx context.Context, p repository.UpdateTQMissedParams) (*repository.TenderQuery, *repository.StatusChange, error)
	InsertTQQualification(ctx context.Context, p repository.InsertTQQualificationParams) (*repository.TenderQuery, *repository.StatusChange, error)
	UpdateTQQualification(ctx context.Context, p repository.UpdateTQQualificationParams) (*repository.TenderQuery, *repository.StatusChange, error)
}

// Engine provides the workflow transition operations.
type Engine struct {
	store   Store
	catalog *statuscatalog.Catalog
	codes   statuscatalog.Codes
	bus     events.Bus
	advance scheduler.RAAdvanceScheduler
	log     *logger.Logger
}

// New creates a workflow engine. advance may be nil when no task queue is
// configured; the periodic sweep still moves auctions forward.
func New(store Store, catalog *statuscatalog.Catalog, bus events.Bus, advance scheduler.RAAdvanceScheduler, log *logger.Logger) *Engine {
	return &Engine{
		store:   store,
		catalog: catalog,
		codes:   catalog.Codes(),
		bus:     bus,
		advance: advance,
		log:     log,
	}
}

// UpdateStatus performs a manual canonical-status transition.
func (e *Engine) UpdateStatus(ctx context.Context, tenderID int64, req transport.UpdateStatusRequest, changedBy int64) error {
	if !e.catalog.Exists(req.Status) {
		return apperr.Validation("unknown status code")
	}

	change, err := e.store.UpdateTenderStatus(ctx, repository.UpdateTenderStatusParams{
		TenderID:  tenderID,
		NewStatus: req.Status,
		ChangedBy: changedBy,
		Comment:   req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperr.NotFound("tender not found")
		case errors.Is(err, repository.ErrSameStatus):
			return apperr.InvalidTransition("tender already has this status")
		default:
			return apperr.TransitionFailed("workflow.UpdateStatus", err)
		}
	}

	e.logStatusChange(change, changedBy)
	e.publishStatusChanged(ctx, change, changedBy, req.Comment)
	return nil
}

// ScheduleReverseAuction records the technical qualification outcome. The
// disqualified branch leaves the canonical status alone and notifies nobody.
func (e *Engine) ScheduleReverseAuction(ctx context.Context, tenderID int64, req transport.ScheduleRARequest, changedBy int64) (*repository.ReverseAuction, error) {
	if req.TechnicallyQualified == "No" {
		if req.DisqualificationReason == nil || *req.DisqualificationReason == "" {
			return nil, apperr.Validation("disqualificationReason is required when not technically qualified")
		}

		ra, err := e.store.InsertDisqualifiedRA(ctx, repository.InsertDisqualifiedRAParams{
			TenderID:               tenderID,
			Status:                 string(domain.RADisqualified),
			TechnicallyQualified:   req.TechnicallyQualified,
			DisqualificationReason: *req.DisqualificationReason,
			BidSubmissionDate:      req.BidSubmissionDate,
			ProjectionStatus:       domain.ProjectionStatus(domain.RADisqualified),
		})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperr.NotFound("tender not found")
			}
			return nil, apperr.TransitionFailed("workflow.ScheduleReverseAuction", err)
		}
		return ra, nil
	}

	count := 0
	if req.QualifiedPartiesCount != nil {
		count = *req.QualifiedPartiesCount
	}
	names := ""
	if req.QualifiedPartiesNames != nil {
		names = *req.QualifiedPartiesNames
	}

	ra, change, err := e.store.InsertScheduledRA(ctx, repository.InsertScheduledRAParams{
		TenderID:              tenderID,
		Status:                string(domain.RAScheduled),
		TechnicallyQualified:  req.TechnicallyQualified,
		QualifiedPartiesCount: count,
		QualifiedPartiesNames: names,
		RAStartTime:           req.RAStartTime,
		RAEndTime:             req.RAEndTime,
		BidSubmissionDate:     req.BidSubmissionDate,
		TenderStatus:          e.codes.RAScheduled,
		ChangedBy:             changedBy,
		HistoryComment:        commentRAScheduled,
		ProjectionStatus:      domain.ProjectionStatus(domain.RAScheduled),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("tender not found")
		}
		return nil, apperr.TransitionFailed("workflow.ScheduleReverseAuction", err)
	}

	e.logStatusChange(change, changedBy)
	e.enqueueAdvanceTasks(ctx, ra)

	e.bus.Publish(ctx, events.ReverseAuctionScheduled{
		BaseEvent:             events.NewBaseEvent(),
		TenderID:              change.TenderID,
		TenderNo:              change.TenderNo,
		ReverseAuctionID:      ra.ID,
		QualifiedPartiesCount: count,
		QualifiedPartiesNames: names,
		RAStartTime:           ra.RAStartTime,
		RAEndTime:             ra.RAEndTime,
		ScheduledBy:           changedBy,
	})
	e.publishStatusChanged(ctx, change, changedBy, nil)

	return ra, nil
}

// UploadReverseAuctionResult settles an auction outcome. Only an H1
// elimination forces the canonical status; won and lost touch the sub-record
// and projection alone.
func (e *Engine) UploadReverseAuctionResult(ctx context.Context, raID int64, req transport.UploadRAResultRequest, changedBy int64) (*repository.ReverseAuction, error) {
	result := domain.RAResult(req.Result)
	if !result.Valid() {
		return nil, apperr.Validation("unknown reverse auction result")
	}

	status, err := domain.StatusForResult(result)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	var forceStatus *int64
	if result == domain.ResultH1Elimination {
		forceStatus = &e.codes.H1Elimination
	}

	ra, err := e.store.UploadRAResult(ctx, repository.UploadRAResultParams{
		RAID:                  raID,
		Status:                string(status),
		Result:                string(result),
		VeL1AtStart:           req.VeL1AtStart,
		RAStartPrice:          req.RAStartPrice,
		RAClosePrice:          req.RAClosePrice,
		RACloseTime:           req.RACloseTime,
		FinalResultScreenshot: req.FinalResultScreenshot,
		ForceTenderStatus:     forceStatus,
		ChangedBy:             changedBy,
		HistoryComment:        commentH1Elimination,
		ProjectionStatus:      domain.ProjectionStatus(status),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("reverse auction not found")
		}
		return nil, apperr.TransitionFailed("workflow.UploadReverseAuctionResult", err)
	}

	tenderNo := ""
	if ra.TenderNo != nil {
		tenderNo = *ra.TenderNo
	}
	e.bus.Publish(ctx, events.ReverseAuctionResultUploaded{
		BaseEvent:        events.NewBaseEvent(),
		TenderID:         ra.TenderID,
		TenderNo:         tenderNo,
		ReverseAuctionID: ra.ID,
		Result:           string(result),
		UploadedBy:       changedBy,
	})

	return ra, nil
}

// AdvanceScheduledToStarted moves every auction whose start time has passed
// to started. Idempotent; never touches the canonical tender status.
func (e *Engine) AdvanceScheduledToStarted(ctx context.Context) (int, error) {
	advanced, err := e.store.AdvanceScheduledToStarted(ctx,
		string(domain.RAScheduled), string(domain.RAStarted),
		domain.ProjectionStatus(domain.RAStarted), time.Now())
	if err != nil {
		return 0, apperr.TransitionFailed("workflow.AdvanceScheduledToStarted", err)
	}
	e.log.SweepRun("scheduled_to_started", advanced)
	return advanced, nil
}

// AdvanceStartedToEnded is the mirror sweep for the auction end time.
func (e *Engine) AdvanceStartedToEnded(ctx context.Context) (int, error) {
	advanced, err := e.store.AdvanceStartedToEnded(ctx,
		string(domain.RAStarted), string(domain.RAEnded),
		domain.ProjectionStatus(domain.RAEnded), time.Now())
	if err != nil {
		return 0, apperr.TransitionFailed("workflow.AdvanceStartedToEnded", err)
	}
	e.log.SweepRun("started_to_ended", advanced)
	return advanced, nil
}

// RecordTQReceived registers an incoming tender query with its line items.
func (e *Engine) RecordTQReceived(ctx context.Context, tenderID int64, req transport.RecordTQReceivedRequest, receivedBy int64) (*repository.TenderQuery, error) {
	items := make([]repository.TQItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, repository.TQItemInput{
			SrNo:             item.SrNo,
			TQType:           item.TQType,
			QueryDescription: item.QueryDescription,
		})
	}

	tq, change, err := e.store.InsertTQReceived(ctx, repository.InsertTQReceivedParams{
		TenderID:           tenderID,
		Status:             string(domain.TQReceived),
		Deadline:           req.Deadline,
		TQDocumentReceived: req.TQDocumentReceived,
		Items:              items,
		ReceivedBy:         receivedBy,
		TenderStatus:       e.codes.TQReceived,
		HistoryComment:     commentTQReceived,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("tender not found")
		}
		return nil, apperr.TransitionFailed("workflow.RecordTQReceived", err)
	}

	e.logStatusChange(change, receivedBy)
	e.bus.Publish(ctx, events.TQReceived{
		BaseEvent:     events.NewBaseEvent(),
		TenderID:      change.TenderID,
		TenderNo:      change.TenderNo,
		TenderQueryID: tq.ID,
		Deadline:      req.Deadline,
		ItemCount:     len(items),
		ReceivedBy:    receivedBy,
	})
	e.publishStatusChanged(ctx, change, receivedBy, nil)

	return tq, nil
}

// RecordTQReplied registers the reply to a tender query.
func (e *Engine) RecordTQReplied(ctx context.Context, tqID int64, req transport.RecordTQRepliedRequest, repliedBy int64) (*repository.TenderQuery, error) {
	tq, change, err := e.store.UpdateTQReplied(ctx, repository.UpdateTQRepliedParams{
		TQID:              tqID,
		Status:            string(domain.TQReplied),
		RepliedDatetime:   req.RepliedDatetime,
		RepliedDocument:   req.RepliedDocument,
		ProofOfSubmission: req.ProofOfSubmission,
		RepliedBy:         repliedBy,
		TenderStatus:      e.codes.TQReplied,
		HistoryComment:    commentTQReplied,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("tender query not found")
		}
		return nil, apperr.TransitionFailed("workflow.RecordTQReplied", err)
	}

	e.logStatusChange(change, repliedBy)
	e.bus.Publish(ctx, events.TQReplied{
		BaseEvent:     events.NewBaseEvent(),
		TenderID:      change.TenderID,
		TenderNo:      change.TenderNo,
		TenderQueryID: tq.ID,
		RepliedBy:     repliedBy,
	})
	e.publishStatusChanged(ctx, change, repliedBy, nil)

	return tq, nil
}

// RecordTQMissed registers a missed tender-query deadline. The reason is
// mandatory; there is no silent disqualification.
func (e *Engine) RecordTQMissed(ctx context.Context, tqID int64, req transport.RecordTQMissedRequest, changedBy int64) (*repository.TenderQuery, error) {
	if req.MissedReason == "" {
		return nil, apperr.Validation("missedReason is required")
	}

	tq, change, err := e.store.UpdateTQMissed(ctx, repository.UpdateTQMissedParams{
		TQID:               tqID,
		Status:             string(domain.TQDisqualifiedMissed),
		MissedReason:       req.MissedReason,
		PreventionMeasures: req.PreventionMeasures,
		TMSImprovements:    req.TMSImprovements,
		ChangedBy:          changedBy,
		TenderStatus:       e.codes.DisqualifiedTQMissed,
		HistoryComment:     commentTQMissed,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("tender query not found")
		}
		return nil, apperr.TransitionFailed("workflow.RecordTQMissed", err)
	}

	e.logStatusChange(change, changedBy)
	e.bus.Publish(ctx, events.TQMissed{
		BaseEvent:     events.NewBaseEvent(),
		TenderID:      change.TenderID,
		TenderNo:      change.TenderNo,
		TenderQueryID: tq.ID,
		MissedReason:  req.MissedReason,
		ChangedBy:     changedBy,
	})
	e.publishStatusChanged(ctx, change, changedBy, nil)

	return tq, nil
}

// MarkNoTQ records the qualification outcome for a tender that never received
// a query document. Only the qualified branch notifies.
func (e *Engine) MarkNoTQ(ctx context.Context, tenderID int64, userID int64, qualified bool) (*repository.TenderQuery, error) {
	status := domain.TQDisqualifiedNoReceived
	tenderStatus := e.codes.DisqualifiedNoTQReceived
	comment := commentDisqualified
	if qualified {
		status = domain.TQQualifiedNoReceived
		tenderStatus = e.codes.QualifiedNoTQReceived
		comment = commentQualified
	}

	tq, change, err := e.store.InsertTQQualification(ctx, repository.InsertTQQualificationParams{
		TenderID:       tenderID,
		Status:         string(status),
		ChangedBy:      userID,
		TenderStatus:   tenderStatus,
		HistoryComment: comment,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("tender not found")
		}
		return nil, apperr.TransitionFailed("workflow.MarkNoTQ", err)
	}

	e.logStatusChange(change, userID)
	if qualified {
		tqID := tq.ID
		e.bus.Publish(ctx, events.TQQualified{
			BaseEvent:     events.NewBaseEvent(),
			TenderID:      change.TenderID,
			TenderNo:      change.TenderNo,
			TenderQueryID: &tqID,
			QualifiedBy:   userID,
		})
	}
	e.publishStatusChanged(ctx, change, userID, nil)

	return tq, nil
}

// QualifyTQ records the qualification outcome on an existing tender query.
// Only the qualified branch notifies.
func (e *Engine) QualifyTQ(ctx context.Context, tqID int64, userID int64, qualified bool) (*repository.TenderQuery, error) {
	status := domain.TQDisqualifiedMissed
	tenderStatus := e.codes.DisqualifiedTQMissed
	comment := commentDisqualified
	if qualified {
		status = domain.TQRepliedQualified
		tenderStatus = e.codes.TQRepliedQualified
		comment = commentQualified
	}

	tq, change, err := e.store.UpdateTQQualification(ctx, repository.UpdateTQQualificationParams{
		TQID:           tqID,
		Status:         string(status),
		ChangedBy:      userID,
		TenderStatus:   tenderStatus,
		HistoryComment: comment,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("tender query not found")
		}
		return nil, apperr.TransitionFailed("workflow.QualifyTQ", err)
	}

	e.logStatusChange(change, userID)
	if qualified {
		id := tq.ID
		e.bus.Publish(ctx, events.TQQualified{
			BaseEvent:     events.NewBaseEvent(),
			TenderID:      change.TenderID,
			TenderNo:      change.TenderNo,
			TenderQueryID: &id,
			QualifiedBy:   userID,
		})
	}
	e.publishStatusChanged(ctx, change, userID, nil)

	return tq, nil
}

// GetReverseAuction returns a reverse auction by id.
func (e *Engine) GetReverseAuction(ctx context.Context, raID int64) (*repository.ReverseAuction, error) {
	ra, err := e.store.GetReverseAuction(ctx, raID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("reverse auction not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load reverse auction", err).WithOp("workflow.GetReverseAuction")
	}
	return ra, nil
}

// GetTenderQueries returns all query rows for a tender, most recent first.
func (e *Engine) GetTenderQueries(ctx context.Context, tenderID int64) ([]repository.TenderQuery, error) {
	if _, err := e.store.GetTender(ctx, tenderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("tender not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load tender", err).WithOp("workflow.GetTenderQueries")
	}
	queries, err := e.store.ListTenderQueries(ctx, tenderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list tender queries", err).WithOp("workflow.GetTenderQueries")
	}
	return queries, nil
}

// GetTQItems returns the line items of a tender query.
func (e *Engine) GetTQItems(ctx context.Context, tqID int64) ([]repository.TQItem, error) {
	items, err := e.store.ListTQItems(ctx, tqID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list tender query items", err).WithOp("workflow.GetTQItems")
	}
	return items, nil
}

// ListStatusHistory returns the ledger for a tender, oldest entry first.
func (e *Engine) ListStatusHistory(ctx context.Context, tenderID int64) ([]repository.StatusHistoryEntry, error) {
	if _, err := e.store.GetTender(ctx, tenderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("tender not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load tender", err).WithOp("workflow.ListStatusHistory")
	}
	entries, err := e.store.ListStatusHistory(ctx, tenderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list status history", err).WithOp("workflow.ListStatusHistory")
	}
	return entries, nil
}

// enqueueAdvanceTasks schedules the delayed start and end advances. Failures
// are logged and swallowed: the periodic sweep will catch the auction anyway.
func (e *Engine) enqueueAdvanceTasks(ctx context.Context, ra *repository.ReverseAuction) {
	if e.advance == nil {
		return
	}

	payload := scheduler.RAAdvancePayload{ReverseAuctionID: ra.ID, TenderID: ra.TenderID}
	if ra.RAStartTime != nil {
		if err := e.advance.ScheduleRAAdvanceStart(ctx, payload, *ra.RAStartTime); err != nil {
			e.log.Warn("failed to enqueue ra start advance", "ra_id", ra.ID, "error", err)
		}
	}
	if ra.RAEndTime != nil {
		if err := e.advance.ScheduleRAAdvanceEnd(ctx, payload, *ra.RAEndTime); err != nil {
			e.log.Warn("failed to enqueue ra end advance", "ra_id", ra.ID, "error", err)
		}
	}
}

func (e *Engine) logStatusChange(change *repository.StatusChange, changedBy int64) {
	if change == nil {
		return
	}
	e.log.StatusTransition(change.TenderID, change.PrevStatus, change.NewStatus, changedBy)
}

func (e *Engine) publishStatusChanged(ctx context.Context, change *repository.StatusChange, changedBy int64, comment *string) {
	if change == nil {
		return
	}
	text := ""
	if comment != nil {
		text = *comment
	}
	e.bus.Publish(ctx, events.TenderStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		TenderID:   change.TenderID,
		TenderNo:   change.TenderNo,
		PrevStatus: change.PrevStatus,
		NewStatus:  change.NewStatus,
		ChangedBy:  changedBy,
		Comment:    text,
	})
}
