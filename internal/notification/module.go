// Package notification turns workflow events into email. It subscribes to
// the event bus and inverts the dependency: the workflow engine never knows
// an email provider exists.
//
// Delivery failures are logged and swallowed. A notification must never fail
// or roll back the transition that triggered it.
package notification

import (
	"context"
	"time"

	"tender_portal_backend/internal/email"
	"tender_portal_backend/internal/events"
	"tender_portal_backend/internal/notification/repository"
	"tender_portal_backend/platform/logger"
)

const timeLayout = "02-01-2006 15:04 MST"

// UserDirectory resolves recipients for a tender.
type UserDirectory interface {
	GetTenderContacts(ctx context.Context, tenderID int64) (*repository.TenderContacts, error)
	ListEmailsByRole(ctx context.Context, role string) ([]string, error)
}

type Module struct {
	sender    email.Sender
	directory UserDirectory
	log       *logger.Logger
}

func NewModule(sender email.Sender, directory UserDirectory, log *logger.Logger) *Module {
	return &Module{sender: sender, directory: directory, log: log}
}

// RegisterHandlers subscribes to every workflow event that produces mail.
// tender.status_changed stays mail-free: every transition that warrants mail
// publishes its own outcome event alongside it.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ReverseAuctionScheduled{}.EventName(), m)
	bus.Subscribe(events.ReverseAuctionResultUploaded{}.EventName(), m)
	bus.Subscribe(events.TQReceived{}.EventName(), m)
	bus.Subscribe(events.TQReplied{}.EventName(), m)
	bus.Subscribe(events.TQMissed{}.EventName(), m)
	bus.Subscribe(events.TQQualified{}.EventName(), m)
}

// Handle dispatches one event. It always returns nil: the error path is the
// notification log, not the caller.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ReverseAuctionScheduled:
		m.handleRAScheduled(ctx, e)
	case events.ReverseAuctionResultUploaded:
		m.handleRAResult(ctx, e)
	case events.TQReceived:
		m.handleTQReceived(ctx, e)
	case events.TQReplied:
		m.handleTQReplied(ctx, e)
	case events.TQMissed:
		m.handleTQMissed(ctx, e)
	case events.TQQualified:
		m.handleTQQualified(ctx, e)
	}
	return nil
}

// RA schedules go to every admin, with the coordinators on cc.
func (m *Module) handleRAScheduled(ctx context.Context, e events.ReverseAuctionScheduled) {
	contacts, ok := m.contacts(ctx, e.EventName(), e.TenderID)
	if !ok {
		return
	}

	to, err := m.directory.ListEmailsByRole(ctx, "admin")
	if err != nil {
		m.log.NotificationError(e.EventName(), e.TenderID, err)
		return
	}
	cc, err := m.directory.ListEmailsByRole(ctx, "coordinator")
	if err != nil {
		m.log.NotificationError(e.EventName(), e.TenderID, err)
		return
	}
	if len(to) == 0 {
		return
	}

	tender := email.Tender{TenderNo: contacts.TenderNo, TenderName: contacts.TenderName}
	if err := m.sender.SendRAScheduledEmail(ctx, to, cc, tender,
		formatTime(e.RAStartTime), formatTime(e.RAEndTime)); err != nil {
		m.log.NotificationError(e.EventName(), e.TenderID, err)
	}
}

// Every uploaded outcome produces a result mail; the subject and body vary
// with Won, Lost and H1 Elimination.
func (m *Module) handleRAResult(ctx context.Context, e events.ReverseAuctionResultUploaded) {
	contacts, ok := m.contacts(ctx, e.EventName(), e.TenderID)
	if !ok {
		return
	}

	to := collectEmails(contacts.AssigneeEmail, contacts.TeamLeaderEmail)
	if len(to) == 0 {
		return
	}

	tender := email.Tender{TenderNo: contacts.TenderNo, TenderName: contacts.TenderName}
	if err := m.sender.SendRAResultEmail(ctx, to, tender, e.Result); err != nil {
		m.log.NotificationError(e.EventName(), e.TenderID, err)
	}
}

func (m *Module) handleTQReceived(ctx context.Context, e events.TQReceived) {
	contacts, ok := m.contacts(ctx, e.EventName(), e.TenderID)
	if !ok || contacts.AssigneeEmail == nil {
		return
	}

	tender := email.Tender{TenderNo: contacts.TenderNo, TenderName: contacts.TenderName}
	if err := m.sender.SendTQReceivedEmail(ctx, *contacts.AssigneeEmail, tender, formatTime(e.Deadline)); err != nil {
		m.log.NotificationError(e.EventName(), e.TenderID, err)
	}
}

func (m *Module) handleTQReplied(ctx context.Context, e events.TQReplied) {
	contacts, ok := m.contacts(ctx, e.EventName(), e.TenderID)
	if !ok || contacts.TeamLeaderEmail == nil {
		return
	}

	tender := email.Tender{TenderNo: contacts.TenderNo, TenderName: contacts.TenderName}
	if err := m.sender.SendTQRepliedEmail(ctx, *contacts.TeamLeaderEmail, tender); err != nil {
		m.log.NotificationError(e.EventName(), e.TenderID, err)
	}
}

func (m *Module) handleTQMissed(ctx context.Context, e events.TQMissed) {
	contacts, ok := m.contacts(ctx, e.EventName(), e.TenderID)
	if !ok {
		return
	}

	to := collectEmails(contacts.AssigneeEmail, contacts.TeamLeaderEmail)
	if len(to) == 0 {
		return
	}

	tender := email.Tender{TenderNo: contacts.TenderNo, TenderName: contacts.TenderName}
	if err := m.sender.SendTQMissedEmail(ctx, to, tender, e.MissedReason); err != nil {
		m.log.NotificationError(e.EventName(), e.TenderID, err)
	}
}

func (m *Module) handleTQQualified(ctx context.Context, e events.TQQualified) {
	contacts, ok := m.contacts(ctx, e.EventName(), e.TenderID)
	if !ok {
		return
	}

	to := collectEmails(contacts.AssigneeEmail, contacts.TeamLeaderEmail)
	if len(to) == 0 {
		return
	}

	tender := email.Tender{TenderNo: contacts.TenderNo, TenderName: contacts.TenderName}
	if err := m.sender.SendTQQualifiedEmail(ctx, to, tender, true); err != nil {
		m.log.NotificationError(e.EventName(), e.TenderID, err)
	}
}

func (m *Module) contacts(ctx context.Context, eventName string, tenderID int64) (*repository.TenderContacts, bool) {
	contacts, err := m.directory.GetTenderContacts(ctx, tenderID)
	if err != nil {
		m.log.NotificationError(eventName, tenderID, err)
		return nil, false
	}
	return contacts, true
}

func collectEmails(addrs ...*string) []string {
	var out []string
	for _, a := range addrs {
		if a == nil || *a == "" {
			continue
		}
		out = append(out, *a)
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}
