package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"tender_portal_backend/internal/email"
	"tender_portal_backend/internal/events"
	"tender_portal_backend/internal/notification/repository"
	"tender_portal_backend/platform/logger"
)

type fakeDirectory struct {
	contacts *repository.TenderContacts
	byRole   map[string][]string
	err      error
}

func (f *fakeDirectory) GetTenderContacts(_ context.Context, _ int64) (*repository.TenderContacts, error) {
	return f.contacts, f.err
}

func (f *fakeDirectory) ListEmailsByRole(_ context.Context, role string) ([]string, error) {
	return f.byRole[role], nil
}

type recordingSender struct {
	email.NoopSender
	calls  []string
	to     []string
	cc     []string
	result string
	err    error
}

func (r *recordingSender) SendRAScheduledEmail(_ context.Context, to []string, cc []string, _ email.Tender, _, _ string) error {
	r.calls = append(r.calls, "ra_scheduled")
	r.to, r.cc = to, cc
	return r.err
}

func (r *recordingSender) SendRAResultEmail(_ context.Context, toEmails []string, _ email.Tender, result string) error {
	r.calls = append(r.calls, "ra_result")
	r.to = toEmails
	r.result = result
	return r.err
}

func (r *recordingSender) SendTQReceivedEmail(_ context.Context, toEmail string, _ email.Tender, _ string) error {
	r.calls = append(r.calls, "tq_received")
	r.to = []string{toEmail}
	return r.err
}

func (r *recordingSender) SendTQRepliedEmail(_ context.Context, toEmail string, _ email.Tender) error {
	r.calls = append(r.calls, "tq_replied")
	r.to = []string{toEmail}
	return r.err
}

func (r *recordingSender) SendTQMissedEmail(_ context.Context, toEmails []string, _ email.Tender, _ string) error {
	r.calls = append(r.calls, "tq_missed")
	r.to = toEmails
	return r.err
}

func (r *recordingSender) SendTQQualifiedEmail(_ context.Context, toEmails []string, _ email.Tender, _ bool) error {
	r.calls = append(r.calls, "tq_qualified")
	r.to = toEmails
	return r.err
}

func strPtr(s string) *string { return &s }

func fullDirectory() *fakeDirectory {
	return &fakeDirectory{
		contacts: &repository.TenderContacts{
			TenderNo:        "GEM-2026-1001",
			TenderName:      "Signalling spares",
			AssigneeEmail:   strPtr("engineer@example.com"),
			TeamLeaderEmail: strPtr("leader@example.com"),
		},
		byRole: map[string][]string{
			"admin":       {"admin1@example.com", "admin2@example.com"},
			"coordinator": {"coordinator@example.com"},
		},
	}
}

func TestRAScheduledGoesToAdminsWithCoordinatorCC(t *testing.T) {
	sender := &recordingSender{}
	module := NewModule(sender, fullDirectory(), logger.New("test"))

	start := time.Now()
	_ = module.Handle(context.Background(), events.ReverseAuctionScheduled{
		TenderID: 1, TenderNo: "GEM-2026-1001", RAStartTime: &start,
	})

	if len(sender.calls) != 1 || sender.calls[0] != "ra_scheduled" {
		t.Fatalf("calls = %v, want [ra_scheduled]", sender.calls)
	}
	if len(sender.to) != 2 || sender.to[0] != "admin1@example.com" {
		t.Errorf("to = %v, want both admins", sender.to)
	}
	if len(sender.cc) != 1 || sender.cc[0] != "coordinator@example.com" {
		t.Errorf("cc = %v, want coordinator", sender.cc)
	}
}

// Every uploaded outcome must produce a result mail.
func TestRAResultGoesToAssigneeAndLeader(t *testing.T) {
	for _, result := range []string{"Won", "Lost", "H1 Elimination"} {
		t.Run(result, func(t *testing.T) {
			sender := &recordingSender{}
			module := NewModule(sender, fullDirectory(), logger.New("test"))

			_ = module.Handle(context.Background(), events.ReverseAuctionResultUploaded{
				TenderID: 1, TenderNo: "GEM-2026-1001", Result: result,
			})

			if len(sender.calls) != 1 || sender.calls[0] != "ra_result" {
				t.Fatalf("calls = %v, want [ra_result]", sender.calls)
			}
			if len(sender.to) != 2 {
				t.Errorf("to = %v, want assignee and leader", sender.to)
			}
			if sender.result != result {
				t.Errorf("result = %q, want %q", sender.result, result)
			}
		})
	}
}

// The module must actually be subscribed: an uploaded result published on the
// bus has to reach the sender, not die unhandled.
func TestRAResultDeliveredViaBus(t *testing.T) {
	sender := &recordingSender{}
	module := NewModule(sender, fullDirectory(), logger.New("test"))

	bus := events.NewInMemoryBus(logger.New("test"))
	module.RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), events.ReverseAuctionResultUploaded{
		TenderID: 1, TenderNo: "GEM-2026-1001", Result: "Won",
	}); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}

	if len(sender.calls) != 1 || sender.calls[0] != "ra_result" {
		t.Fatalf("calls = %v, want [ra_result]", sender.calls)
	}
}

func TestTQReceivedGoesToAssignee(t *testing.T) {
	sender := &recordingSender{}
	module := NewModule(sender, fullDirectory(), logger.New("test"))

	_ = module.Handle(context.Background(), events.TQReceived{TenderID: 1})

	if len(sender.calls) != 1 || sender.calls[0] != "tq_received" {
		t.Fatalf("calls = %v, want [tq_received]", sender.calls)
	}
	if len(sender.to) != 1 || sender.to[0] != "engineer@example.com" {
		t.Errorf("to = %v, want assignee", sender.to)
	}
}

func TestTQRepliedGoesToTeamLeader(t *testing.T) {
	sender := &recordingSender{}
	module := NewModule(sender, fullDirectory(), logger.New("test"))

	_ = module.Handle(context.Background(), events.TQReplied{TenderID: 1})

	if len(sender.to) != 1 || sender.to[0] != "leader@example.com" {
		t.Errorf("to = %v, want team leader", sender.to)
	}
}

func TestTQMissedGoesToAssigneeAndLeader(t *testing.T) {
	sender := &recordingSender{}
	module := NewModule(sender, fullDirectory(), logger.New("test"))

	_ = module.Handle(context.Background(), events.TQMissed{TenderID: 1, MissedReason: "portal outage"})

	if len(sender.to) != 2 {
		t.Errorf("to = %v, want assignee and leader", sender.to)
	}
}

func TestMissingRecipientsSkipSilently(t *testing.T) {
	sender := &recordingSender{}
	directory := fullDirectory()
	directory.contacts.AssigneeEmail = nil
	directory.contacts.TeamLeaderEmail = nil
	module := NewModule(sender, directory, logger.New("test"))

	_ = module.Handle(context.Background(), events.TQReceived{TenderID: 1})
	_ = module.Handle(context.Background(), events.TQReplied{TenderID: 1})
	_ = module.Handle(context.Background(), events.TQMissed{TenderID: 1})
	_ = module.Handle(context.Background(), events.TQQualified{TenderID: 1})

	if len(sender.calls) != 0 {
		t.Errorf("calls = %v, want none without recipients", sender.calls)
	}
}

// A broken mail path must never surface to the workflow.
func TestDeliveryFailuresAreSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp: connection refused")}
	module := NewModule(sender, fullDirectory(), logger.New("test"))

	if err := module.Handle(context.Background(), events.TQQualified{TenderID: 1}); err != nil {
		t.Fatalf("Handle returned %v, want nil on delivery failure", err)
	}
}

func TestDirectoryFailuresAreSwallowed(t *testing.T) {
	sender := &recordingSender{}
	directory := &fakeDirectory{err: errors.New("connection reset")}
	module := NewModule(sender, directory, logger.New("test"))

	if err := module.Handle(context.Background(), events.TQReceived{TenderID: 1}); err != nil {
		t.Fatalf("Handle returned %v, want nil on directory failure", err)
	}
	if len(sender.calls) != 0 {
		t.Errorf("calls = %v, want none on directory failure", sender.calls)
	}
}
