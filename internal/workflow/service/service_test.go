package service

import (
	"context"
	"testing"
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

// captureBus records published events synchronously.
type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func (b *captureBus) names() []string {
	out := make([]string, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

// fakeStore records the last params it saw and plays back canned results.
type fakeStore struct {
	err error

	statusChange *repository.StatusChange
	ra           *repository.ReverseAuction
	tq           *repository.TenderQuery
	advanced     int

	lastUpdateStatus *repository.UpdateTenderStatusParams
	lastDisqualified *repository.InsertDisqualifiedRAParams
	lastScheduled    *repository.InsertScheduledRAParams
	lastUploadResult *repository.UploadRAResultParams
	lastTQReceived   *repository.InsertTQReceivedParams
	lastTQReplied    *repository.UpdateTQRepliedParams
	lastTQMissed     *repository.UpdateTQMissedParams
	lastTQInsertQual *repository.InsertTQQualificationParams
	lastTQUpdateQual *repository.UpdateTQQualificationParams
	lastAdvanceFrom  string
	lastAdvanceTo    string
	lastAdvanceProj  string
}

func (f *fakeStore) GetTender(context.Context, int64) (*repository.Tender, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &repository.Tender{ID: 1, TenderNo: "T-100"}, nil
}

func (f *fakeStore) GetReverseAuction(context.Context, int64) (*repository.ReverseAuction, error) {
	return f.ra, f.err
}

func (f *fakeStore) ListTenderQueries(context.Context, int64) ([]repository.TenderQuery, error) {
	return nil, f.err
}

func (f *fakeStore) ListTQItems(context.Context, int64) ([]repository.TQItem, error) {
	return nil, f.err
}

func (f *fakeStore) ListStatusHistory(context.Context, int64) ([]repository.StatusHistoryEntry, error) {
	return nil, f.err
}

func (f *fakeStore) UpdateTenderStatus(_ context.Context, p repository.UpdateTenderStatusParams) (*repository.StatusChange, error) {
	f.lastUpdateStatus = &p
	if f.err != nil {
		return nil, f.err
	}
	return f.statusChange, nil
}

func (f *fakeStore) InsertDisqualifiedRA(_ context.Context, p repository.InsertDisqualifiedRAParams) (*repository.ReverseAuction, error) {
	f.lastDisqualified = &p
	if f.err != nil {
		return nil, f.err
	}
	return f.ra, nil
}

func (f *fakeStore) InsertScheduledRA(_ context.Context, p repository.InsertScheduledRAParams) (*repository.ReverseAuction, *repository.StatusChange, error) {
	f.lastScheduled = &p
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.ra, f.statusChange, nil
}

func (f *fakeStore) UploadRAResult(_ context.Context, p repository.UploadRAResultParams) (*repository.ReverseAuction, error) {
	f.lastUploadResult = &p
	if f.err != nil {
		return nil, f.err
	}
	return f.ra, nil
}

func (f *fakeStore) AdvanceScheduledToStarted(_ context.Context, from, to, proj string, _ time.Time) (int, error) {
	f.lastAdvanceFrom, f.lastAdvanceTo, f.lastAdvanceProj = from, to, proj
	return f.advanced, f.err
}

func (f *fakeStore) AdvanceStartedToEnded(_ context.Context, from, to, proj string, _ time.Time) (int, error) {
	f.lastAdvanceFrom, f.lastAdvanceTo, f.lastAdvanceProj = from, to, proj
	return f.advanced, f.err
}

func (f *fakeStore) InsertTQReceived(_ context.Context, p repository.InsertTQReceivedParams) (*repository.TenderQuery, *repository.StatusChange, error) {
	f.lastTQReceived = &p
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.tq, f.statusChange, nil
}

func (f *fakeStore) UpdateTQReplied(_ context.Context, p repository.UpdateTQRepliedParams) (*repository.TenderQuery, *repository.StatusChange, error) {
	f.lastTQReplied = &p
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.tq, f.statusChange, nil
}

func (f *fakeStore) UpdateTQMissed(_ context.Context, p repository.UpdateTQMissedParams) (*repository.TenderQuery, *repository.StatusChange, error) {
	f.lastTQMissed = &p
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.tq, f.statusChange, nil
}

func (f *fakeStore) InsertTQQualification(_ context.Context, p repository.InsertTQQualificationParams) (*repository.TenderQuery, *repository.StatusChange, error) {
	f.lastTQInsertQual = &p
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.tq, f.statusChange, nil
}

func (f *fakeStore) UpdateTQQualification(_ context.Context, p repository.UpdateTQQualificationParams) (*repository.TenderQuery, *repository.StatusChange, error) {
	f.lastTQUpdateQual = &p
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.tq, f.statusChange, nil
}

type staticLister struct{ statuses []statuscatalog.Status }

func (l *staticLister) ListAll(context.Context) ([]statuscatalog.Status, error) {
	return l.statuses, nil
}

func testCatalog(t *testing.T) *statuscatalog.Catalog {
	t.Helper()
	category := func(s string) *string { return &s }
	c, err := statuscatalog.Load(context.Background(), &staticLister{statuses: []statuscatalog.Status{
		{ID: 15, Name: "Did Not Bid", Category: category("dnb")},
		{ID: 19, Name: statuscatalog.NameTQReceived},
		{ID: 20, Name: statuscatalog.NameTQReplied},
		{ID: 21, Name: statuscatalog.NameRAScheduled},
		{ID: 23, Name: statuscatalog.NameH1Elimination, Category: category("lost")},
		{ID: 24, Name: "Lost", Category: category("lost")},
		{ID: 37, Name: statuscatalog.NameQualifiedNoTQReceived},
		{ID: 38, Name: statuscatalog.NameDisqualifiedNoTQReceived, Category: category("lost")},
		{ID: 39, Name: statuscatalog.NameDisqualifiedTQMissed, Category: category("lost")},
		{ID: 40, Name: statuscatalog.NameTQRepliedQualified},
	}})
	if err != nil {
		t.Fatalf("testCatalog: %v", err)
	}
	return c
}

type advanceCall struct {
	kind  string
	runAt time.Time
}

type fakeAdvance struct {
	calls []advanceCall
}

func (f *fakeAdvance) ScheduleRAAdvanceStart(_ context.Context, _ scheduler.RAAdvancePayload, runAt time.Time) error {
	f.calls = append(f.calls, advanceCall{kind: "start", runAt: runAt})
	return nil
}

func (f *fakeAdvance) ScheduleRAAdvanceEnd(_ context.Context, _ scheduler.RAAdvancePayload, runAt time.Time) error {
	f.calls = append(f.calls, advanceCall{kind: "end", runAt: runAt})
	return nil
}

func newTestEngine(t *testing.T, store *fakeStore) (*Engine, *captureBus, *fakeAdvance) {
	t.Helper()
	bus := &captureBus{}
	advance := &fakeAdvance{}
	return New(store, testCatalog(t), bus, advance, logger.New("test")), bus, advance
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := apperr.GetKind(err); got != kind {
		t.Fatalf("error kind = %v, want %v (err: %v)", got, kind, err)
	}
}

func TestUpdateStatus(t *testing.T) {
	prev := int64(19)
	ctx := context.Background()

	t.Run("unknown status code rejected", func(t *testing.T) {
		engine, bus, _ := newTestEngine(t, &fakeStore{})
		err := engine.UpdateStatus(ctx, 1, transport.UpdateStatusRequest{Status: 9999}, 7)
		wantKind(t, err, apperr.KindValidation)
		if len(bus.published) != 0 {
			t.Errorf("no event expected, got %v", bus.names())
		}
	})

	t.Run("same status maps to invalid transition", func(t *testing.T) {
		engine, _, _ := newTestEngine(t, &fakeStore{err: repository.ErrSameStatus})
		err := engine.UpdateStatus(ctx, 1, transport.UpdateStatusRequest{Status: 21}, 7)
		wantKind(t, err, apperr.KindInvalidTransition)
	})

	t.Run("missing tender maps to not found", func(t *testing.T) {
		engine, _, _ := newTestEngine(t, &fakeStore{err: repository.ErrNotFound})
		err := engine.UpdateStatus(ctx, 1, transport.UpdateStatusRequest{Status: 21}, 7)
		wantKind(t, err, apperr.KindNotFound)
	})

	t.Run("success publishes exactly one status event", func(t *testing.T) {
		store := &fakeStore{statusChange: &repository.StatusChange{
			TenderID: 1, TenderNo: "T-100", PrevStatus: &prev, NewStatus: 21,
		}}
		engine, bus, _ := newTestEngine(t, store)

		if err := engine.UpdateStatus(ctx, 1, transport.UpdateStatusRequest{Status: 21}, 7); err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if store.lastUpdateStatus.NewStatus != 21 || store.lastUpdateStatus.ChangedBy != 7 {
			t.Errorf("params = %+v", store.lastUpdateStatus)
		}
		if got := bus.names(); len(got) != 1 || got[0] != "tender.status_changed" {
			t.Errorf("events = %v, want [tender.status_changed]", got)
		}
	})
}

func TestScheduleReverseAuction(t *testing.T) {
	ctx := context.Background()
	reason := "did not meet turnover criteria"
	start := time.Now().Add(time.Hour)
	end := start.Add(2 * time.Hour)
	count := 4
	names := "Acme, Globex"

	t.Run("disqualified without reason rejected", func(t *testing.T) {
		engine, _, _ := newTestEngine(t, &fakeStore{})
		_, err := engine.ScheduleReverseAuction(ctx, 1, transport.ScheduleRARequest{TechnicallyQualified: "No"}, 7)
		wantKind(t, err, apperr.KindValidation)
	})

	t.Run("disqualified branch leaves canonical status alone", func(t *testing.T) {
		store := &fakeStore{ra: &repository.ReverseAuction{ID: 3, TenderID: 1, Status: string(domain.RADisqualified)}}
		engine, bus, advance := newTestEngine(t, store)

		ra, err := engine.ScheduleReverseAuction(ctx, 1, transport.ScheduleRARequest{
			TechnicallyQualified:   "No",
			DisqualificationReason: &reason,
		}, 7)
		if err != nil {
			t.Fatalf("ScheduleReverseAuction: %v", err)
		}
		if ra.Status != string(domain.RADisqualified) {
			t.Errorf("status = %q", ra.Status)
		}
		if store.lastScheduled != nil {
			t.Error("scheduled insert must not run on the disqualified branch")
		}
		if store.lastDisqualified.ProjectionStatus != "Disqualified" {
			t.Errorf("projection = %q", store.lastDisqualified.ProjectionStatus)
		}
		if len(bus.published) != 0 {
			t.Errorf("disqualified branch must not notify, got %v", bus.names())
		}
		if len(advance.calls) != 0 {
			t.Error("disqualified branch must not enqueue advance tasks")
		}
	})

	t.Run("qualified branch forces status and notifies", func(t *testing.T) {
		prev := int64(19)
		store := &fakeStore{
			ra: &repository.ReverseAuction{
				ID: 3, TenderID: 1, Status: string(domain.RAScheduled),
				RAStartTime: &start, RAEndTime: &end,
			},
			statusChange: &repository.StatusChange{TenderID: 1, TenderNo: "T-100", PrevStatus: &prev, NewStatus: 21},
		}
		engine, bus, advance := newTestEngine(t, store)

		_, err := engine.ScheduleReverseAuction(ctx, 1, transport.ScheduleRARequest{
			TechnicallyQualified:  "Yes",
			QualifiedPartiesCount: &count,
			QualifiedPartiesNames: &names,
			RAStartTime:           &start,
			RAEndTime:             &end,
		}, 7)
		if err != nil {
			t.Fatalf("ScheduleReverseAuction: %v", err)
		}

		if store.lastScheduled.TenderStatus != 21 {
			t.Errorf("forced status = %d, want 21", store.lastScheduled.TenderStatus)
		}
		if store.lastScheduled.HistoryComment != "RA scheduled" {
			t.Errorf("history comment = %q", store.lastScheduled.HistoryComment)
		}
		if got := bus.names(); len(got) != 2 || got[0] != "ra.scheduled" || got[1] != "tender.status_changed" {
			t.Errorf("events = %v", got)
		}
		if len(advance.calls) != 2 || advance.calls[0].kind != "start" || advance.calls[1].kind != "end" {
			t.Errorf("advance calls = %+v", advance.calls)
		}
		if !advance.calls[0].runAt.Equal(start) || !advance.calls[1].runAt.Equal(end) {
			t.Errorf("advance times = %+v", advance.calls)
		}
	})
}

func TestUploadReverseAuctionResult(t *testing.T) {
	ctx := context.Background()
	tenderNo := "T-100"

	t.Run("unknown result rejected", func(t *testing.T) {
		engine, _, _ := newTestEngine(t, &fakeStore{})
		_, err := engine.UploadReverseAuctionResult(ctx, 3, transport.UploadRAResultRequest{Result: "Draw"}, 7)
		wantKind(t, err, apperr.KindValidation)
	})

	t.Run("h1 elimination forces canonical status", func(t *testing.T) {
		store := &fakeStore{ra: &repository.ReverseAuction{ID: 3, TenderID: 1, TenderNo: &tenderNo}}
		engine, bus, _ := newTestEngine(t, store)

		_, err := engine.UploadReverseAuctionResult(ctx, 3, transport.UploadRAResultRequest{Result: "H1 Elimination"}, 7)
		if err != nil {
			t.Fatalf("UploadReverseAuctionResult: %v", err)
		}
		if store.lastUploadResult.ForceTenderStatus == nil || *store.lastUploadResult.ForceTenderStatus != 23 {
			t.Errorf("ForceTenderStatus = %v, want 23", store.lastUploadResult.ForceTenderStatus)
		}
		if store.lastUploadResult.Status != string(domain.RALostH1) {
			t.Errorf("ra status = %q, want %q", store.lastUploadResult.Status, domain.RALostH1)
		}
		if got := bus.names(); len(got) != 1 || got[0] != "ra.result" {
			t.Errorf("events = %v", got)
		}
	})

	t.Run("won touches only the sub-record", func(t *testing.T) {
		store := &fakeStore{ra: &repository.ReverseAuction{ID: 3, TenderID: 1, TenderNo: &tenderNo}}
		engine, bus, _ := newTestEngine(t, store)

		_, err := engine.UploadReverseAuctionResult(ctx, 3, transport.UploadRAResultRequest{Result: "Won"}, 7)
		if err != nil {
			t.Fatalf("UploadReverseAuctionResult: %v", err)
		}
		if store.lastUploadResult.ForceTenderStatus != nil {
			t.Error("won must not force the canonical status")
		}
		if store.lastUploadResult.ProjectionStatus != string(domain.RAWon) {
			t.Errorf("projection = %q", store.lastUploadResult.ProjectionStatus)
		}
		if got := bus.names(); len(got) != 1 || got[0] != "ra.result" {
			t.Errorf("events = %v", got)
		}
	})
}

func TestSweeps(t *testing.T) {
	ctx := context.Background()

	t.Run("started sweep maps statuses and projection", func(t *testing.T) {
		store := &fakeStore{advanced: 2}
		engine, _, _ := newTestEngine(t, store)

		n, err := engine.AdvanceScheduledToStarted(ctx)
		if err != nil {
			t.Fatalf("AdvanceScheduledToStarted: %v", err)
		}
		if n != 2 {
			t.Errorf("advanced = %d, want 2", n)
		}
		if store.lastAdvanceFrom != "RA Scheduled" || store.lastAdvanceTo != "RA Started" {
			t.Errorf("transition = %q -> %q", store.lastAdvanceFrom, store.lastAdvanceTo)
		}
		if store.lastAdvanceProj != "RA Scheduled" {
			t.Errorf("projection = %q, want RA Scheduled", store.lastAdvanceProj)
		}
	})

	t.Run("ended sweep maps statuses and projection", func(t *testing.T) {
		store := &fakeStore{advanced: 1}
		engine, _, _ := newTestEngine(t, store)

		if _, err := engine.AdvanceStartedToEnded(ctx); err != nil {
			t.Fatalf("AdvanceStartedToEnded: %v", err)
		}
		if store.lastAdvanceFrom != "RA Started" || store.lastAdvanceTo != "RA Ended" {
			t.Errorf("transition = %q -> %q", store.lastAdvanceFrom, store.lastAdvanceTo)
		}
		if store.lastAdvanceProj != "RA Scheduled" {
			t.Errorf("projection = %q, want RA Scheduled", store.lastAdvanceProj)
		}
	})
}

func TestRecordTQReceived(t *testing.T) {
	prev := int64(21)
	store := &fakeStore{
		tq:           &repository.TenderQuery{ID: 11, TenderID: 1, Status: string(domain.TQReceived)},
		statusChange: &repository.StatusChange{TenderID: 1, TenderNo: "T-100", PrevStatus: &prev, NewStatus: 19},
	}
	engine, bus, _ := newTestEngine(t, store)

	_, err := engine.RecordTQReceived(context.Background(), 1, transport.RecordTQReceivedRequest{
		Items: []transport.TQItemRequest{
			{SrNo: 1, TQType: "Technical", QueryDescription: "Clarify warranty terms"},
		},
	}, 7)
	if err != nil {
		t.Fatalf("RecordTQReceived: %v", err)
	}

	if store.lastTQReceived.TenderStatus != 19 {
		t.Errorf("forced status = %d, want 19", store.lastTQReceived.TenderStatus)
	}
	if len(store.lastTQReceived.Items) != 1 {
		t.Errorf("items = %d, want 1", len(store.lastTQReceived.Items))
	}
	if got := bus.names(); len(got) != 2 || got[0] != "tq.received" || got[1] != "tender.status_changed" {
		t.Errorf("events = %v", got)
	}
}

func TestRecordTQMissedRequiresReason(t *testing.T) {
	engine, _, _ := newTestEngine(t, &fakeStore{})
	_, err := engine.RecordTQMissed(context.Background(), 11, transport.RecordTQMissedRequest{}, 7)
	wantKind(t, err, apperr.KindValidation)
}

func TestQualificationBranches(t *testing.T) {
	ctx := context.Background()
	prev := int64(19)

	newStore := func() *fakeStore {
		return &fakeStore{
			tq:           &repository.TenderQuery{ID: 11, TenderID: 1},
			statusChange: &repository.StatusChange{TenderID: 1, TenderNo: "T-100", PrevStatus: &prev, NewStatus: 40},
		}
	}

	t.Run("mark no tq qualified", func(t *testing.T) {
		store := newStore()
		engine, bus, _ := newTestEngine(t, store)

		if _, err := engine.MarkNoTQ(ctx, 1, 7, true); err != nil {
			t.Fatalf("MarkNoTQ: %v", err)
		}
		if store.lastTQInsertQual.Status != string(domain.TQQualifiedNoReceived) {
			t.Errorf("tq status = %q", store.lastTQInsertQual.Status)
		}
		if store.lastTQInsertQual.TenderStatus != 37 {
			t.Errorf("tender status = %d, want 37", store.lastTQInsertQual.TenderStatus)
		}
		if got := bus.names(); len(got) != 2 || got[0] != "tq.qualified" {
			t.Errorf("events = %v", got)
		}
	})

	t.Run("mark no tq disqualified is silent", func(t *testing.T) {
		store := newStore()
		engine, bus, _ := newTestEngine(t, store)

		if _, err := engine.MarkNoTQ(ctx, 1, 7, false); err != nil {
			t.Fatalf("MarkNoTQ: %v", err)
		}
		if store.lastTQInsertQual.Status != string(domain.TQDisqualifiedNoReceived) {
			t.Errorf("tq status = %q", store.lastTQInsertQual.Status)
		}
		if store.lastTQInsertQual.TenderStatus != 38 {
			t.Errorf("tender status = %d, want 38", store.lastTQInsertQual.TenderStatus)
		}
		for _, name := range bus.names() {
			if name == "tq.qualified" {
				t.Error("disqualified branch must not publish tq.qualified")
			}
		}
	})

	t.Run("qualify tq qualified", func(t *testing.T) {
		store := newStore()
		engine, bus, _ := newTestEngine(t, store)

		if _, err := engine.QualifyTQ(ctx, 11, 7, true); err != nil {
			t.Fatalf("QualifyTQ: %v", err)
		}
		if store.lastTQUpdateQual.Status != string(domain.TQRepliedQualified) {
			t.Errorf("tq status = %q", store.lastTQUpdateQual.Status)
		}
		if store.lastTQUpdateQual.TenderStatus != 40 {
			t.Errorf("tender status = %d, want 40", store.lastTQUpdateQual.TenderStatus)
		}
		if got := bus.names(); len(got) != 2 || got[0] != "tq.qualified" {
			t.Errorf("events = %v", got)
		}
	})

	t.Run("qualify tq disqualified is silent", func(t *testing.T) {
		store := newStore()
		engine, bus, _ := newTestEngine(t, store)

		if _, err := engine.QualifyTQ(ctx, 11, 7, false); err != nil {
			t.Fatalf("QualifyTQ: %v", err)
		}
		if store.lastTQUpdateQual.Status != string(domain.TQDisqualifiedMissed) {
			t.Errorf("tq status = %q", store.lastTQUpdateQual.Status)
		}
		if store.lastTQUpdateQual.TenderStatus != 39 {
			t.Errorf("tender status = %d, want 39", store.lastTQUpdateQual.TenderStatus)
		}
		for _, name := range bus.names() {
			if name == "tq.qualified" {
				t.Error("disqualified branch must not publish tq.qualified")
			}
		}
	})
}

func TestRepositoryErrorsPropagate(t *testing.T) {
	// A failed transaction must surface as an error with no events published.
	store := &fakeStore{err: repository.ErrNotFound}
	engine, bus, _ := newTestEngine(t, store)

	if _, err := engine.RecordTQReplied(context.Background(), 11, transport.RecordTQRepliedRequest{}, 7); err == nil {
		t.Fatal("expected error")
	}
	if len(bus.published) != 0 {
		t.Errorf("no events expected on failure, got %v", bus.names())
	}
}
