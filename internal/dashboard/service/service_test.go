package service

import (
	"context"
	"errors"
	"testing"

	"tender_portal_backend/internal/dashboard/repository"
	"tender_portal_backend/internal/dashboard/scope"
	"tender_portal_backend/internal/workflow/domain"
	"tender_portal_backend/platform/apperr"
	"tender_portal_backend/platform/logger"
)

type fakeStore struct {
	lastRATab domain.RATab
	lastTQTab domain.TQTab
	lastQuery repository.Query
	raRows    []repository.RARow
	tqRows    []repository.TQRow
	total     int
	err       error
}

func (f *fakeStore) ListRAPage(_ context.Context, tab domain.RATab, q repository.Query) ([]repository.RARow, int, error) {
	f.lastRATab, f.lastQuery = tab, q
	return f.raRows, f.total, f.err
}

func (f *fakeStore) CountRAByTab(_ context.Context, q repository.Query) (map[domain.RATab]int, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return map[domain.RATab]int{domain.RATabScheduled: f.total}, nil
}

func (f *fakeStore) ListTQPage(_ context.Context, tab domain.TQTab, q repository.Query) ([]repository.TQRow, int, error) {
	f.lastTQTab, f.lastQuery = tab, q
	return f.tqRows, f.total, f.err
}

func (f *fakeStore) CountTQByTab(_ context.Context, q repository.Query) (map[domain.TQTab]int, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return map[domain.TQTab]int{domain.TQTabAwaited: f.total}, nil
}

type fakeCatalog struct {
	byCategory map[string][]int64
}

func (f *fakeCatalog) IDsForCategories(categories []string) []int64 {
	var out []int64
	for _, c := range categories {
		out = append(out, f.byCategory[c]...)
	}
	return out
}

func testConfig() *DashboardsConfig {
	return &DashboardsConfig{
		ReverseAuction: TabConfig{
			ExcludeCategories: []string{"dnb"},
			DefaultSort:       SortDefault{Key: "submissionDate", Order: "desc"},
		},
		TQManagement: TabConfig{
			ExcludeCategories: []string{"dnb", "lost"},
			DefaultSort:       SortDefault{Key: "submissionDate", Order: "desc"},
		},
	}
}

func newTestService(store *fakeStore) *Service {
	catalog := &fakeCatalog{byCategory: map[string][]int64{
		"dnb":  {15},
		"lost": {22, 23, 24, 38, 39},
	}}
	return New(store, catalog, testConfig(), logger.New("test"))
}

func adminViewer() *scope.Viewer {
	return &scope.Viewer{UserID: 1, Role: scope.RoleAdmin}
}

func TestListReverseAuctionDefaults(t *testing.T) {
	store := &fakeStore{total: 42}
	svc := newTestService(store)

	page, err := svc.ListReverseAuction(context.Background(), Request{Viewer: adminViewer()})
	if err != nil {
		t.Fatalf("ListReverseAuction: %v", err)
	}

	if page.Tab != domain.RATabUnderEvaluation {
		t.Errorf("default tab = %q, want under-evaluation", page.Tab)
	}
	if page.Total != 42 || page.Page != 1 || page.Limit != 20 {
		t.Errorf("page = %+v, want total 42, page 1, limit 20", page)
	}
	if store.lastQuery.SortBy != "submissionDate" || store.lastQuery.SortOrder != "desc" {
		t.Errorf("default sort = %q %q, want submissionDate desc", store.lastQuery.SortBy, store.lastQuery.SortOrder)
	}
	if len(store.lastQuery.Exclude) != 1 || store.lastQuery.Exclude[0] != 15 {
		t.Errorf("exclude = %v, want [15]", store.lastQuery.Exclude)
	}
	if store.lastQuery.Scope.SQL != "TRUE" {
		t.Errorf("admin scope = %q, want TRUE", store.lastQuery.Scope.SQL)
	}
}

func TestListReverseAuctionUnknownTab(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.ListReverseAuction(context.Background(), Request{Tab: "archived", Viewer: adminViewer()})
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("err = %v, want bad request", err)
	}
}

func TestListTQManagementScopeAndExclusions(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	team := int64(4)
	viewer := &scope.Viewer{UserID: 9, Role: scope.RoleTeamLeader, TeamID: &team}
	_, err := svc.ListTQManagement(context.Background(), Request{Tab: "replied", SortBy: "deadline", SortOrder: "asc", Viewer: viewer})
	if err != nil {
		t.Fatalf("ListTQManagement: %v", err)
	}

	if store.lastTQTab != domain.TQTabReplied {
		t.Errorf("tab = %q, want replied", store.lastTQTab)
	}
	if store.lastQuery.SortBy != "deadline" || store.lastQuery.SortOrder != "asc" {
		t.Errorf("explicit sort not forwarded: %q %q", store.lastQuery.SortBy, store.lastQuery.SortOrder)
	}
	if len(store.lastQuery.Exclude) != 6 {
		t.Errorf("exclude = %v, want dnb and lost ids", store.lastQuery.Exclude)
	}
	if store.lastQuery.Scope.SQL != "t.team = ?" {
		t.Errorf("team leader scope = %q, want t.team = ?", store.lastQuery.Scope.SQL)
	}
}

func TestListTQManagementUnknownTab(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.ListTQManagement(context.Background(), Request{Tab: "everything", Viewer: adminViewer()})
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("err = %v, want bad request", err)
	}
}

func TestCountsWrapStoreErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}
	svc := newTestService(store)

	if _, err := svc.ReverseAuctionCounts(context.Background(), Request{Viewer: adminViewer()}); apperr.GetKind(err) != apperr.KindInternal {
		t.Errorf("ReverseAuctionCounts err = %v, want internal", err)
	}
	if _, err := svc.TQManagementCounts(context.Background(), Request{Viewer: adminViewer()}); apperr.GetKind(err) != apperr.KindInternal {
		t.Errorf("TQManagementCounts err = %v, want internal", err)
	}
}

func TestNilViewerScopesToNothing(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	if _, err := svc.ListReverseAuction(context.Background(), Request{Tab: "scheduled"}); err != nil {
		t.Fatalf("ListReverseAuction: %v", err)
	}
	if store.lastQuery.Scope.SQL != "FALSE" {
		t.Errorf("nil viewer scope = %q, want FALSE", store.lastQuery.Scope.SQL)
	}
}
