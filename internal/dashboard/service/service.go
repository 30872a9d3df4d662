// Package service composes the dashboard queries: it resolves the viewer's
// visibility scope, the dashboard's excluded status categories, and the
// requested tab, then delegates to the repository.
package service

import (
	"context"
	"fmt"

	"tender_portal_backend/internal/dashboard/repository"
	"tender_portal_backend/internal/dashboard/scope"
	"tender_portal_backend/internal/workflow/domain"
	"tender_portal_backend/platform/apperr"
	"tender_portal_backend/platform/logger"
)

// Store is the repository surface the service needs.
type Store interface {
	ListRAPage(ctx context.Context, tab domain.RATab, q repository.Query) ([]repository.RARow, int, error)
	CountRAByTab(ctx context.Context, q repository.Query) (map[domain.RATab]int, error)
	ListTQPage(ctx context.Context, tab domain.TQTab, q repository.Query) ([]repository.TQRow, int, error)
	CountTQByTab(ctx context.Context, q repository.Query) (map[domain.TQTab]int, error)
}

type CategoryResolver interface {
	IDsForCategories(categories []string) []int64
}

type Service struct {
	store   Store
	catalog CategoryResolver
	cfg     *DashboardsConfig
	log     *logger.Logger
}

func New(store Store, catalog CategoryResolver, cfg *DashboardsConfig, log *logger.Logger) *Service {
	return &Service{store: store, catalog: catalog, cfg: cfg, log: log}
}

// Request is a dashboard page request before scope resolution.
type Request struct {
	Tab          string
	Page         int
	Limit        int
	SortBy       string
	SortOrder    string
	Search       string
	Viewer       *scope.Viewer
	TeamOverride *int64
}

// RAPage is one page of the reverse-auction dashboard.
type RAPage struct {
	Tab   domain.RATab
	Rows  []repository.RARow
	Total int
	Page  int
	Limit int
}

// TQPage is one page of the TQ-management dashboard.
type TQPage struct {
	Tab   domain.TQTab
	Rows  []repository.TQRow
	Total int
	Page  int
	Limit int
}

func (s *Service) buildQuery(req Request, cfg TabConfig) repository.Query {
	sortBy := req.SortBy
	sortOrder := req.SortOrder
	if sortBy == "" {
		sortBy = cfg.DefaultSort.Key
		sortOrder = cfg.DefaultSort.Order
	}

	return repository.Query{
		Page:      normalizePage(req.Page),
		Limit:     normalizeLimit(req.Limit),
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Search:    req.Search,
		Exclude:   s.catalog.IDsForCategories(cfg.ExcludeCategories),
		Scope:     scope.For(req.Viewer, req.TeamOverride),
	}
}

// ListReverseAuction returns one RA dashboard page for the viewer.
func (s *Service) ListReverseAuction(ctx context.Context, req Request) (*RAPage, error) {
	tab := domain.RATab(req.Tab)
	if tab == "" {
		tab = domain.RATabUnderEvaluation
	}
	switch tab {
	case domain.RATabUnderEvaluation, domain.RATabScheduled, domain.RATabCompleted:
	default:
		return nil, apperr.BadRequest(fmt.Sprintf("unknown tab %q", req.Tab))
	}

	q := s.buildQuery(req, s.cfg.ReverseAuction)
	rows, total, err := s.store.ListRAPage(ctx, tab, q)
	if err != nil {
		s.log.DatabaseError("dashboard.reverse_auction.list", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load reverse auction dashboard", err)
	}

	return &RAPage{Tab: tab, Rows: rows, Total: total, Page: normalizePage(req.Page), Limit: q.Limit}, nil
}

// ReverseAuctionCounts returns the per-tab totals for the RA dashboard.
func (s *Service) ReverseAuctionCounts(ctx context.Context, req Request) (map[domain.RATab]int, error) {
	q := s.buildQuery(req, s.cfg.ReverseAuction)
	counts, err := s.store.CountRAByTab(ctx, q)
	if err != nil {
		s.log.DatabaseError("dashboard.reverse_auction.counts", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to count reverse auction dashboard", err)
	}
	return counts, nil
}

// ListTQManagement returns one TQ dashboard page for the viewer.
func (s *Service) ListTQManagement(ctx context.Context, req Request) (*TQPage, error) {
	tab := domain.TQTab(req.Tab)
	if tab == "" {
		tab = domain.TQTabAwaited
	}
	switch tab {
	case domain.TQTabAwaited, domain.TQTabReceived, domain.TQTabReplied,
		domain.TQTabQualified, domain.TQTabDisqualified:
	default:
		return nil, apperr.BadRequest(fmt.Sprintf("unknown tab %q", req.Tab))
	}

	q := s.buildQuery(req, s.cfg.TQManagement)
	rows, total, err := s.store.ListTQPage(ctx, tab, q)
	if err != nil {
		s.log.DatabaseError("dashboard.tq_management.list", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load tq dashboard", err)
	}

	return &TQPage{Tab: tab, Rows: rows, Total: total, Page: normalizePage(req.Page), Limit: q.Limit}, nil
}

// TQManagementCounts returns the per-tab totals for the TQ dashboard.
func (s *Service) TQManagementCounts(ctx context.Context, req Request) (map[domain.TQTab]int, error) {
	q := s.buildQuery(req, s.cfg.TQManagement)
	counts, err := s.store.CountTQByTab(ctx, q)
	if err != nil {
		s.log.DatabaseError("dashboard.tq_management.counts", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to count tq dashboard", err)
	}
	return counts, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizeLimit(limit int) int {
	if limit < 1 || limit > 100 {
		return 20
	}
	return limit
}
