package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tender_portal_backend/internal/dashboard/scope"
	"tender_portal_backend/internal/dashboard/service"
	"tender_portal_backend/internal/dashboard/transport"
	"tender_portal_backend/platform/httpkit"
	"tender_portal_backend/platform/validator"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	dashboards := rg.Group("/dashboards")
	dashboards.GET("/reverse-auction", h.ListReverseAuction)
	dashboards.GET("/reverse-auction/counts", h.ReverseAuctionCounts)
	dashboards.GET("/tq-management", h.ListTQManagement)
	dashboards.GET("/tq-management/counts", h.TQManagementCounts)
}

func (h *Handler) bindRequest(c *gin.Context) (service.Request, bool) {
	var req transport.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return service.Request{}, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return service.Request{}, false
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return service.Request{}, false
	}
	viewer := &scope.Viewer{
		UserID: identity.UserID(),
		Role:   identity.Role(),
		TeamID: identity.TeamID(),
	}

	return service.Request{
		Tab:          req.Tab,
		Page:         req.Page,
		Limit:        req.Limit,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
		Search:       req.Search,
		Viewer:       viewer,
		TeamOverride: req.TeamID,
	}, true
}

func (h *Handler) ListReverseAuction(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	page, err := h.svc.ListReverseAuction(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToRAPageResponse(page))
}

func (h *Handler) ReverseAuctionCounts(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	counts, err := h.svc.ReverseAuctionCounts(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToRACountsResponse(counts))
}

func (h *Handler) ListTQManagement(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	page, err := h.svc.ListTQManagement(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToTQPageResponse(page))
}

func (h *Handler) TQManagementCounts(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	counts, err := h.svc.TQManagementCounts(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToTQCountsResponse(counts))
}
