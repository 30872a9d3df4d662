package handler

import (
	"net/http"
	"strconv"

	"tender_portal_backend/internal/workflow/service"
	"tender_portal_backend/internal/workflow/transport"
	"tender_portal_backend/platform/httpkit"
	"tender_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the tender workflow engine.
type Handler struct {
	engine *service.Engine
	val    *validator.Validator
}

// New creates a new workflow handler.
func New(engine *service.Engine, val *validator.Validator) *Handler {
	return &Handler{engine: engine, val: val}
}

// RegisterRoutes registers the workflow routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/tenders/:id/status", h.UpdateStatus)
	rg.GET("/tenders/:id/status-history", h.ListStatusHistory)

	rg.POST("/tenders/:id/reverse-auction", h.ScheduleReverseAuction)
	rg.GET("/reverse-auctions/:id", h.GetReverseAuction)
	rg.POST("/reverse-auctions/:id/result", h.UploadResult)

	rg.POST("/tenders/:id/tqs", h.RecordTQReceived)
	rg.GET("/tenders/:id/tqs", h.ListTenderQueries)
	rg.POST("/tenders/:id/tqs/none", h.MarkNoTQ)
	rg.GET("/tqs/:id/items", h.ListTQItems)
	rg.POST("/tqs/:id/reply", h.RecordTQReplied)
	rg.POST("/tqs/:id/missed", h.RecordTQMissed)
	rg.POST("/tqs/:id/qualify", h.QualifyTQ)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return 0, false
	}
	return id, true
}

// UpdateStatus handles PATCH /api/v1/tenders/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	tenderID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.engine.UpdateStatus(c.Request.Context(), tenderID, req, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"updated": true})
}

// ListStatusHistory handles GET /api/v1/tenders/:id/status-history
func (h *Handler) ListStatusHistory(c *gin.Context) {
	tenderID, ok := pathID(c)
	if !ok {
		return
	}

	entries, err := h.engine.ListStatusHistory(c.Request.Context(), tenderID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToStatusHistoryResponses(entries))
}

// ScheduleReverseAuction handles POST /api/v1/tenders/:id/reverse-auction
func (h *Handler) ScheduleReverseAuction(c *gin.Context) {
	tenderID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.ScheduleRARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	ra, err := h.engine.ScheduleReverseAuction(c.Request.Context(), tenderID, req, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToReverseAuctionResponse(ra))
}

// GetReverseAuction handles GET /api/v1/reverse-auctions/:id
func (h *Handler) GetReverseAuction(c *gin.Context) {
	raID, ok := pathID(c)
	if !ok {
		return
	}

	ra, err := h.engine.GetReverseAuction(c.Request.Context(), raID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToReverseAuctionResponse(ra))
}

// UploadResult handles POST /api/v1/reverse-auctions/:id/result
func (h *Handler) UploadResult(c *gin.Context) {
	raID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.UploadRAResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	ra, err := h.engine.UploadReverseAuctionResult(c.Request.Context(), raID, req, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToReverseAuctionResponse(ra))
}

// RecordTQReceived handles POST /api/v1/tenders/:id/tqs
func (h *Handler) RecordTQReceived(c *gin.Context) {
	tenderID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.RecordTQReceivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	tq, err := h.engine.RecordTQReceived(c.Request.Context(), tenderID, req, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToTenderQueryResponse(tq))
}

// ListTenderQueries handles GET /api/v1/tenders/:id/tqs
func (h *Handler) ListTenderQueries(c *gin.Context) {
	tenderID, ok := pathID(c)
	if !ok {
		return
	}

	queries, err := h.engine.GetTenderQueries(c.Request.Context(), tenderID)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.TenderQueryResponse, 0, len(queries))
	for i := range queries {
		out = append(out, transport.ToTenderQueryResponse(&queries[i]))
	}
	httpkit.OK(c, out)
}

// ListTQItems handles GET /api/v1/tqs/:id/items
func (h *Handler) ListTQItems(c *gin.Context) {
	tqID, ok := pathID(c)
	if !ok {
		return
	}

	items, err := h.engine.GetTQItems(c.Request.Context(), tqID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTQItemResponses(items))
}

// RecordTQReplied handles POST /api/v1/tqs/:id/reply
func (h *Handler) RecordTQReplied(c *gin.Context) {
	tqID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.RecordTQRepliedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	tq, err := h.engine.RecordTQReplied(c.Request.Context(), tqID, req, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTenderQueryResponse(tq))
}

// RecordTQMissed handles POST /api/v1/tqs/:id/missed
func (h *Handler) RecordTQMissed(c *gin.Context) {
	tqID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.RecordTQMissedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	tq, err := h.engine.RecordTQMissed(c.Request.Context(), tqID, req, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTenderQueryResponse(tq))
}

// MarkNoTQ handles POST /api/v1/tenders/:id/tqs/none
func (h *Handler) MarkNoTQ(c *gin.Context) {
	tenderID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.QualifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	tq, err := h.engine.MarkNoTQ(c.Request.Context(), tenderID, identity.UserID(), *req.Qualified)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToTenderQueryResponse(tq))
}

// QualifyTQ handles POST /api/v1/tqs/:id/qualify
func (h *Handler) QualifyTQ(c *gin.Context) {
	tqID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.QualifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	tq, err := h.engine.QualifyTQ(c.Request.Context(), tqID, identity.UserID(), *req.Qualified)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTenderQueryResponse(tq))
}
