package handler

import (
	"errors"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	{
		approvals.GET("", middleware.RequirePermission("approvals.read"), h.ListApprovals)
		approvals.GET("/stats", middleware.RequirePermission("approvals.read"), h.Stats)
		approvals.POST("/:id/approve", middleware.RequirePermission("approvals.decide"), h.Approve)
		approvals.POST("/:id/reject", middleware.RequirePermission("approvals.decide"), h.Reject)
		approvals.POST("/bulk-approve", middleware.RequirePermission("approvals.decide"), h.BulkApprove)
		approvals.POST("/bulk-reject", middleware.RequirePermission("approvals.decide"), h.BulkReject)
	}
}

type decisionRequest struct {
	Comment string `json:"comment"`
	Reason  string `json:"reason"`
}

type bulkDecisionRequest struct {
	IDs     []string `json:"ids" binding:"required,min=1"`
	Comment string   `json:"comment"`
	Reason  string   `json:"reason"`
}

// decisionStatus maps service errors onto HTTP status codes.
func decisionStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ListApprovals returns the unified pending queue across all resource kinds
// @Summary      List pending approvals
// @Description  Merges pending requests from every resource kind, newest first
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        module      query  string  false  "FINANCE or QURBAN"
// @Param        priority    query  string  false  "LOW, MEDIUM, or HIGH"
// @Param        facility_id query  string  false  "Facility UUID"
// @Param        start_date  query  string  false  "RFC3339 lower bound"
// @Param        end_date    query  string  false  "RFC3339 upper bound"
// @Success      200  {object}  response.Response
// @Router       /approvals [get]
func (h *ApprovalHandler) ListApprovals(c *gin.Context) {
	filter := service.ApprovalFilter{
		Module:   c.Query("module"),
		Priority: c.Query("priority"),
	}

	if raw := c.Query("facility_id"); raw != "" {
		facilityID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid facility_id"))
			return
		}
		filter.FacilityID = &facilityID
	}
	if raw := c.Query("start_date"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "start_date must be RFC3339"))
			return
		}
		filter.StartDate = &start
	}
	if raw := c.Query("end_date"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "end_date must be RFC3339"))
			return
		}
		filter.EndDate = &end
	}

	approvals, err := h.approvalService.ListApprovals(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"approvals": approvals,
		"total":     len(approvals),
	}))
}

// Stats returns aggregate approval counts
// @Summary      Approval statistics
// @Description  Per-status counts across all kinds; urgent counts pending high-priority requests
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        facility_id query  string  false  "Facility UUID"
// @Success      200  {object}  response.Response{data=service.ApprovalStats}
// @Router       /approvals/stats [get]
func (h *ApprovalHandler) Stats(c *gin.Context) {
	var facilityID *uuid.UUID
	if raw := c.Query("facility_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid facility_id"))
			return
		}
		facilityID = &parsed
	}

	stats, err := h.approvalService.Stats(c.Request.Context(), facilityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// Approve approves one pending request
// @Summary      Approve a request
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string           true   "Resource ID"
// @Param        payload  body  decisionRequest  false  "Optional comment"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id"))
		return
	}

	var req decisionRequest
	_ = c.ShouldBindJSON(&req) // comment is optional, empty body allowed

	if err := h.approvalService.Approve(c.Request.Context(), id, actorID(c), req.Comment); err != nil {
		status := decisionStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Request approved"))
}

// Reject rejects one pending request; a reason is mandatory
// @Summary      Reject a request
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string           true  "Resource ID"
// @Param        payload  body  decisionRequest  true  "Rejection reason"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id"))
		return
	}

	var req decisionRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.approvalService.Reject(c.Request.Context(), id, actorID(c), req.Reason); err != nil {
		status := decisionStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Request rejected"))
}

// BulkApprove approves many requests, isolating failures per id
// @Summary      Bulk approve
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  bulkDecisionRequest  true  "IDs and optional comment"
// @Success      200  {object}  response.Response{data=[]service.BulkResult}
// @Router       /approvals/bulk-approve [post]
func (h *ApprovalHandler) BulkApprove(c *gin.Context) {
	ids, req, ok := h.bindBulk(c)
	if !ok {
		return
	}

	results := h.approvalService.BulkApprove(c.Request.Context(), ids, actorID(c), req.Comment)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}

// BulkReject rejects many requests, isolating failures per id
// @Summary      Bulk reject
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  bulkDecisionRequest  true  "IDs and rejection reason"
// @Success      200  {object}  response.Response{data=[]service.BulkResult}
// @Router       /approvals/bulk-reject [post]
func (h *ApprovalHandler) BulkReject(c *gin.Context) {
	ids, req, ok := h.bindBulk(c)
	if !ok {
		return
	}

	results := h.approvalService.BulkReject(c.Request.Context(), ids, actorID(c), req.Reason)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}

func (h *ApprovalHandler) bindBulk(c *gin.Context) ([]uuid.UUID, bulkDecisionRequest, bool) {
	var req bulkDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return nil, req, false
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id '"+raw+"'"))
			return nil, req, false
		}
		ids = append(ids, id)
	}
	return ids, req, true
}

// actorID extracts the authenticated user's id set by the auth middleware.
func actorID(c *gin.Context) *uuid.UUID {
	raw, exists := c.Get("userID")
	if !exists {
		return nil
	}
	str, ok := raw.(string)
	if !ok {
		return nil
	}
	parsed, err := uuid.Parse(str)
	if err != nil {
		return nil
	}
	return &parsed
}
