package handler

import (
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	transferService service.TransferService
}

func NewTransferHandler(transferService service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	transfers := router.Group("/api/transfers")
	{
		transfers.GET("", middleware.RequirePermission("transfers.read"), h.ListTransfers)
		transfers.GET("/:id", middleware.RequirePermission("transfers.read"), h.GetTransfer)
		transfers.POST("", middleware.RequirePermission("transfers.write"), h.CreateTransfer)
	}
}

// CreateTransfer submits a new pending inter-facility transfer
// @Summary      Create budget transfer
// @Description  Creates a PENDING transfer; completion goes through the approval queue
// @Tags         transfers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTransferRequest  true  "Transfer payload"
// @Success      201      {object}  response.Response{data=service.TransferResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var req service.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	transfer, err := h.transferService.CreateTransfer(c.Request.Context(), userIDStr, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, transfer))
}

// GetTransfer fetches one transfer by id
// @Summary      Get budget transfer
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transfer ID"
// @Success      200  {object}  response.Response{data=service.TransferResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	transfer, err := h.transferService.GetTransfer(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// ListTransfers returns paginated transfers with optional status filter
// @Summary      List budget transfers
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        status  query     string  false  "PENDING, COMPLETED, or REJECTED"
// @Success      200     {object}  response.PaginatedResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	params := pagination.Parse(c)

	transfers, total, err := h.transferService.ListTransfers(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, transfers, params.Page, params.Limit, total))
}
