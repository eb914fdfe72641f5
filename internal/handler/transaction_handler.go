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

type TransactionHandler struct {
	transactionService service.TransactionService
}

func NewTransactionHandler(transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	transactions := router.Group("/api/transactions")
	{
		transactions.GET("", middleware.RequirePermission("transactions.read"), h.ListTransactions)
		transactions.GET("/:id", middleware.RequirePermission("transactions.read"), h.GetTransaction)
		transactions.POST("", middleware.RequirePermission("transactions.write"), h.CreateTransaction)
	}
}

// CreateTransaction submits a new pending income/expense entry
// @Summary      Create transaction
// @Description  Creates a PENDING transaction with its normalized base amount persisted
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTransactionRequest  true  "Transaction payload"
// @Success      201      {object}  response.Response{data=service.TransactionResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req service.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	txn, err := h.transactionService.CreateTransaction(c.Request.Context(), userIDStr, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, txn))
}

// GetTransaction fetches one transaction by id
// @Summary      Get transaction
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=service.TransactionResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	txn, err := h.transactionService.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// ListTransactions returns paginated transactions with optional status filter
// @Summary      List transactions
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        status  query     string  false  "PENDING, APPROVED, or REJECTED"
// @Success      200     {object}  response.PaginatedResponse
// @Router       /api/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	params := pagination.Parse(c)

	txns, total, err := h.transactionService.ListTransactions(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, txns, params.Page, params.Limit, total))
}
