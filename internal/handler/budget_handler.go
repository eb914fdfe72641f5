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

type BudgetHandler struct {
	budgetService service.BudgetService
}

func NewBudgetHandler(budgetService service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

func (h *BudgetHandler) RegisterRoutes(router *gin.RouterGroup) {
	budgets := router.Group("/api/budgets")
	{
		budgets.GET("", middleware.RequirePermission("budgets.read"), h.ListBudgets)
		budgets.GET("/:id", middleware.RequirePermission("budgets.read"), h.GetBudget)
		budgets.POST("", middleware.RequirePermission("budgets.write"), h.CreateBudget)
	}
}

// CreateBudget submits a new draft budget
// @Summary      Create budget
// @Description  Creates a DRAFT budget; it enters the approval queue for activation
// @Tags         budgets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBudgetRequest  true  "Budget payload"
// @Success      201      {object}  response.Response{data=service.BudgetResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req service.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), userIDStr, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, budget))
}

// GetBudget fetches one budget by id
// @Summary      Get budget
// @Tags         budgets
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Budget ID"
// @Success      200  {object}  response.Response{data=service.BudgetResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budget, err := h.budgetService.GetBudget(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, budget))
}

// ListBudgets returns paginated budgets with optional status filter
// @Summary      List budgets
// @Tags         budgets
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        status  query     string  false  "DRAFT, ACTIVE, or CANCELLED"
// @Success      200     {object}  response.PaginatedResponse
// @Router       /api/budgets [get]
func (h *BudgetHandler) ListBudgets(c *gin.Context) {
	params := pagination.Parse(c)

	budgets, total, err := h.budgetService.ListBudgets(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, budgets, params.Page, params.Limit, total))
}
