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

type FacilityHandler struct {
	facilityService service.FacilityService
}

func NewFacilityHandler(facilityService service.FacilityService) *FacilityHandler {
	return &FacilityHandler{facilityService: facilityService}
}

func (h *FacilityHandler) RegisterRoutes(router *gin.RouterGroup) {
	facilities := router.Group("/api/facilities")
	{
		facilities.GET("", middleware.RequireRole("admin", "manager", "staff"), h.ListFacilities)
		facilities.GET("/:id", middleware.RequireRole("admin", "manager", "staff"), h.GetFacility)
		facilities.POST("", middleware.RequireRole("admin"), h.CreateFacility)
	}
}

// CreateFacility registers a new facility
// @Summary      Create facility
// @Tags         facilities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateFacilityRequest  true  "Facility payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/facilities [post]
func (h *FacilityHandler) CreateFacility(c *gin.Context) {
	var req service.CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	facility, err := h.facilityService.CreateFacility(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, facility))
}

// GetFacility fetches one facility by id
// @Summary      Get facility
// @Tags         facilities
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Facility ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/facilities/{id} [get]
func (h *FacilityHandler) GetFacility(c *gin.Context) {
	facility, err := h.facilityService.GetFacility(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, facility))
}

// ListFacilities returns paginated facilities with optional type filter
// @Summary      List facilities
// @Tags         facilities
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Param        type   query     string  false  "HEADQUARTERS or BRANCH"
// @Success      200    {object}  response.PaginatedResponse
// @Router       /api/facilities [get]
func (h *FacilityHandler) ListFacilities(c *gin.Context) {
	params := pagination.Parse(c)

	facilities, total, err := h.facilityService.ListFacilities(c.Request.Context(), c.Query("type"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, facilities, params.Page, params.Limit, total))
}
