package handler

import (
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaignService service.CampaignService
}

func NewCampaignHandler(campaignService service.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

func (h *CampaignHandler) RegisterRoutes(router *gin.RouterGroup) {
	campaigns := router.Group("/api/campaigns")
	{
		campaigns.GET("/:id", middleware.RequirePermission("campaigns.read"), h.GetCampaign)
		campaigns.POST("", middleware.RequirePermission("campaigns.write"), h.CreateCampaign)
	}
}

// CreateCampaign submits a new campaign for approval
// @Summary      Create campaign
// @Description  Creates a campaign in PENDING_APPROVAL; activation goes through the approval queue
// @Tags         campaigns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCampaignRequest  true  "Campaign payload"
// @Success      201      {object}  response.Response{data=service.CampaignResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req service.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	campaign, err := h.campaignService.CreateCampaign(c.Request.Context(), userIDStr, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, campaign))
}

// GetCampaign fetches one campaign by id
// @Summary      Get campaign
// @Tags         campaigns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Campaign ID"
// @Success      200  {object}  response.Response{data=service.CampaignResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.campaignService.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, campaign))
}
