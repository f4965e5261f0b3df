package provider

import (
	"errors"
	"net/http"
	"strconv"

	"speakbook/internal/api"
	"speakbook/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// @Summary      List providers
// @Description  Approved providers visible to clients
// @Tags         providers
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} provider.Provider
// @Failure      500 {object} api.ErrorResponse
// @Router       /providers [get]
func (h *Handler) ListProviders(c *gin.Context) {
	providers, err := h.service.ListApproved(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch providers"})
		return
	}

	c.JSON(http.StatusOK, providers)
}

// @Summary      List open slots of a provider
// @Tags         providers,slots
// @Produce      json
// @Security     BearerAuth
// @Param        providerID path int true "Provider ID"
// @Success      200 {array} slot.Slot
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /providers/{providerID}/slots [get]
func (h *Handler) ListProviderSlots(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("providerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid provider ID"})
		return
	}

	slots, err := h.service.OpenSlots(c.Request.Context(), providerID)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Provider not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch slots"})
		return
	}

	c.JSON(http.StatusOK, slots)
}

// @Summary      List providers (admin)
// @Tags         admin,providers
// @Produce      json
// @Security     BearerAuth
// @Param        approved query bool false "Filter by approval"
// @Success      200 {array} provider.Provider
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/providers [get]
func (h *Handler) AdminListProviders(c *gin.Context) {
	var approved *bool
	if raw, ok := c.GetQuery("approved"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "approved must be true or false"})
			return
		}
		approved = &v
	}

	providers, err := h.service.ListForAdmin(c.Request.Context(), approved)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch providers"})
		return
	}

	c.JSON(http.StatusOK, providers)
}

// @Summary      Approve provider
// @Description  Admin-only: approved providers receive slots on the next generator run
// @Tags         admin,providers
// @Produce      json
// @Security     BearerAuth
// @Param        providerID path int true "Provider ID"
// @Success      200 {object} provider.Provider
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/providers/{providerID}/approve [post]
func (h *Handler) ApproveProvider(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("providerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid provider ID"})
		return
	}

	p, err := h.service.Approve(c.Request.Context(), providerID)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Provider not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to approve provider"})
		return
	}

	logger.Info("provider approved", "provider_id", p.ID)
	c.JSON(http.StatusOK, p)
}
