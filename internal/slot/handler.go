package slot

import (
	"net/http"

	"speakbook/internal/api"
	"speakbook/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	generator *Generator
}

func NewHandler(generator *Generator) *Handler {
	return &Handler{generator: generator}
}

// @Summary      Generate slots
// @Description  Admin-only: ensures the rolling slot grid exists for every approved provider
// @Tags         admin,slots
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} slot.GenerateResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/slots/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	res, err := h.generator.Run(c.Request.Context())
	if err != nil {
		logger.WithError(err).Error("slot generation failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to generate slots"})
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{Providers: res.Providers, Created: res.Created})
}
