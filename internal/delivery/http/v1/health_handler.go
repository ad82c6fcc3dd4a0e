package v1

import (
	"net/http"

	"portfolio-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthUC domain.HealthUsecase
}

func NewHealthHandler(r gin.IRouter, healthUC domain.HealthUsecase) {
	handler := &HealthHandler{healthUC: healthUC}
	r.GET("/api/health", handler.Check)
}

// Check godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  domain.HealthStatus
// @Router       /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, h.healthUC.Check(c.Request.Context()))
}
