package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oreforge/oreforge-server/internal/core/services"
)

type HealthHandler struct {
	poller   *services.PollerService
	notifier *services.NotifierService
}

func NewHealthHandler(poller *services.PollerService, notifier *services.NotifierService) *HealthHandler {
	return &HealthHandler{
		poller:   poller,
		notifier: notifier,
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"poller":   h.poller.Stats(),
		"notifier": h.notifier.Stats(),
	})
}
