package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oreforge/oreforge-server/internal/core/models"
	"github.com/oreforge/oreforge-server/internal/core/ports"
)

type EventHandler struct {
	eventRepo  ports.CreditEventRepository
	playerRepo ports.PlayerRepository
}

func NewEventHandler(eventRepo ports.CreditEventRepository, playerRepo ports.PlayerRepository) *EventHandler {
	return &EventHandler{
		eventRepo:  eventRepo,
		playerRepo: playerRepo,
	}
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	filter := ports.CreditEventFilter{
		SourceName: c.Query("source"),
		Status:     models.CreditEventStatus(c.Query("status")),
		Limit:      parseIntQuery(c, "limit", 100),
		Offset:     parseIntQuery(c, "offset", 0),
	}

	if wallet := c.Query("wallet"); wallet != "" {
		player, err := h.playerRepo.GetByWallet(c.Request.Context(), wallet)
		if errors.Is(err, ports.ErrPlayerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		filter.PlayerID = &player.ID
	}

	events, err := h.eventRepo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}
