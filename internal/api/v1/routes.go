package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/oreforge/oreforge-server/internal/api/handlers"
)

func registerPlayerRoutes(router *gin.RouterGroup, playerHandler *handlers.PlayerHandler) {
	players := router.Group("/players")
	{
		players.POST("", playerHandler.Register)
		players.GET("", playerHandler.ListPlayers)
		players.GET("/:wallet", playerHandler.GetPlayer)
		players.POST("/:wallet/check", playerHandler.CheckNow)
		players.POST("/:wallet/verify", playerHandler.AdminVerify)
	}
}

func RegisterRoutes(
	api *gin.RouterGroup,
	playerHandler *handlers.PlayerHandler,
	eventHandler *handlers.EventHandler,
	notificationHandler *handlers.NotificationHandler,
	healthHandler *handlers.HealthHandler,
) {
	registerPlayerRoutes(api, playerHandler)
	api.GET("/events", eventHandler.ListEvents)
	api.GET("/ws/:wallet", notificationHandler.Subscribe)
	api.GET("/health", healthHandler.Health)
}
