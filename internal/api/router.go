package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oreforge/oreforge-server/internal/api/handlers"
	"github.com/oreforge/oreforge-server/internal/api/middleware"
	v1 "github.com/oreforge/oreforge-server/internal/api/v1"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type Router struct {
	engine   *gin.Engine
	endpoint string
}

func NewRouter(
	playerHandler *handlers.PlayerHandler,
	eventHandler *handlers.EventHandler,
	notificationHandler *handlers.NotificationHandler,
	healthHandler *handlers.HealthHandler,
	endpoint string,
) *Router {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Logging())

	r := &Router{
		engine:   engine,
		endpoint: endpoint,
	}

	api := engine.Group(endpoint)
	v1.RegisterRoutes(api, playerHandler, eventHandler, notificationHandler, healthHandler)

	return r
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}
