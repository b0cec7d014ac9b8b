package server

import (
	"time"

	httpHandler "github.com/akihito104/yttt-sub001/interfaces/http"
	"github.com/akihito104/yttt-sub001/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries what the router needs besides the handlers.
type RouterConfig struct {
	SecretKey   string
	CORSOrigins []string
}

func InitiateRouter(
	cfg RouterConfig,
	healthHandler httpHandler.IHealthHandler,
	timelineHandler httpHandler.ITimelineHandler,
	syncHandler httpHandler.ISyncHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler.Healthz)

	api := router.Group("api")
	api.GET("/timeline", timelineHandler.Timeline)
	api.GET("/channels", syncHandler.Channels)
	api.GET("/channels/:id/sections", syncHandler.ChannelSections)
	api.GET("/lists/:list/initialize", syncHandler.Initialize)

	sync := api.Group("/sync")
	sync.Use(middleware.Auth(cfg.SecretKey))
	{
		sync.POST("/subscriptions", syncHandler.SyncSubscriptions)
		sync.POST("/followed-streams", syncHandler.SyncFollowedStreams)
		sync.POST("/followings", syncHandler.SyncFollowings)
		sync.POST("/playlists/:id", syncHandler.SyncPlaylist)
		sync.POST("/cleanup", syncHandler.Cleanup)
	}

	return router
}
