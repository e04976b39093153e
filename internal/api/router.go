package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storyboard-server/internal/config"
	"storyboard-server/internal/delivery/websocket"
	"storyboard-server/internal/middleware"
)

// NewRouter собирает gin-роутер: CORS для браузерного UI, zap-логирование,
// prometheus-метрики, статика изображений, REST API и websocket.
func NewRouter(cfg *config.Config, logger *zap.Logger, handler *Handler, ws *websocket.Manager, imageDir string) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ZapLogging(logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.HTTP.AllowedOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-ID")
	router.Use(cors.New(corsCfg))

	prom := ginprometheus.NewPrometheus("gin")
	prom.Use(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.Static("/images", imageDir)

	router.GET("/ws", func(c *gin.Context) {
		ws.HandleConnection(c.Writer, c.Request)
	})

	api := router.Group("/api/v1")
	{
		api.GET("/settings", handler.GetSettings)
		api.PUT("/settings", handler.SaveSettings)
		api.GET("/models", handler.ListModels)

		api.GET("/characters", handler.ListCharacters)
		api.POST("/characters", handler.SaveCharacter)
		api.DELETE("/characters/:id", handler.DeleteCharacter)

		api.GET("/frames", handler.ListFrames)
		api.POST("/frames", handler.SaveFrame)
		api.DELETE("/frames/:id", handler.DeleteFrame)
		api.PUT("/frames/order", handler.ReorderFrames)
		api.POST("/frames/:id/render", handler.RenderFrame)
		api.POST("/frames/render-batch", handler.RenderBatch)

		api.GET("/styles", handler.ListStyles)
		api.POST("/styles", handler.SaveStyle)
		api.DELETE("/styles/:id", handler.DeleteStyle)

		aiGroup := api.Group("/ai")
		{
			aiGroup.POST("/breakdown", handler.Breakdown)
			aiGroup.POST("/roles", handler.AnalyzeRoles)
			aiGroup.POST("/shots", handler.InferShots)
			aiGroup.POST("/frame/:id", handler.InferFrame)
			aiGroup.POST("/image", handler.GenerateImage)
			aiGroup.POST("/probe", handler.Probe)
		}
	}

	return router
}
