package http

import (
	"github.com/gin-gonic/gin"

	"vod-packager/pkg/config"
	"vod-packager/pkg/middleware"
)

// RegisterRoutes 注册打包服务的全部路由
func RegisterRoutes(router *gin.Engine, ctl *ConvertController, cfg *config.Config) {
	api := router.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWT))

	api.POST("/videos/:resource_id/convert", ctl.Submit)
	api.GET("/videos/:resource_id/status", ctl.Status)
	api.GET("/videos/:resource_id/history", ctl.History)
	api.GET("/jobs/active", ctl.ListActive)
}
