package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册全部 /api 路由
func RegisterRoutes(r gin.IRouter, scripts *ScriptHandler, uploads *UploadHandler, stats *StatsHandler, admin *AdminHandler) {
	g := r.Group("/api")

	// 脚本库
	g.GET("/scripts", scripts.List)
	g.POST("/scripts", scripts.Create)
	g.GET("/scripts/check-name", scripts.CheckName)
	g.POST("/scripts/import/parse", scripts.ParseImport)
	g.POST("/scripts/import/save", scripts.SaveImport)
	g.DELETE("/scripts/batch-delete", scripts.BatchDelete)
	g.GET("/scripts/compare", scripts.Compare)
	g.GET("/scripts/:id", scripts.Get)
	g.PUT("/scripts/:id", scripts.Update)
	g.DELETE("/scripts/:id", scripts.Delete)
	g.GET("/scripts/:id/channel-stats", scripts.ChannelStats)

	// 期次数据上传
	g.POST("/excel/upload", uploads.Upload)
	g.GET("/excel/status", uploads.Status)
	g.GET("/excel/history", uploads.History)
	g.GET("/excel/template", uploads.Template)
	g.DELETE("/excel/history/:id", uploads.DeleteHistory)

	// 统计查询
	g.GET("/stats", stats.Overview)
	g.GET("/stats/channel", stats.Channel)
	g.GET("/stats/detailed", stats.Detailed)
	g.GET("/stats/by-content-type", stats.ByContentType)

	// 管理
	g.GET("/admin/system-config", admin.GetConfig)
	g.PUT("/admin/system-config", admin.PutConfig)
	g.POST("/admin/scan-content-types", admin.ScanContentTypes)
	g.POST("/admin/recalculate-stats", admin.Recalculate)
}
