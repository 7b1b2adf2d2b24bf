package api

import (
	"context"
	"net/http"
	"time"

	"ScriptStats/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RecomputeRunner 同步执行一次全量重算
type RecomputeRunner interface {
	RunNow(ctx context.Context) (*service.RecomputeResult, error)
}

// AdminHandler 匹配配置与手动重算
type AdminHandler struct {
	configService  *service.ConfigService
	insightService *service.InsightService
	runner         RecomputeRunner
	logger         *logrus.Logger
}

func NewAdminHandler(configSvc *service.ConfigService, insightSvc *service.InsightService,
	runner RecomputeRunner, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		configService:  configSvc,
		insightService: insightSvc,
		runner:         runner,
		logger:         logger,
	}
}

// GetConfig GET /api/admin/system-config
func (h *AdminHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configService.GetAll(c.Request.Context())
	if err != nil {
		failErr(c, h.logger, "GetSystemConfig", err)
		return
	}
	ok(c, cfg, "")
}

// PutConfig PUT /api/admin/system-config  body: {"key": "blockWords", "value": [...]}
func (h *AdminHandler) PutConfig(c *gin.Context) {
	var req struct {
		Key   string   `json:"key"`
		Value []string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" || req.Value == nil {
		fail(c, http.StatusBadRequest, "参数错误")
		return
	}
	values, err := h.configService.Put(c.Request.Context(), req.Key, req.Value)
	if err != nil {
		failErr(c, h.logger, "PutSystemConfig", err)
		return
	}
	ok(c, gin.H{"key": req.Key, "value": values}, "已保存")
}

// ScanContentTypes POST /api/admin/scan-content-types
func (h *AdminHandler) ScanContentTypes(c *gin.Context) {
	added, err := h.configService.ScanContentTypes(c.Request.Context())
	if err != nil {
		failErr(c, h.logger, "ScanContentTypes", err)
		return
	}
	ok(c, gin.H{"added": len(added), "types": added}, "")
}

// Recalculate 同步重算并返回重算前后的数量
// POST /api/admin/recalculate-stats
func (h *AdminHandler) Recalculate(c *gin.Context) {
	ctx := c.Request.Context()
	totalScripts, _, _, err := h.insightService.Counts(ctx)
	if err != nil {
		failErr(c, h.logger, "Recalculate", err)
		return
	}
	res, err := h.runner.RunNow(ctx)
	if err != nil {
		failErr(c, h.logger, "Recalculate", err)
		return
	}
	_, processedScripts, processedChannels, err := h.insightService.Counts(ctx)
	if err != nil {
		failErr(c, h.logger, "Recalculate", err)
		return
	}
	ok(c, gin.H{
		"scripts_processed":    processedScripts,
		"channels_processed":   processedChannels,
		"total_scripts":        totalScripts,
		"channel_period_stats": res.ChannelPeriodStats,
		"duration_ms":          res.Duration.Milliseconds(),
		"execution_time":       time.Now().Format(time.RFC3339),
	}, "")
}
