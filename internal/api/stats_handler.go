package api

import (
	"ScriptStats/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatsHandler 统计查询
type StatsHandler struct {
	insightService *service.InsightService
	logger         *logrus.Logger
}

func NewStatsHandler(svc *service.InsightService, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{insightService: svc, logger: logger}
}

// Overview 数据总览；带 uploadId 时只统计该期次
// GET /api/stats?uploadId=
func (h *StatsHandler) Overview(c *gin.Context) {
	ov, err := h.insightService.Overview(c.Request.Context(), c.Query("uploadId"))
	if err != nil {
		failErr(c, h.logger, "Overview", err)
		return
	}
	ok(c, ov, "")
}

// Channel GET /api/stats/channel
func (h *StatsHandler) Channel(c *gin.Context) {
	ov, err := h.insightService.ChannelOverview(c.Request.Context())
	if err != nil {
		failErr(c, h.logger, "ChannelOverview", err)
		return
	}
	ok(c, ov, "")
}

// Detailed 汇总明细；带 uploadId 时只统计该期次
// GET /api/stats/detailed?uploadId=
func (h *StatsHandler) Detailed(c *gin.Context) {
	d, err := h.insightService.Detailed(c.Request.Context(), c.Query("uploadId"))
	if err != nil {
		failErr(c, h.logger, "Detailed", err)
		return
	}
	ok(c, d, "")
}

// ByContentType GET /api/stats/by-content-type
func (h *StatsHandler) ByContentType(c *gin.Context) {
	list, err := h.insightService.ByContentType(c.Request.Context())
	if err != nil {
		failErr(c, h.logger, "ByContentType", err)
		return
	}
	ok(c, list, "")
}
