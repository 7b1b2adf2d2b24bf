package api

import (
	"net/http"
	"strings"

	"ScriptStats/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ScriptHandler 脚本库接口
type ScriptHandler struct {
	scriptService *service.ScriptService
	logger        *logrus.Logger
}

// NewScriptHandler 创建 ScriptHandler
func NewScriptHandler(svc *service.ScriptService, logger *logrus.Logger) *ScriptHandler {
	return &ScriptHandler{scriptService: svc, logger: logger}
}

// List 脚本列表（含统计）
// GET /api/scripts
func (h *ScriptHandler) List(c *gin.Context) {
	scripts, err := h.scriptService.List(c.Request.Context())
	if err != nil {
		failErr(c, h.logger, "ListScripts", err)
		return
	}
	ok(c, scripts, "")
}

// Get 脚本详情（含分渠道统计）
// GET /api/scripts/:id
func (h *ScriptHandler) Get(c *gin.Context) {
	detail, err := h.scriptService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, h.logger, "GetScript", err)
		return
	}
	ok(c, detail, "")
}

// ChannelStats GET /api/scripts/:id/channel-stats
func (h *ScriptHandler) ChannelStats(c *gin.Context) {
	stats, err := h.scriptService.ChannelStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, h.logger, "ScriptChannelStats", err)
		return
	}
	ok(c, stats, "")
}

// Compare GET /api/scripts/compare?ids=a,b,c
func (h *ScriptHandler) Compare(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("ids"))
	if raw == "" {
		fail(c, http.StatusBadRequest, "请提供脚本ID")
		return
	}
	ids := strings.Split(raw, ",")
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
	}
	details, err := h.scriptService.Compare(c.Request.Context(), ids)
	if err != nil {
		failErr(c, h.logger, "CompareScripts", err)
		return
	}
	ok(c, details, "")
}

// CheckName GET /api/scripts/check-name?name=
func (h *ScriptHandler) CheckName(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		fail(c, http.StatusBadRequest, "缺少 name 参数")
		return
	}
	available, err := h.scriptService.CheckName(c.Request.Context(), name)
	if err != nil {
		failErr(c, h.logger, "CheckName", err)
		return
	}
	ok(c, gin.H{"available": available}, "")
}

// Create POST /api/scripts
func (h *ScriptHandler) Create(c *gin.Context) {
	var req service.ScriptInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	sc, err := h.scriptService.Create(c.Request.Context(), req, c.GetHeader(userHeader))
	if err != nil {
		failErr(c, h.logger, "CreateScript", err)
		return
	}
	ok(c, sc, "脚本添加成功")
}

// Update PUT /api/scripts/:id
func (h *ScriptHandler) Update(c *gin.Context) {
	var req service.ScriptInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	sc, err := h.scriptService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		failErr(c, h.logger, "UpdateScript", err)
		return
	}
	ok(c, sc, "已保存")
}

// Delete DELETE /api/scripts/:id
func (h *ScriptHandler) Delete(c *gin.Context) {
	if err := h.scriptService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, h.logger, "DeleteScript", err)
		return
	}
	ok(c, nil, "已删除")
}

// BatchDelete DELETE /api/scripts/batch-delete  body: {"ids": [...]}
func (h *ScriptHandler) BatchDelete(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		fail(c, http.StatusBadRequest, "未提供脚本 ID")
		return
	}
	n, err := h.scriptService.BatchDelete(c.Request.Context(), req.IDs)
	if err != nil {
		failErr(c, h.logger, "BatchDeleteScripts", err)
		return
	}
	ok(c, gin.H{"deleted": n}, "")
}

// ParseImport POST /api/scripts/import/parse  body: {"text": "..."}
func (h *ScriptHandler) ParseImport(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		fail(c, http.StatusBadRequest, "脚本文本不能为空")
		return
	}
	ok(c, h.scriptService.ParseImport(req.Text), "")
}

// SaveImport POST /api/scripts/import/save  body: {"scripts": [...]}
func (h *ScriptHandler) SaveImport(c *gin.Context) {
	var req struct {
		Scripts []*service.ParsedScript `json:"scripts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Scripts) == 0 {
		fail(c, http.StatusBadRequest, "没有可导入的脚本")
		return
	}
	summary, err := h.scriptService.SaveImport(c.Request.Context(), req.Scripts, c.GetHeader(userHeader))
	if err != nil {
		failErr(c, h.logger, "SaveImport", err)
		return
	}
	ok(c, summary, "")
}
