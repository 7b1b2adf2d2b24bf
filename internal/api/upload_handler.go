package api

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"ScriptStats/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const templateContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UploadHandler 期次表格上传与历史
type UploadHandler struct {
	uploadService *service.UploadService
	logger        *logrus.Logger
}

// NewUploadHandler 创建 UploadHandler
func NewUploadHandler(svc *service.UploadService, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{uploadService: svc, logger: logger}
}

// Upload multipart: file, period。受理后立即返回 task_id，解析在后台进行
// POST /api/excel/upload
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "请选择要上传的文件")
		return
	}
	period := strings.TrimSpace(c.PostForm("period"))
	if period == "" {
		fail(c, http.StatusBadRequest, "请填写数据期次")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "请求格式错误")
		return
	}
	defer f.Close()

	res, err := h.uploadService.Upload(c.Request.Context(), fh.Filename, period, c.GetHeader(userHeader), f)
	if err != nil {
		failErr(c, h.logger, "Upload", err)
		return
	}
	ok(c, res, "文件上传成功，正在处理")
}

// Status GET /api/excel/status?taskId=
func (h *UploadHandler) Status(c *gin.Context) {
	taskID := c.Query("taskId")
	if taskID == "" {
		fail(c, http.StatusBadRequest, "缺少 taskId 参数")
		return
	}
	task, err := h.uploadService.TaskStatus(c.Request.Context(), taskID)
	if err != nil {
		failErr(c, h.logger, "TaskStatus", err)
		return
	}
	ok(c, task, "")
}

// History GET /api/excel/history
func (h *UploadHandler) History(c *gin.Context) {
	uploads, err := h.uploadService.ListUploads(c.Request.Context())
	if err != nil {
		failErr(c, h.logger, "ListUploads", err)
		return
	}
	ok(c, uploads, "")
}

// Template 下载只有表头的上传模板
// GET /api/excel/template
func (h *UploadHandler) Template(c *gin.Context) {
	var buf bytes.Buffer
	ext, err := h.uploadService.WriteTemplate(&buf)
	if err != nil {
		failErr(c, h.logger, "UploadTemplate", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename*=UTF-8''`+url.PathEscape("数据上传模板"+ext))
	c.Data(http.StatusOK, templateContentType, buf.Bytes())
}

// DeleteHistory DELETE /api/excel/history/:id
func (h *UploadHandler) DeleteHistory(c *gin.Context) {
	if err := h.uploadService.DeleteUpload(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, h.logger, "DeleteUpload", err)
		return
	}
	ok(c, nil, "已删除")
}
