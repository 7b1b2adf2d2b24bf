package api

import (
	"errors"
	"net/http"

	"ScriptStats/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// userHeader 调用方身份，鉴权由前置网关负责
const userHeader = "X-User"

func ok(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "message": message})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// failErr 业务哨兵错误按类别映射状态码，其余记日志并返回 500
func failErr(c *gin.Context, logger *logrus.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrScriptNotFound),
		errors.Is(err, service.ErrUploadNotFound),
		errors.Is(err, service.ErrTaskNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrScriptNameTaken):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrScriptNameEmpty),
		errors.Is(err, service.ErrLineageCycle),
		errors.Is(err, service.ErrInvalidConfigKey),
		errors.Is(err, service.ErrInvalidUpload):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		logger.WithError(err).Error(op + " failed")
		fail(c, http.StatusInternalServerError, "服务器内部错误")
	}
}
