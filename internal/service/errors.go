package service

import "errors"

var (
	ErrScriptNotFound   = errors.New("脚本不存在")
	ErrScriptNameTaken  = errors.New("脚本名已存在")
	ErrScriptNameEmpty  = errors.New("脚本名不能为空")
	ErrLineageCycle     = errors.New("父脚本不能是自身或其后代")
	ErrUploadNotFound   = errors.New("上传记录不存在")
	ErrTaskNotFound     = errors.New("任务不存在")
	ErrInvalidConfigKey = errors.New("不支持的配置项")
	ErrInvalidUpload    = errors.New("上传参数错误")
)
