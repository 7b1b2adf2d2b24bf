package interfaces

import (
	"io"

	"ScriptStats/internal/model"
)

// RowProducer 把上传文件转成数据行，每种文件格式一个实现
type RowProducer interface {
	Extension() string // 处理的文件扩展名，如 ".xlsx"
	// Open 读取文件并校验表头，返回的错误信息可直接展示给上传人
	Open(r io.Reader) (RowSheet, error)
}

// RowSheet 已通过表头校验的一张表
type RowSheet interface {
	// Total 非空数据行数（不含表头）
	Total() int
	// Rows 解析全部数据行，素材名为空的行被跳过；RowIndex 从 1 开始
	Rows() []*model.SpendRow
}
