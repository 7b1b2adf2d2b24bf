package interfaces

import "io"

// TemplateWriter 能输出空白上传模板（仅表头）的生产者
type TemplateWriter interface {
	WriteTemplate(w io.Writer) error
}

// ToRow 任意切片转为表格中的一行
func ToRow[T any](values []T) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
