package excel

import (
	"fmt"
	"io"

	"ScriptStats/internal/interfaces"

	"github.com/xuri/excelize/v2"
)

const (
	templateSheet    = "数据模板"
	templateColWidth = 16
)

var _ interfaces.TemplateWriter = (*Producer)(nil)

// WriteTemplate 输出只有表头的 .xlsx 模板
func (p *Producer) WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			p.logger.WithError(err).Warn("关闭 excel 模板失败")
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), templateSheet); err != nil {
		return fmt.Errorf("设置工作表名失败: %w", err)
	}
	header := interfaces.ToRow(HeaderNames())
	if err := f.SetSheetRow(templateSheet, "A1", &header); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}
	last := ColumnLetter(len(Columns) - 1)
	if err := f.SetColWidth(templateSheet, "A", last, templateColWidth); err != nil {
		return fmt.Errorf("设置列宽失败: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("写出模板失败: %w", err)
	}
	return nil
}
