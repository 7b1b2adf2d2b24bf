package excel

import (
	"fmt"
	"strings"
)

// Column 表格中的一列
type Column struct {
	Index int    // 0 起
	Name  string // 表头名，用于校验
}

// Columns 表格布局：A 列到 AV 列共 48 列，顺序与表头必须完全一致。
// 获客成本、平均展示消耗等比率列只校验不读取，统计时从加算列重算。
var Columns = []Column{
	{0, "素材名"}, {1, "投放时间"}, {2, "广告渠道"}, {3, "实际流水"},
	{4, "总成本"}, {5, "实际成本"}, {6, "展示数"}, {7, "获客成本"},
	{8, "点击率"}, {9, "3S完播率"}, {10, "完播率"}, {11, "转化率"},
	{12, "平均展示消耗"}, {13, "点击数"}, {14, "平均点击消耗"}, {15, "获客数"},
	{16, "低价课人数"}, {17, "落地页转化率"}, {18, "低价课流水"}, {19, "公众号关注人数"},
	{20, "公众号关注率"}, {21, "激活人数"}, {22, "激活率"}, {23, "激活成本"},
	{24, "添加人数"}, {25, "添加率"}, {26, "添加成本"}, {27, "进群人数"},
	{28, "进群率"}, {29, "第一天到播率"}, {30, "第二天到播率"}, {31, "第三天到播率"},
	{32, "第四天到播率"}, {33, "第五天到播率"}, {34, "高沉浸用户数"}, {35, "高沉浸率"},
	{36, "第三天高沉浸到播率"}, {37, "第三天高沉浸转化率"}, {38, "高价课人数"}, {39, "高价课支付率"},
	{40, "第三天高价课人数"}, {41, "第四天高价课人数"}, {42, "第五天高价课人数"}, {43, "高价课流水"},
	{44, "退款人数"}, {45, "退款率"}, {46, "获客占比"}, {47, "ROI"},
}

// maxReportedHeaderErrors 表头错误最多展示条数
const maxReportedHeaderErrors = 5

// HeaderNames 按列顺序的表头，可直接用作模板首行
func HeaderNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnLetter 0 → A，25 → Z，26 → AA
func ColumnLetter(index int) string {
	var b []byte
	for n := index; n >= 0; n = n/26 - 1 {
		b = append([]byte{byte('A' + n%26)}, b...)
	}
	return string(b)
}

// ValidateHeaders 返回全部不匹配项的描述；列数不足时只返回一条
func ValidateHeaders(headers []string) []string {
	if len(headers) < len(Columns) {
		return []string{fmt.Sprintf("列数不足：期望 %d 列，实际 %d 列", len(Columns), len(headers))}
	}
	var problems []string
	for _, c := range Columns {
		actual := strings.TrimSpace(headers[c.Index])
		if actual != c.Name {
			problems = append(problems, fmt.Sprintf("第%d列（%s列）应为「%s」，实际为「%s」",
				c.Index+1, ColumnLetter(c.Index), c.Name, actual))
		}
	}
	return problems
}

// HeaderError 表头校验失败
type HeaderError struct {
	Problems []string
}

func (e *HeaderError) Error() string {
	shown := e.Problems
	if len(shown) > maxReportedHeaderErrors {
		shown = shown[:maxReportedHeaderErrors]
	}
	msg := "列名校验失败：" + strings.Join(shown, "；")
	if len(e.Problems) > maxReportedHeaderErrors {
		msg += fmt.Sprintf("…（共%d处错误）", len(e.Problems))
	}
	return msg
}
