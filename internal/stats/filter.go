package stats

import (
	"strings"

	"ScriptStats/internal/model"
)

// IsDataRow 过滤「合计」「total」「Total」汇总行，其他大小写写法视为普通素材名
func IsDataRow(materialName string) bool {
	switch strings.TrimSpace(materialName) {
	case "", "合计", "total", "Total":
		return false
	default:
		return true
	}
}

// IsValidChannel 过滤空值、占位符与汇总渠道
func IsValidChannel(channel *string) bool {
	if channel == nil {
		return false
	}
	switch strings.TrimSpace(*channel) {
	case "", "-", "—", "合计", "total":
		return false
	default:
		return true
	}
}

// GroupByChannel 按渠道分组，渠道顺序为首次出现的顺序，无效渠道的行被丢弃
func GroupByChannel(rows []*model.SpendRow) ([]string, map[string][]*model.SpendRow) {
	var order []string
	groups := make(map[string][]*model.SpendRow)
	for _, r := range rows {
		if !IsValidChannel(r.Channel) {
			continue
		}
		ch := *r.Channel
		if _, ok := groups[ch]; !ok {
			order = append(order, ch)
		}
		groups[ch] = append(groups[ch], r)
	}
	return order, groups
}
