package matching

import (
	"sort"
	"strings"
	"unicode/utf8"

	"ScriptStats/internal/model"
)

const (
	// sliceOffset 素材名前 6 个字符为不参与区分的元信息
	sliceOffset  = 6
	sliceMinRune = 8
)

// Matcher 绑定一份配置快照，供一次重算内反复调用
type Matcher struct {
	blockWords   []string
	contentTypes []string // 按字符数降序，保证最长后缀优先
}

// NewMatcher 基于配置快照创建匹配器，后续修改 cfg 不影响已创建的 Matcher
func NewMatcher(cfg model.MatchConfig) *Matcher {
	types := make([]string, 0, len(cfg.ContentTypes))
	for _, t := range cfg.ContentTypes {
		if t != "" {
			types = append(types, t)
		}
	}
	sort.SliceStable(types, func(i, j int) bool {
		return utf8.RuneCountInString(types[i]) > utf8.RuneCountInString(types[j])
	})
	return &Matcher{
		blockWords:   append([]string(nil), cfg.BlockWords...),
		contentTypes: types,
	}
}

// Matches 判断素材名是否对应脚本名
func Matches(materialName, scriptName string, cfg model.MatchConfig) bool {
	return NewMatcher(cfg).Match(materialName, scriptName)
}

// Match 先尝试结构切片精确匹配，失败再回退到带数字边界保护的包含匹配
func (m *Matcher) Match(materialName, scriptName string) bool {
	if materialName == "" || scriptName == "" {
		return false
	}
	return m.MatchCleaned(materialName, m.Clean(materialName), scriptName)
}

// Clean 用快照中的屏蔽词清洗素材名
func (m *Matcher) Clean(materialName string) string {
	return Clean(materialName, m.blockWords)
}

// MatchCleaned 与 Match 相同，但复用调用方预先清洗好的素材名。
// 重算时每行只清洗一次，再与全部脚本名比对。
func (m *Matcher) MatchCleaned(materialName, cleaned, scriptName string) bool {
	if materialName == "" || scriptName == "" {
		return false
	}
	if m.MatchSlice(cleaned, scriptName) {
		return true
	}
	haystack := cleaned
	if haystack == "" {
		haystack = materialName
	}
	return containsWithBoundary(haystack, scriptName)
}

// MatchSlice 对已清洗的素材名做结构切片匹配：取第 7 个字符起的部分，
// 去掉最长的内容类型后缀后与脚本名完全相等才算命中
func (m *Matcher) MatchSlice(cleaned, scriptName string) bool {
	runes := []rune(cleaned)
	if len(runes) < sliceMinRune {
		return false
	}
	slice := string(runes[sliceOffset:])
	for _, t := range m.contentTypes {
		if strings.HasSuffix(slice, t) {
			slice = strings.TrimSuffix(slice, t)
			break
		}
	}
	slice = strings.TrimSpace(slice)
	return slice != "" && slice == scriptName
}

// containsWithBoundary 只看第一次出现的位置，紧跟数字则不算（「脚本3」不匹配「脚本30」）
func containsWithBoundary(haystack, needle string) bool {
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return false
	}
	after := idx + len(needle)
	if after < len(haystack) {
		if c := haystack[after]; c >= '0' && c <= '9' {
			return false
		}
	}
	return true
}
