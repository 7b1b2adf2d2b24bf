package matching

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	agencyPrefix     = "代理-"
	autoRepairPrefix = "一键修复_"
)

var (
	mediaExtRe     = regexp.MustCompile(`(?i)\.(mp4|mov|avi|mkv)$`)
	initialsTagRe  = regexp.MustCompile(`-[A-Z]{2,5}$`)
	dateStampRe    = regexp.MustCompile(`^[0-9]{5,6}`)
	revisionMarkRe = regexp.MustCompile(`改[0-9一二三四五六七八九十]+|[0-9一二三四五六七八九十]+改`)
)

// Clean 将素材名清洗为可比对的形式。步骤顺序固定，每一步都只删除字符，
// 所以结果不会比输入长；无法处理时退化为去掉首尾空白的原串。
func Clean(materialName string, blockWords []string) string {
	s := strings.TrimSpace(materialName)
	s = mediaExtRe.ReplaceAllString(s, "")
	s = strings.TrimPrefix(s, agencyPrefix)
	s = strings.TrimPrefix(s, autoRepairPrefix)
	s = initialsTagRe.ReplaceAllString(s, "")
	s = dateStampRe.ReplaceAllString(s, "")
	for _, w := range blockWords {
		if w == "" {
			continue
		}
		s = strings.ReplaceAll(s, w, "")
	}
	s = revisionMarkRe.ReplaceAllString(s, "")
	s = trimBeforeHan(s)
	return strings.TrimSpace(s)
}

// trimBeforeHan 丢弃第一个汉字之前的全部字符；没有汉字时原样返回
func trimBeforeHan(s string) string {
	for i, r := range s {
		if unicode.Is(unicode.Han, r) {
			return s[i:]
		}
	}
	return s
}
