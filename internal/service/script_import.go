package service

import (
	"regexp"
	"strings"
)

// ParsedScript 从脚本文本中解析出的一条脚本
type ParsedScript struct {
	Name          string   `json:"name"`
	FrontContent  string   `json:"front_content"`
	MidContent    string   `json:"mid_content"`
	EndContent    string   `json:"end_content"`
	FrontTagNames []string `json:"front_tag_names"`
	MidTagNames   []string `json:"mid_tag_names"`
	EndTagNames   []string `json:"end_tag_names"`
}

// ParseError 无法归属的行
type ParseError struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// ParseResult 解析结果，脚本按首次出现的顺序排列
type ParseResult struct {
	Scripts []*ParsedScript `json:"scripts"`
	Errors  []ParseError    `json:"errors"`
}

var (
	segmentLineRe = regexp.MustCompile(`^段落—(前贴|中段|尾贴)\s+内容标签—(.*?)\s+脚本名：(\S+)(?:\s+内容：(.*))?$`)
	leadingDigits = regexp.MustCompile(`^[0-9]+`)
)

type segment int

const (
	segFront segment = iota
	segMid
	segEnd
)

// ParseScriptText 解析脚本文本。
// 每个段落行形如「段落—前贴 内容标签—A、B 脚本名：NAME 内容：…」，其后不匹配的行视为上一段落的续行；
// 以 === 开头的行重置当前段落。同名脚本的同一段落以后出现的为准。
func ParseScriptText(text string) *ParseResult {
	res := &ParseResult{Scripts: []*ParsedScript{}, Errors: []ParseError{}}
	byName := make(map[string]*ParsedScript)

	var cur *ParsedScript
	var curSeg segment

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "===") {
			cur = nil
			continue
		}
		if line == "" {
			continue
		}

		m := segmentLineRe.FindStringSubmatch(line)
		if m == nil {
			if cur == nil {
				res.Errors = append(res.Errors, ParseError{Line: i + 1, Content: line, Reason: "无法解析，且无所属段落"})
				continue
			}
			switch curSeg {
			case segFront:
				cur.FrontContent += "\n" + line
			case segMid:
				cur.MidContent += "\n" + line
			default:
				cur.EndContent += "\n" + line
			}
			continue
		}

		name := leadingDigits.ReplaceAllString(m[3], "")
		if name == "" {
			res.Errors = append(res.Errors, ParseError{Line: i + 1, Content: line, Reason: "脚本名为空"})
			cur = nil
			continue
		}
		sc, ok := byName[name]
		if !ok {
			sc = &ParsedScript{Name: name, FrontTagNames: []string{}, MidTagNames: []string{}, EndTagNames: []string{}}
			byName[name] = sc
			res.Scripts = append(res.Scripts, sc)
		}

		tags := splitTags(m[2])
		content := m[4]
		switch m[1] {
		case "前贴":
			sc.FrontContent, sc.FrontTagNames, curSeg = content, tags, segFront
		case "中段":
			sc.MidContent, sc.MidTagNames, curSeg = content, tags, segMid
		default:
			sc.EndContent, sc.EndTagNames, curSeg = content, tags, segEnd
		}
		cur = sc
	}
	return res
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, "、") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
