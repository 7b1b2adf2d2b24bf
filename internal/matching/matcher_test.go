package matching_test

import (
	"testing"

	"ScriptStats/internal/matching"
	"ScriptStats/internal/model"
)

func TestMatchesDigitBoundary(t *testing.T) {
	cfg := model.MatchConfig{}
	if matching.Matches("脚本330投放", "脚本3", cfg) {
		t.Fatalf("脚本3 should not match 脚本330投放")
	}
	if !matching.Matches("脚本3投放", "脚本3", cfg) {
		t.Fatalf("脚本3 should match 脚本3投放")
	}
	if !matching.Matches("投放脚本3", "脚本3", cfg) {
		t.Fatalf("脚本3 should match when it ends the name")
	}
}

func TestMatchesEmptyInputs(t *testing.T) {
	cfg := model.MatchConfig{}
	if matching.Matches("", "脚本3", cfg) || matching.Matches("脚本3", "", cfg) {
		t.Fatalf("empty input must never match")
	}
}

func TestMatchSliceExact(t *testing.T) {
	m := matching.NewMatcher(model.MatchConfig{ContentTypes: []string{"课程"}})
	if !m.MatchSlice("XXXXXX威原塔威玉通课程", "威原塔威玉通") {
		t.Fatalf("slice match expected")
	}
	if m.MatchSlice("XXXXXX威原塔威玉通课程", "威原塔") {
		t.Fatalf("slice match requires equality, not containment")
	}
	if m.MatchSlice("XX威原塔课程", "威原塔") {
		t.Fatalf("names shorter than 8 characters never use the slice")
	}
}

func TestMatchSliceLongestSuffixWins(t *testing.T) {
	m := matching.NewMatcher(model.MatchConfig{ContentTypes: []string{"程", "课程"}})
	if !m.MatchSlice("XXXXXX威原塔威玉通课程", "威原塔威玉通") {
		t.Fatalf("longest content type suffix should be stripped")
	}
}

func TestMatchUsesSliceWhenFallbackRejects(t *testing.T) {
	cfg := model.MatchConfig{ContentTypes: []string{"2号"}}
	// 包含匹配会因紧跟数字 2 被拒绝，只有结构切片能命中
	if !matching.Matches("投放素材一组脚本12号", "脚本1", cfg) {
		t.Fatalf("expected slice match")
	}
	if matching.Matches("投放素材一组脚本12号", "脚本1", model.MatchConfig{}) {
		t.Fatalf("without the content type the digit guard must reject")
	}
}

func TestMatchFallsBackToRawName(t *testing.T) {
	if !matching.Matches("改3", "改3", model.MatchConfig{}) {
		t.Fatalf("raw name should be searched when cleaning empties it")
	}
}

func TestMatchEndToEndName(t *testing.T) {
	if !matching.Matches("代理-210601威塔课程-WJJ", "威塔课程", model.MatchConfig{}) {
		t.Fatalf("cleaned name should match the script")
	}
}

func TestNewMatcherCopiesConfig(t *testing.T) {
	cfg := model.MatchConfig{BlockWords: []string{"终版"}}
	m := matching.NewMatcher(cfg)
	cfg.BlockWords[0] = "威塔"
	if !m.Match("威塔终版", "威塔") {
		t.Fatalf("matcher must keep its own snapshot of block words")
	}
}
