package service_test

import (
	"context"
	"math"
	"reflect"
	"testing"

	"ScriptStats/internal/model"
)

func approx(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s=nil, want %v", name, want)
	}
	if math.Abs(*got-want) > 1e-9 {
		t.Fatalf("%s=%v, want %v", name, *got, want)
	}
}

func TestRecomputeEndToEnd(t *testing.T) {
	fx := newFixture()
	fx.addScript(t, "s1", "威塔课程", nil)
	fx.addUpload(t, "u1", "第1期", row("代理-210601威塔课程-WJJ", str("抖音"), 100, 2, 50))

	res := fx.recompute(t)
	if res.Scripts != 1 || res.MatchedScripts != 1 || res.ChannelStats != 1 || res.ChannelPeriodStats != 1 {
		t.Fatalf("result=%+v, want 1 script/1 matched/1 channel/1 period stat", res)
	}

	ctx := context.Background()
	stats, _ := fx.store.ListScriptStats(ctx)
	if len(stats) != 1 {
		t.Fatalf("script stats=%d, want 1", len(stats))
	}
	st := stats[0]
	if st.ScriptID != "s1" || st.MatchedRows != 1 || st.TotalCost != 100 || st.UploadCount != 1 {
		t.Fatalf("stat=%+v", st)
	}
	approx(t, "customer_cost", st.CustomerCost, 50)
	approx(t, "roi", st.ROI, 0.5)

	channels, _ := fx.store.ListScriptChannelStats(ctx, "s1")
	if len(channels) != 1 || channels[0].Channel != "抖音" {
		t.Fatalf("channel stats=%+v, want single 抖音", channels)
	}
	if !reflect.DeepEqual(channels[0].Metrics, st.Metrics) {
		t.Fatalf("channel metrics=%+v, want %+v", channels[0].Metrics, st.Metrics)
	}

	periods, _ := fx.store.ListChannelPeriodStats(ctx)
	if len(periods) != 1 || periods[0].Channel != "抖音" || periods[0].Period != "第1期" || periods[0].TotalCost != 100 {
		t.Fatalf("period stats=%+v", periods)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	fx := newFixture()
	fx.addScript(t, "s1", "威塔课程", nil)
	fx.addScript(t, "s2", "脚本3", nil)
	fx.addUpload(t, "u1", "第1期",
		row("210601威塔课程", str("抖音"), 100, 2, 50),
		row("脚本3投放", str("快手"), 30, 1, 0),
		row("脚本330投放", str("快手"), 999, 9, 9),
	)
	fx.addUpload(t, "u2", "第2期", row("威塔课程.mp4", str("抖音"), 20, 0, 10))

	snapshot := func() ([]*model.ScriptStat, []*model.ScriptChannelStat, []*model.ChannelPeriodStat) {
		ctx := context.Background()
		ss, _ := fx.store.ListScriptStats(ctx)
		var cs []*model.ScriptChannelStat
		for _, id := range []string{"s1", "s2"} {
			list, _ := fx.store.ListScriptChannelStats(ctx, id)
			cs = append(cs, list...)
		}
		ps, _ := fx.store.ListChannelPeriodStats(ctx)
		return ss, cs, ps
	}

	fx.recompute(t)
	ss1, cs1, ps1 := snapshot()
	fx.recompute(t)
	ss2, cs2, ps2 := snapshot()

	if !reflect.DeepEqual(ss1, ss2) || !reflect.DeepEqual(cs1, cs2) || !reflect.DeepEqual(ps1, ps2) {
		t.Fatalf("second pass changed statistics")
	}
	if len(ss1) != 2 {
		t.Fatalf("script stats=%d, want 2", len(ss1))
	}
	for _, st := range ss1 {
		if st.ScriptID == "s2" && st.TotalCost != 30 {
			t.Fatalf("脚本3 total_cost=%v, want 30 (脚本330 must not match)", st.TotalCost)
		}
		if st.ScriptID == "s1" && (st.TotalCost != 120 || st.MatchedRows != 2 || st.UploadCount != 2) {
			t.Fatalf("威塔课程 stat=%+v, want cost 120 over 2 rows", st)
		}
	}
}

func TestRecomputeRemovesStatsWhenRowsDisappear(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.addScript(t, "s1", "威塔课程", nil)
	fx.addUpload(t, "u1", "第1期", row("威塔课程", str("抖音"), 100, 2, 50))
	fx.recompute(t)

	if n, _ := fx.store.CountScriptStats(ctx); n != 1 {
		t.Fatalf("script stats=%d, want 1", n)
	}
	if err := fx.store.DeleteUpload(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUpload: %v", err)
	}
	fx.recompute(t)

	if n, _ := fx.store.CountScriptStats(ctx); n != 0 {
		t.Fatalf("script stats=%d, want 0", n)
	}
	if list, _ := fx.store.ListScriptChannelStats(ctx, "s1"); len(list) != 0 {
		t.Fatalf("channel stats=%d, want 0", len(list))
	}
	if list, _ := fx.store.ListChannelPeriodStats(ctx); len(list) != 0 {
		t.Fatalf("period stats=%d, want 0", len(list))
	}
}

func TestRecomputePrunesStaleChannels(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.addScript(t, "s1", "威塔课程", nil)
	fx.addUpload(t, "u1", "第1期", row("威塔课程", str("抖音"), 100, 2, 50))
	fx.addUpload(t, "u2", "第2期", row("威塔课程", str("快手"), 10, 1, 0))
	fx.recompute(t)

	if list, _ := fx.store.ListScriptChannelStats(ctx, "s1"); len(list) != 2 {
		t.Fatalf("channel stats=%d, want 2", len(list))
	}
	if err := fx.store.DeleteUpload(ctx, "u2"); err != nil {
		t.Fatalf("DeleteUpload: %v", err)
	}
	fx.recompute(t)

	list, _ := fx.store.ListScriptChannelStats(ctx, "s1")
	if len(list) != 1 || list[0].Channel != "抖音" {
		t.Fatalf("channel stats=%+v, want only 抖音", list)
	}
}

func TestRecomputeSkipsSummaryRowsAndPlaceholderChannels(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.addScript(t, "s1", "威塔课程", nil)
	fx.addUpload(t, "u1", "第1期",
		row("威塔课程", str("抖音"), 100, 2, 50),
		row("威塔课程", str("-"), 40, 0, 0),
		row("威塔课程", nil, 60, 0, 0),
		row("合计", str("抖音"), 10000, 100, 100),
		row(" Total ", str("抖音"), 10000, 100, 100),
	)
	fx.recompute(t)

	stats, _ := fx.store.ListScriptStats(ctx)
	if len(stats) != 1 || stats[0].TotalCost != 200 || stats[0].MatchedRows != 3 {
		t.Fatalf("stats=%+v, want cost 200 over 3 rows", stats)
	}
	channels, _ := fx.store.ListScriptChannelStats(ctx, "s1")
	if len(channels) != 1 || channels[0].TotalCost != 100 {
		t.Fatalf("channel stats=%+v, want single 抖音 with cost 100", channels)
	}
	periods, _ := fx.store.ListChannelPeriodStats(ctx)
	if len(periods) != 1 || periods[0].TotalCost != 100 {
		t.Fatalf("period stats=%+v, want single 抖音 with cost 100", periods)
	}
}

func TestRecomputeKeepsOverlappingMatches(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.addScript(t, "s1", "脚本3", nil)
	fx.addScript(t, "s2", "脚本3投放", nil)
	fx.addUpload(t, "u1", "第1期", row("脚本3投放", str("抖音"), 10, 1, 0))
	fx.recompute(t)

	stats, _ := fx.store.ListScriptStats(ctx)
	if len(stats) != 2 {
		t.Fatalf("script stats=%d, want 2 (one row may count for several scripts)", len(stats))
	}
	for _, st := range stats {
		if st.MatchedRows != 1 || st.TotalCost != 10 {
			t.Fatalf("stat=%+v, want 1 row cost 10", st)
		}
	}
}

func TestRecomputeDropsStatsOfDeletedScripts(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.addScript(t, "s1", "威塔课程", nil)
	fx.addUpload(t, "u1", "第1期", row("威塔课程", str("抖音"), 100, 2, 50))
	if err := fx.store.UpsertScriptStat(ctx, &model.ScriptStat{ScriptID: "ghost"}); err != nil {
		t.Fatalf("UpsertScriptStat: %v", err)
	}
	fx.recompute(t)

	stats, _ := fx.store.ListScriptStats(ctx)
	if len(stats) != 1 || stats[0].ScriptID != "s1" {
		t.Fatalf("stats=%+v, want only s1", stats)
	}
}

func TestRecomputeReadsMatchConfigEachPass(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.addScript(t, "s1", "威塔课程", nil)
	fx.addScript(t, "s2", "脚本1", nil)
	fx.addUpload(t, "u1", "第1期",
		row("威塔XX课程", str("抖音"), 10, 1, 0),
		row("投放素材一组脚本12号", str("抖音"), 20, 1, 0),
	)

	fx.recompute(t)
	if n, _ := fx.store.CountScriptStats(ctx); n != 0 {
		t.Fatalf("script stats=%d before config, want 0", n)
	}

	_ = fx.store.PutStringList(ctx, model.ConfigBlockWords, []string{"XX"})
	_ = fx.store.PutStringList(ctx, model.ConfigContentTypes, []string{"2号"})
	fx.recompute(t)

	stats, _ := fx.store.ListScriptStats(ctx)
	got := map[string]float64{}
	for _, st := range stats {
		got[st.ScriptID] = st.TotalCost
	}
	if len(got) != 2 || got["s1"] != 10 || got["s2"] != 20 {
		t.Fatalf("costs=%v, want s1=10 s2=20", got)
	}
}
