package service_test

import (
	"context"
	"errors"
	"testing"

	"ScriptStats/internal/model"
	"ScriptStats/internal/service"
)

// 源脚本A 下有两个迭代；独立课程有成本无获客；无数据脚本没有统计
func newInsightFixture(t *testing.T) (*fixture, *service.InsightService) {
	t.Helper()
	fx := newFixture()
	fx.addScript(t, "a", "源脚本A", nil)
	fx.addScript(t, "b", "迭代甲", str("a"))
	fx.addScript(t, "c", "迭代乙", str("a"))
	fx.addScript(t, "d", "独立课程", nil)
	fx.addScript(t, "e", "无数据", nil)
	fx.addUpload(t, "u1", "第1期",
		row("投放源脚本A", str("抖音"), 100, 10, 50),
		row("投放迭代甲", str("抖音"), 40, 4, 80),
		row("投放迭代乙", str("快手"), 60, 6, 0),
		row("投放独立课程", str("快手"), 10, 0, 0),
	)
	fx.addUpload(t, "u2", "第2期", row("投放迭代甲", str("视频号"), 20, 1, 40))
	fx.recompute(t)
	return fx, service.NewInsightService(fx.store, fx.store, fx.store, fx.store, fx.logger)
}

func names(entries []service.RankEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestOverviewRankings(t *testing.T) {
	_, svc := newInsightFixture(t)
	ov, err := svc.Overview(context.Background(), "")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}

	if ov.ScriptCount != 4 || ov.TotalCost != 230 || ov.TotalCustomers != 21 {
		t.Fatalf("totals=%d/%v/%v, want 4/230/21", ov.ScriptCount, ov.TotalCost, ov.TotalCustomers)
	}
	approx(t, "roi", ov.ROI, 170.0/230.0)

	if got := names(ov.Top3Cost); len(got) != 3 || got[0] != "源脚本A" || got[1] != "迭代甲" || got[2] != "迭代乙" {
		t.Fatalf("top3 cost=%v", got)
	}
	if got := names(ov.Top10ROI); len(got) != 4 || got[0] != "迭代甲" || got[1] != "源脚本A" {
		t.Fatalf("top10 roi=%v", got)
	}
	if got := names(ov.Top3Revenue); got[0] != "迭代甲" {
		t.Fatalf("top3 revenue=%v", got)
	}

	if len(ov.TopSourceScripts) != 1 {
		t.Fatalf("sources=%+v, want only 源脚本A", ov.TopSourceScripts)
	}
	src := ov.TopSourceScripts[0]
	if src.ID != "a" || src.ChildCount != 2 || src.AggregatedCustomers != 21 || src.AggregatedCost != 220 {
		t.Fatalf("source=%+v", src)
	}
	if src.OwnStat == nil || src.OwnStat.Customers != 10 {
		t.Fatalf("own stat=%+v", src.OwnStat)
	}

	iters := ov.TopIterationScripts
	if len(iters) != 2 || iters[0].Name != "迭代甲" || iters[1].Name != "迭代乙" || iters[0].ParentName != "源脚本A" {
		t.Fatalf("iterations=%+v", iters)
	}
	approx(t, "iteration roi", iters[0].ROI, 2)
}

func TestOverviewForSinglePeriod(t *testing.T) {
	_, svc := newInsightFixture(t)
	ctx := context.Background()

	ov, err := svc.Overview(ctx, "u2")
	if err != nil {
		t.Fatalf("Overview(u2): %v", err)
	}
	if ov.ScriptCount != 1 || ov.TotalCost != 20 || names(ov.Top10Cost)[0] != "迭代甲" {
		t.Fatalf("period overview=%+v", ov)
	}
	if len(ov.TopSourceScripts) != 0 || len(ov.TopIterationScripts) != 0 {
		t.Fatalf("period overview should not rank lineage")
	}

	if _, err := svc.Overview(ctx, "missing"); !errors.Is(err, service.ErrUploadNotFound) {
		t.Fatalf("err=%v, want ErrUploadNotFound", err)
	}
}

func TestChannelOverviewMatrix(t *testing.T) {
	_, svc := newInsightFixture(t)
	co, err := svc.ChannelOverview(context.Background())
	if err != nil {
		t.Fatalf("ChannelOverview: %v", err)
	}
	want := []string{"抖音", "快手", "视频号"}
	if len(co.AllChannels) != len(want) {
		t.Fatalf("channels=%v, want %v", co.AllChannels, want)
	}
	for i := range want {
		if co.AllChannels[i] != want[i] {
			t.Fatalf("channels=%v, want %v", co.AllChannels, want)
		}
	}

	douyin := co.Overall[0]
	if douyin.TotalCost != 140 || douyin.Customers != 14 || douyin.PeriodCount != 1 || douyin.MatchedRows != 2 {
		t.Fatalf("抖音 totals=%+v", douyin)
	}
	approx(t, "抖音 roi", douyin.ROI, 130.0/140.0)
	approx(t, "抖音 customer cost", douyin.CustomerCost, 10)

	if len(co.ByPeriod) != 2 {
		t.Fatalf("periods=%d, want 2", len(co.ByPeriod))
	}
	for _, p := range co.ByPeriod {
		if len(p.Channels) != 3 {
			t.Fatalf("period %s cells=%d, want 3", p.Period, len(p.Channels))
		}
		for _, cell := range p.Channels {
			wantData := (p.UploadID == "u1") != (cell.Channel == "视频号")
			if cell.HasData != wantData {
				t.Fatalf("period %s channel %s has_data=%v", p.Period, cell.Channel, cell.HasData)
			}
			if cell.HasData && cell.Metrics == nil {
				t.Fatalf("period %s channel %s missing metrics", p.Period, cell.Channel)
			}
		}
	}
}

func TestCounts(t *testing.T) {
	_, svc := newInsightFixture(t)
	scripts, withStats, channels, err := svc.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if scripts != 5 || withStats != 4 || channels != 3 {
		t.Fatalf("counts=%d/%d/%d, want 5/4/3", scripts, withStats, channels)
	}
}

func TestDetailedAcrossScriptsAndPeriod(t *testing.T) {
	_, svc := newInsightFixture(t)
	ctx := context.Background()

	d, err := svc.Detailed(ctx, "")
	if err != nil {
		t.Fatalf("Detailed: %v", err)
	}
	if d.ScriptCount != 4 || d.MatchedRows != 5 || d.TotalCost != 230 || d.Customers != 21 || d.HighCourseRevenue != 170 {
		t.Fatalf("detailed=%+v", d)
	}
	approx(t, "roi", d.ROI, 170.0/230.0)
	approx(t, "customer cost", d.CustomerCost, 230.0/21.0)
	if d.AvgClickCost != nil {
		t.Fatalf("avg click cost=%v, want nil without clicks", *d.AvgClickCost)
	}

	p, err := svc.Detailed(ctx, "u1")
	if err != nil {
		t.Fatalf("Detailed(u1): %v", err)
	}
	if p.ScriptCount != 4 || p.TotalCost != 210 || p.Customers != 20 || p.HighCourseRevenue != 130 {
		t.Fatalf("period detailed=%+v", p)
	}

	if _, err := svc.Detailed(ctx, "missing"); !errors.Is(err, service.ErrUploadNotFound) {
		t.Fatalf("err=%v, want ErrUploadNotFound", err)
	}
}

func TestByContentType(t *testing.T) {
	fx, svc := newInsightFixture(t)
	ctx := context.Background()

	empty, err := svc.ByContentType(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("ByContentType without config=%v,%v, want empty", empty, err)
	}

	// 无数据 没有统计，不计入
	if err := fx.store.PutStringList(ctx, model.ConfigContentTypes, []string{"课程", "甲", "数据"}); err != nil {
		t.Fatalf("PutStringList: %v", err)
	}
	list, err := svc.ByContentType(ctx)
	if err != nil {
		t.Fatalf("ByContentType: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("list=%+v", list)
	}
	jia, course, none := list[0], list[1], list[2]
	if jia.ContentType != "甲" || jia.ScriptCount != 1 || jia.TotalCost != 60 || jia.Customers != 5 {
		t.Fatalf("甲=%+v", jia)
	}
	approx(t, "甲 roi", jia.ROI, 2)
	if course.ContentType != "课程" || course.TotalCost != 10 {
		t.Fatalf("课程=%+v", course)
	}
	approx(t, "课程 roi", course.ROI, 0)
	if none.ContentType != "数据" || none.ScriptCount != 0 || none.ROI != nil {
		t.Fatalf("数据=%+v", none)
	}
}
