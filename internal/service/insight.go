package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"ScriptStats/internal/matching"
	"ScriptStats/internal/model"
	"ScriptStats/internal/repository"
	"ScriptStats/internal/stats"

	"github.com/sirupsen/logrus"
)

// RankEntry 排行榜中的一项
type RankEntry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SourceRank 源脚本：自身及全部迭代后代的获客与成本合计
type SourceRank struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	ChildCount          int           `json:"child_count"`
	OwnStat             *stats.Totals `json:"own_stat"`
	AggregatedCustomers float64       `json:"aggregated_customers"`
	AggregatedCost      float64       `json:"aggregated_cost"`
}

// IterationRank 迭代脚本按自身 ROI 排名
type IterationRank struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ParentName string   `json:"parent_name"`
	TotalCost  float64  `json:"total_cost"`
	Customers  float64  `json:"customers"`
	ROI        *float64 `json:"roi"`
}

// Overview 数据总览
type Overview struct {
	TotalCost           float64         `json:"total_cost"`
	TotalCustomers      float64         `json:"total_customers"`
	AvgCustomerCost     *float64        `json:"avg_customer_cost"`
	ROI                 *float64        `json:"roi"`
	ScriptCount         int             `json:"script_count"`
	Top10Cost           []RankEntry     `json:"top10_cost"`
	Top10Customers      []RankEntry     `json:"top10_customers"`
	Top10ROI            []RankEntry     `json:"top10_roi"`
	Top3Cost            []RankEntry     `json:"top3_cost"`
	Top3Revenue         []RankEntry     `json:"top3_revenue"`
	TopSourceScripts    []SourceRank    `json:"top_source_scripts"`
	TopIterationScripts []IterationRank `json:"top_iteration_scripts"`
}

// ChannelTotals 单个渠道跨全部期次的合计，平均列为各期次平均值的平均
type ChannelTotals struct {
	Channel     string `json:"channel"`
	PeriodCount int    `json:"period_count"`
	model.Metrics
}

// ChannelCell 期次 × 渠道矩阵中的一格，无数据时只有 channel 与 has_data
type ChannelCell struct {
	Channel string `json:"channel"`
	HasData bool   `json:"has_data"`
	*model.Metrics
}

// PeriodChannels 一个期次下全部渠道的统计
type PeriodChannels struct {
	UploadID string        `json:"upload_id"`
	Period   string        `json:"period"`
	Channels []ChannelCell `json:"channels"`
}

// ChannelOverview 渠道分析
type ChannelOverview struct {
	AllChannels []string         `json:"all_channels"`
	Overall     []ChannelTotals  `json:"overall"`
	ByPeriod    []PeriodChannels `json:"by_period"`
}

// DetailedStats 全部有统计脚本的汇总明细
type DetailedStats struct {
	ScriptCount int `json:"script_count"`
	model.Metrics
}

// ContentTypeStat 按脚本名结尾的内容类型汇总
type ContentTypeStat struct {
	ContentType       string   `json:"content_type"`
	ScriptCount       int      `json:"script_count"`
	TotalCost         float64  `json:"total_cost"`
	Customers         float64  `json:"customers"`
	HighCourseRevenue float64  `json:"high_course_revenue"`
	ROI               *float64 `json:"roi"`
}

const (
	topN      = 10
	topRanked = 3
)

// InsightService 只读统计查询，读取重算结果，不写任何统计
type InsightService struct {
	scriptRepo repository.ScriptRepository
	uploadRepo repository.UploadRepository
	statRepo   repository.StatRepository
	configRepo repository.ConfigRepository
	logger     *logrus.Logger
}

func NewInsightService(scriptRepo repository.ScriptRepository, uploadRepo repository.UploadRepository,
	statRepo repository.StatRepository, configRepo repository.ConfigRepository, logger *logrus.Logger) *InsightService {
	return &InsightService{
		scriptRepo: scriptRepo,
		uploadRepo: uploadRepo,
		statRepo:   statRepo,
		configRepo: configRepo,
		logger:     logger,
	}
}

// scriptMetrics 排行榜计算用的单脚本指标
type scriptMetrics struct {
	name      string
	totalCost float64
	customers float64
	revenue   float64
	roi       *float64
}

// Overview uploadID 为空时基于全量脚本统计，否则只对该期次现场匹配计算（不含源脚本与迭代排行）
func (s *InsightService) Overview(ctx context.Context, uploadID string) (*Overview, error) {
	if uploadID != "" {
		return s.periodOverview(ctx, uploadID)
	}

	scripts, err := s.scriptRepo.ListScriptsWithStat(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取脚本统计失败: %w", err)
	}

	var items []scriptMetrics
	for _, sc := range scripts {
		if sc.Stat == nil {
			continue
		}
		items = append(items, scriptMetrics{
			name:      sc.Name,
			totalCost: sc.Stat.TotalCost,
			customers: sc.Stat.Customers,
			revenue:   sc.Stat.HighCourseRevenue,
			roi:       sc.Stat.ROI,
		})
	}
	ov := buildOverview(items)
	ov.TopSourceScripts = rankSources(scripts)
	ov.TopIterationScripts = rankIterations(scripts)
	return ov, nil
}

func (s *InsightService) periodOverview(ctx context.Context, uploadID string) (*Overview, error) {
	matched, err := s.matchPeriod(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	items := make([]scriptMetrics, 0, len(matched))
	for _, pm := range matched {
		items = append(items, scriptMetrics{
			name:      pm.name,
			totalCost: pm.metrics.TotalCost,
			customers: pm.metrics.Customers,
			revenue:   pm.metrics.HighCourseRevenue,
			roi:       pm.metrics.ROI,
		})
	}
	ov := buildOverview(items)
	ov.TopSourceScripts = []SourceRank{}
	ov.TopIterationScripts = []IterationRank{}
	return ov, nil
}

type periodMetrics struct {
	name    string
	metrics model.Metrics
}

// matchPeriod 用当前匹配配置对单个期次的有效行现场匹配，返回有命中的脚本及其聚合结果
func (s *InsightService) matchPeriod(ctx context.Context, uploadID string) ([]periodMetrics, error) {
	if _, err := s.uploadRepo.GetUpload(ctx, uploadID); err != nil {
		return nil, notFound(err, ErrUploadNotFound)
	}
	rows, err := s.uploadRepo.ListRowsByUpload(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("读取期次数据失败: %w", err)
	}
	scripts, err := s.scriptRepo.ListScripts(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取脚本失败: %w", err)
	}
	cfg, err := repository.LoadMatchConfig(ctx, s.configRepo)
	if err != nil {
		return nil, fmt.Errorf("读取匹配配置失败: %w", err)
	}

	matcher := matching.NewMatcher(cfg)
	valid := make([]*model.SpendRow, 0, len(rows))
	cleaned := make([]string, 0, len(rows))
	for _, r := range rows {
		if stats.IsDataRow(r.MaterialName) {
			valid = append(valid, r)
			cleaned = append(cleaned, matcher.Clean(r.MaterialName))
		}
	}

	var out []periodMetrics
	for _, sc := range scripts {
		var hits []*model.SpendRow
		for i, r := range valid {
			if matcher.MatchCleaned(r.MaterialName, cleaned[i], sc.Name) {
				hits = append(hits, r)
			}
		}
		if len(hits) == 0 {
			continue
		}
		out = append(out, periodMetrics{name: sc.Name, metrics: stats.Aggregate(hits)})
	}
	return out, nil
}

// Detailed uploadID 为空时汇总全部脚本统计，否则汇总该期次现场匹配的结果
func (s *InsightService) Detailed(ctx context.Context, uploadID string) (*DetailedStats, error) {
	var list []model.Metrics
	if uploadID != "" {
		matched, err := s.matchPeriod(ctx, uploadID)
		if err != nil {
			return nil, err
		}
		for _, pm := range matched {
			list = append(list, pm.metrics)
		}
	} else {
		scripts, err := s.scriptRepo.ListScriptsWithStat(ctx)
		if err != nil {
			return nil, fmt.Errorf("读取脚本统计失败: %w", err)
		}
		for _, sc := range scripts {
			if sc.Stat != nil {
				list = append(list, sc.Stat.Metrics)
			}
		}
	}
	return &DetailedStats{ScriptCount: len(list), Metrics: stats.Combine(list)}, nil
}

// ByContentType 按配置的内容类型（脚本名结尾）汇总脚本统计，按总成本降序
func (s *InsightService) ByContentType(ctx context.Context) ([]ContentTypeStat, error) {
	cfg, err := repository.LoadMatchConfig(ctx, s.configRepo)
	if err != nil {
		return nil, fmt.Errorf("读取匹配配置失败: %w", err)
	}
	out := make([]ContentTypeStat, 0, len(cfg.ContentTypes))
	if len(cfg.ContentTypes) == 0 {
		return out, nil
	}
	scripts, err := s.scriptRepo.ListScriptsWithStat(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取脚本统计失败: %w", err)
	}

	for _, ct := range cfg.ContentTypes {
		item := ContentTypeStat{ContentType: ct}
		for _, sc := range scripts {
			if sc.Stat == nil || !strings.HasSuffix(sc.Name, ct) {
				continue
			}
			item.ScriptCount++
			item.TotalCost += sc.Stat.TotalCost
			item.Customers += sc.Stat.Customers
			item.HighCourseRevenue += sc.Stat.HighCourseRevenue
		}
		if item.TotalCost > 0 {
			v := item.HighCourseRevenue / item.TotalCost
			item.ROI = &v
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalCost > out[j].TotalCost })
	return out, nil
}

func buildOverview(items []scriptMetrics) *Overview {
	ov := &Overview{ScriptCount: len(items)}
	var revenue float64
	for _, it := range items {
		ov.TotalCost += it.totalCost
		ov.TotalCustomers += it.customers
		revenue += it.revenue
	}
	if ov.TotalCustomers > 0 {
		v := ov.TotalCost / ov.TotalCustomers
		ov.AvgCustomerCost = &v
	}
	if ov.TotalCost > 0 {
		v := revenue / ov.TotalCost
		ov.ROI = &v
	}

	byCost := sortedBy(items, func(m scriptMetrics) float64 { return m.totalCost })
	byCustomers := sortedBy(items, func(m scriptMetrics) float64 { return m.customers })
	byRevenue := sortedBy(items, func(m scriptMetrics) float64 { return m.revenue })
	// ROI 为空按 0 参与排序，取前 10 后再剔除空值
	byROI := sortedBy(items, func(m scriptMetrics) float64 { return deref(m.roi, 0) })

	ov.Top10Cost = entries(byCost, topN, func(m scriptMetrics) float64 { return m.totalCost })
	ov.Top10Customers = entries(byCustomers, topN, func(m scriptMetrics) float64 { return m.customers })
	ov.Top3Cost = entries(byCost, topRanked, func(m scriptMetrics) float64 { return m.totalCost })
	ov.Top3Revenue = entries(byRevenue, topRanked, func(m scriptMetrics) float64 { return m.revenue })
	ov.Top10ROI = []RankEntry{}
	for i, m := range byROI {
		if i >= topN {
			break
		}
		if m.roi != nil {
			ov.Top10ROI = append(ov.Top10ROI, RankEntry{Name: m.name, Value: *m.roi})
		}
	}
	return ov
}

// sortedBy 降序稳定排序，相同值保持输入顺序
func sortedBy(items []scriptMetrics, key func(scriptMetrics) float64) []scriptMetrics {
	out := append([]scriptMetrics(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	return out
}

func entries(items []scriptMetrics, n int, value func(scriptMetrics) float64) []RankEntry {
	out := []RankEntry{}
	for i, m := range items {
		if i >= n {
			break
		}
		out = append(out, RankEntry{Name: m.name, Value: value(m)})
	}
	return out
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// rankSources 无父脚本的源脚本按含后代的获客合计排名，只保留合计大于 0 的前 3 个
func rankSources(scripts []*model.Script) []SourceRank {
	nodes := make([]stats.LineageNode, 0, len(scripts))
	for _, sc := range scripts {
		n := stats.LineageNode{ID: sc.ID, ParentID: sc.ParentID}
		if sc.Stat != nil {
			n.Own = stats.Totals{Customers: sc.Stat.Customers, TotalCost: sc.Stat.TotalCost}
		}
		nodes = append(nodes, n)
	}
	lineage := stats.NewLineage(nodes)

	var ranks []SourceRank
	for _, sc := range scripts {
		if sc.ParentID != nil {
			continue
		}
		agg := lineage.Aggregate(sc.ID, nil)
		if agg.Customers <= 0 {
			continue
		}
		r := SourceRank{
			ID:                  sc.ID,
			Name:                sc.Name,
			ChildCount:          lineage.ChildCount(sc.ID),
			AggregatedCustomers: agg.Customers,
			AggregatedCost:      agg.TotalCost,
		}
		if sc.Stat != nil {
			r.OwnStat = &stats.Totals{Customers: sc.Stat.Customers, TotalCost: sc.Stat.TotalCost}
		}
		ranks = append(ranks, r)
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].AggregatedCustomers > ranks[j].AggregatedCustomers })
	if len(ranks) > topRanked {
		ranks = ranks[:topRanked]
	}
	if ranks == nil {
		ranks = []SourceRank{}
	}
	return ranks
}

// rankIterations 有父脚本且有命中行的迭代脚本按自身 ROI 排名，ROI 为空的排在最后
func rankIterations(scripts []*model.Script) []IterationRank {
	names := make(map[string]string, len(scripts))
	for _, sc := range scripts {
		names[sc.ID] = sc.Name
	}
	ranks := []IterationRank{}
	for _, sc := range scripts {
		if sc.ParentID == nil || sc.Stat == nil || sc.Stat.MatchedRows <= 0 {
			continue
		}
		ranks = append(ranks, IterationRank{
			ID:         sc.ID,
			Name:       sc.Name,
			ParentName: names[*sc.ParentID],
			TotalCost:  sc.Stat.TotalCost,
			Customers:  sc.Stat.Customers,
			ROI:        sc.Stat.ROI,
		})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return deref(ranks[i].ROI, math.Inf(-1)) > deref(ranks[j].ROI, math.Inf(-1))
	})
	if len(ranks) > topRanked {
		ranks = ranks[:topRanked]
	}
	return ranks
}

// ChannelOverview 渠道按总成本降序；期次矩阵中缺失的渠道标记 has_data=false
func (s *InsightService) ChannelOverview(ctx context.Context) (*ChannelOverview, error) {
	all, err := s.statRepo.ListChannelPeriodStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取渠道期次统计失败: %w", err)
	}
	uploads, err := s.uploadRepo.ListUploads(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取上传记录失败: %w", err)
	}

	perChannel := make(map[string][]model.Metrics)
	var channels []string
	for _, st := range all {
		if _, ok := perChannel[st.Channel]; !ok {
			channels = append(channels, st.Channel)
		}
		perChannel[st.Channel] = append(perChannel[st.Channel], st.Metrics)
	}
	totals := make(map[string]ChannelTotals, len(channels))
	for _, ch := range channels {
		totals[ch] = ChannelTotals{
			Channel:     ch,
			PeriodCount: len(perChannel[ch]),
			Metrics:     stats.Combine(perChannel[ch]),
		}
	}
	sort.SliceStable(channels, func(i, j int) bool {
		ci, cj := totals[channels[i]].TotalCost, totals[channels[j]].TotalCost
		if ci != cj {
			return ci > cj
		}
		return strings.Compare(channels[i], channels[j]) < 0
	})

	out := &ChannelOverview{AllChannels: []string{}, Overall: []ChannelTotals{}, ByPeriod: []PeriodChannels{}}
	for _, ch := range channels {
		out.AllChannels = append(out.AllChannels, ch)
		out.Overall = append(out.Overall, totals[ch])
	}

	byUpload := make(map[string]map[string]*model.ChannelPeriodStat)
	for _, st := range all {
		if byUpload[st.UploadID] == nil {
			byUpload[st.UploadID] = make(map[string]*model.ChannelPeriodStat)
		}
		byUpload[st.UploadID][st.Channel] = st
	}
	for _, u := range uploads {
		pc := PeriodChannels{UploadID: u.ID, Period: u.Period, Channels: make([]ChannelCell, 0, len(channels))}
		for _, ch := range channels {
			cell := ChannelCell{Channel: ch}
			if st, ok := byUpload[u.ID][ch]; ok {
				m := st.Metrics
				cell.HasData = true
				cell.Metrics = &m
			}
			pc.Channels = append(pc.Channels, cell)
		}
		out.ByPeriod = append(out.ByPeriod, pc)
	}
	return out, nil
}

// Counts 脚本总数、有统计的脚本数、统计中出现的渠道数
func (s *InsightService) Counts(ctx context.Context) (scripts, withStats, channels int64, err error) {
	if scripts, err = s.scriptRepo.CountScripts(ctx); err != nil {
		return
	}
	if withStats, err = s.statRepo.CountScriptStats(ctx); err != nil {
		return
	}
	channels, err = s.statRepo.CountStatChannels(ctx)
	return
}
