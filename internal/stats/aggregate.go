package stats

import (
	"ScriptStats/internal/model"
)

type mean struct {
	sum float64
	n   int
}

func (a *mean) add(v *float64) {
	if v == nil {
		return
	}
	a.sum += *v
	a.n++
}

func (a *mean) value() *float64 {
	if a.n == 0 {
		return nil
	}
	v := a.sum / float64(a.n)
	return &v
}

// ratio 分母不为正时返回 nil
func ratio(num, den float64) *float64 {
	if den <= 0 {
		return nil
	}
	v := num / den
	return &v
}

// 加算列与平均列；rowSums/metricSums、rowRates/metricRates 顺序一一对应

func rowSums(r *model.RowMetrics) []*float64 {
	return []*float64{
		r.TotalCost, r.Impressions, r.Clicks, r.Customers, r.Activations, r.Additions,
		r.HighCourseRevenue, r.LowCourseCount, r.LowCourseRevenue, r.WechatFollowers,
		r.GroupJoins, r.DeepUsers, r.HighCourseCount, r.Day3HighCourse, r.Day4HighCourse,
		r.Day5HighCourse, r.Refunds,
	}
}

func metricSums(m *model.Metrics) []*float64 {
	return []*float64{
		&m.TotalCost, &m.Impressions, &m.Clicks, &m.Customers, &m.Activations, &m.Additions,
		&m.HighCourseRevenue, &m.LowCourseCount, &m.LowCourseRevenue, &m.WechatFollowers,
		&m.GroupJoins, &m.DeepUsers, &m.HighCourseCount, &m.Day3HighCourse, &m.Day4HighCourse,
		&m.Day5HighCourse, &m.Refunds,
	}
}

func rowRates(r *model.RowMetrics) []*float64 {
	return []*float64{
		r.ClickRate, r.PlayRate3s, r.PlayRate, r.ConversionRate, r.LandingConvRate,
		r.WechatFollowRate, r.ActivationRate, r.AdditionRate, r.GroupJoinRate,
		r.Day1PlayRate, r.Day2PlayRate, r.Day3PlayRate, r.Day4PlayRate, r.Day5PlayRate,
		r.DeepRate, r.Day3DeepPlayRate, r.Day3DeepConvRate, r.HighCoursePayRate, r.RefundRate,
	}
}

func metricRates(m *model.Metrics) []**float64 {
	return []**float64{
		&m.ClickRate, &m.PlayRate3s, &m.PlayRate, &m.ConversionRate, &m.LandingConvRate,
		&m.WechatFollowRate, &m.ActivationRate, &m.AdditionRate, &m.GroupJoinRate,
		&m.Day1PlayRate, &m.Day2PlayRate, &m.Day3PlayRate, &m.Day4PlayRate, &m.Day5PlayRate,
		&m.DeepRate, &m.Day3DeepPlayRate, &m.Day3DeepConvRate, &m.HighCoursePayRate, &m.RefundRate,
	}
}

// finish 写入平均列并由合计重算比率
func finish(m *model.Metrics, rates []mean) {
	for i, dst := range metricRates(m) {
		*dst = rates[i].value()
	}
	m.CustomerCost = ratio(m.TotalCost, m.Customers)
	m.AvgImpressionCost = ratio(m.TotalCost, m.Impressions)
	m.AvgClickCost = ratio(m.TotalCost, m.Clicks)
	m.ActivationCost = ratio(m.TotalCost, m.Activations)
	m.AdditionCost = ratio(m.TotalCost, m.Additions)
	m.ROI = ratio(m.HighCourseRevenue, m.TotalCost)
}

// Aggregate 对一组有效行求和、求均值并重算比率。
// 整脚本、脚本×渠道、渠道×期次三种统计都走这里，区别只在传入的行集合。
func Aggregate(rows []*model.SpendRow) model.Metrics {
	var m model.Metrics
	sums := metricSums(&m)
	rates := make([]mean, len(metricRates(&m)))

	for _, r := range rows {
		for i, v := range rowSums(&r.RowMetrics) {
			if v != nil {
				*sums[i] += *v
			}
		}
		for i, v := range rowRates(&r.RowMetrics) {
			rates[i].add(v)
		}
	}
	m.MatchedRows = len(rows)
	finish(&m, rates)
	return m
}

// Combine 合并多条已聚合的统计：加算列与行数相加，平均列对非空值再取平均，比率按合计重算
func Combine(items []model.Metrics) model.Metrics {
	var m model.Metrics
	sums := metricSums(&m)
	rates := make([]mean, len(metricRates(&m)))

	for k := range items {
		src := &items[k]
		for i, v := range metricSums(src) {
			*sums[i] += *v
		}
		for i, v := range metricRates(src) {
			rates[i].add(*v)
		}
		m.MatchedRows += src.MatchedRows
	}
	finish(&m, rates)
	return m
}
