package service

import (
	"context"
	"fmt"
	"time"

	"ScriptStats/internal/matching"
	"ScriptStats/internal/model"
	"ScriptStats/internal/repository"
	"ScriptStats/internal/stats"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RecomputeResult 一次全量重算的概况
type RecomputeResult struct {
	Scripts            int           `json:"scripts"`
	MatchedScripts     int           `json:"matched_scripts"`
	ChannelStats       int           `json:"channel_stats"`
	ChannelPeriodStats int           `json:"channel_period_stats"`
	Duration           time.Duration `json:"duration"`
}

// Pipeline 统计全量重算：脚本维度与渠道×期次维度两条互不依赖的统计，各自整体替换旧结果
type Pipeline struct {
	scriptRepo repository.ScriptRepository
	uploadRepo repository.UploadRepository
	statRepo   repository.StatRepository
	configRepo repository.ConfigRepository
	logger     *logrus.Logger
}

func NewPipeline(scriptRepo repository.ScriptRepository, uploadRepo repository.UploadRepository,
	statRepo repository.StatRepository, configRepo repository.ConfigRepository, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		scriptRepo: scriptRepo,
		uploadRepo: uploadRepo,
		statRepo:   statRepo,
		configRepo: configRepo,
		logger:     logger,
	}
}

// snapshot 一次重算读取到的全部输入
type snapshot struct {
	scripts []*model.Script
	rows    []*model.SpendRow
	uploads []*model.ExcelUpload
	cfg     model.MatchConfig
}

func (p *Pipeline) load(ctx context.Context) (*snapshot, error) {
	scripts, err := p.scriptRepo.ListScripts(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取脚本失败: %w", err)
	}
	all, err := p.uploadRepo.ListRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取数据行失败: %w", err)
	}
	uploads, err := p.uploadRepo.ListUploads(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取上传记录失败: %w", err)
	}
	cfg, err := repository.LoadMatchConfig(ctx, p.configRepo)
	if err != nil {
		return nil, fmt.Errorf("读取匹配配置失败: %w", err)
	}

	rows := make([]*model.SpendRow, 0, len(all))
	for _, r := range all {
		if stats.IsDataRow(r.MaterialName) {
			rows = append(rows, r)
		}
	}
	return &snapshot{scripts: scripts, rows: rows, uploads: uploads, cfg: cfg}, nil
}

// RecomputeAll 全量重算。可随时重复执行，结果只取决于当前脚本、数据行与匹配配置。
func (p *Pipeline) RecomputeAll(ctx context.Context) (*RecomputeResult, error) {
	start := time.Now()
	snap, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	res := &RecomputeResult{Scripts: len(snap.scripts)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		matched, channels, err := p.scriptPass(gctx, snap)
		res.MatchedScripts = matched
		res.ChannelStats = channels
		return err
	})
	g.Go(func() error {
		n, err := p.channelPeriodPass(gctx, snap)
		res.ChannelPeriodStats = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	return res, nil
}

// scriptPass 逐个脚本筛选命中行；无命中则删除该脚本统计，否则 upsert 脚本统计与各渠道统计并清理消失的渠道
func (p *Pipeline) scriptPass(ctx context.Context, snap *snapshot) (matched, channels int, err error) {
	matcher := matching.NewMatcher(snap.cfg)
	cleaned := make([]string, len(snap.rows))
	for i, r := range snap.rows {
		cleaned[i] = matcher.Clean(r.MaterialName)
	}

	live := make([]string, 0, len(snap.scripts))
	for _, sc := range snap.scripts {
		if err := ctx.Err(); err != nil {
			return matched, channels, err
		}
		live = append(live, sc.ID)

		var hits []*model.SpendRow
		for i, r := range snap.rows {
			if matcher.MatchCleaned(r.MaterialName, cleaned[i], sc.Name) {
				hits = append(hits, r)
			}
		}

		if len(hits) == 0 {
			if err := p.statRepo.DeleteScriptStats(ctx, sc.ID); err != nil {
				return matched, channels, fmt.Errorf("删除脚本 %s 统计失败: %w", sc.ID, err)
			}
			continue
		}

		stat := &model.ScriptStat{
			ScriptID:    sc.ID,
			UploadCount: len(snap.uploads),
			Metrics:     stats.Aggregate(hits),
		}
		if err := p.statRepo.UpsertScriptStat(ctx, stat); err != nil {
			return matched, channels, fmt.Errorf("写入脚本 %s 统计失败: %w", sc.ID, err)
		}
		matched++

		order, groups := stats.GroupByChannel(hits)
		for _, ch := range order {
			cs := &model.ScriptChannelStat{
				ScriptID: sc.ID,
				Channel:  ch,
				Metrics:  stats.Aggregate(groups[ch]),
			}
			if err := p.statRepo.UpsertScriptChannelStat(ctx, cs); err != nil {
				return matched, channels, fmt.Errorf("写入脚本 %s 渠道 %s 统计失败: %w", sc.ID, ch, err)
			}
		}
		channels += len(order)
		if err := p.statRepo.PruneScriptChannelStats(ctx, sc.ID, order); err != nil {
			return matched, channels, fmt.Errorf("清理脚本 %s 渠道统计失败: %w", sc.ID, err)
		}
		p.logger.WithFields(logrus.Fields{
			"script":   sc.Name,
			"rows":     len(hits),
			"channels": len(order),
		}).Debug("脚本统计已更新")
	}

	if err := p.statRepo.PruneOrphanScriptStats(ctx, live); err != nil {
		return matched, channels, fmt.Errorf("清理失效脚本统计失败: %w", err)
	}
	return matched, channels, nil
}

// channelPeriodPass 与脚本匹配无关：按期次、渠道直接聚合全部有效行，整表替换
func (p *Pipeline) channelPeriodPass(ctx context.Context, snap *snapshot) (int, error) {
	byUpload := make(map[string][]*model.SpendRow)
	for _, r := range snap.rows {
		byUpload[r.UploadID] = append(byUpload[r.UploadID], r)
	}

	var out []*model.ChannelPeriodStat
	for _, u := range snap.uploads {
		order, groups := stats.GroupByChannel(byUpload[u.ID])
		for _, ch := range order {
			out = append(out, &model.ChannelPeriodStat{
				Channel:  ch,
				UploadID: u.ID,
				Period:   u.Period,
				Metrics:  stats.Aggregate(groups[ch]),
			})
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := p.statRepo.ReplaceChannelPeriodStats(ctx, out); err != nil {
		return 0, fmt.Errorf("替换渠道期次统计失败: %w", err)
	}
	return len(out), nil
}
