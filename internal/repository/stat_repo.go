package repository

import (
	"context"
	"fmt"

	"ScriptStats/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatRepository 统计结果读写。写入只来自重算流程。
type StatRepository interface {
	UpsertScriptStat(ctx context.Context, stat *model.ScriptStat) error
	UpsertScriptChannelStat(ctx context.Context, stat *model.ScriptChannelStat) error
	// DeleteScriptStats 删除脚本统计及其全部渠道统计
	DeleteScriptStats(ctx context.Context, scriptID string) error
	// PruneScriptChannelStats 删除 keep 之外的渠道统计；keep 为空时删除该脚本全部渠道统计
	PruneScriptChannelStats(ctx context.Context, scriptID string, keep []string) error
	// PruneOrphanScriptStats 删除不属于 liveIDs 的脚本统计
	PruneOrphanScriptStats(ctx context.Context, liveIDs []string) error
	// ReplaceChannelPeriodStats 整表替换渠道期次统计
	ReplaceChannelPeriodStats(ctx context.Context, stats []*model.ChannelPeriodStat) error

	ListScriptStats(ctx context.Context) ([]*model.ScriptStat, error)
	// ListScriptChannelStats 按总成本降序
	ListScriptChannelStats(ctx context.Context, scriptID string) ([]*model.ScriptChannelStat, error)
	// ListChannelPeriodStats 按期次升序、总成本降序
	ListChannelPeriodStats(ctx context.Context) ([]*model.ChannelPeriodStat, error)
	CountScriptStats(ctx context.Context) (int64, error)
	// CountStatChannels 脚本渠道统计中出现的不同渠道数
	CountStatChannels(ctx context.Context) (int64, error)
}

type statRepository struct {
	db *gorm.DB
}

// NewStatRepository 创建统计仓储
func NewStatRepository(db *gorm.DB) StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) UpsertScriptStat(ctx context.Context, stat *model.ScriptStat) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "script_id"}},
		UpdateAll: true,
	}).Create(stat).Error
}

func (r *statRepository) UpsertScriptChannelStat(ctx context.Context, stat *model.ScriptChannelStat) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "script_id"}, {Name: "channel"}},
		UpdateAll: true,
	}).Create(stat).Error
}

func (r *statRepository) DeleteScriptStats(ctx context.Context, scriptID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("script_id = ?", scriptID).Delete(&model.ScriptStat{}).Error; err != nil {
			return err
		}
		return tx.Where("script_id = ?", scriptID).Delete(&model.ScriptChannelStat{}).Error
	})
}

func (r *statRepository) PruneScriptChannelStats(ctx context.Context, scriptID string, keep []string) error {
	db := r.db.WithContext(ctx).Where("script_id = ?", scriptID)
	if len(keep) > 0 {
		db = db.Where("channel NOT IN ?", keep)
	}
	return db.Delete(&model.ScriptChannelStat{}).Error
}

func (r *statRepository) PruneOrphanScriptStats(ctx context.Context, liveIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.ScriptStat{}, &model.ScriptChannelStat{}} {
			q := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
			if len(liveIDs) > 0 {
				q = q.Where("script_id NOT IN ?", liveIDs)
			}
			if err := q.Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *statRepository) ReplaceChannelPeriodStats(ctx context.Context, stats []*model.ChannelPeriodStat) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.ChannelPeriodStat{}).Error; err != nil {
			return fmt.Errorf("清空渠道期次统计失败: %w", err)
		}
		if len(stats) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(stats, 200).Error; err != nil {
			return fmt.Errorf("写入渠道期次统计失败: %w", err)
		}
		return nil
	})
}

func (r *statRepository) ListScriptStats(ctx context.Context) ([]*model.ScriptStat, error) {
	var list []*model.ScriptStat
	if err := r.db.WithContext(ctx).Order("script_id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *statRepository) ListScriptChannelStats(ctx context.Context, scriptID string) ([]*model.ScriptChannelStat, error) {
	var list []*model.ScriptChannelStat
	if err := r.db.WithContext(ctx).
		Where("script_id = ?", scriptID).
		Order("total_cost DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *statRepository) ListChannelPeriodStats(ctx context.Context) ([]*model.ChannelPeriodStat, error) {
	var list []*model.ChannelPeriodStat
	if err := r.db.WithContext(ctx).
		Order("period ASC, total_cost DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *statRepository) CountScriptStats(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ScriptStat{}).Count(&n).Error
	return n, err
}

func (r *statRepository) CountStatChannels(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ScriptChannelStat{}).
		Distinct("channel").
		Count(&n).Error
	return n, err
}
