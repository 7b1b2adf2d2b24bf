package repository

import (
	"context"
	"errors"
	"fmt"

	"ScriptStats/internal/model"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation PostgreSQL 唯一约束冲突错误码
const pgUniqueViolation = "23505"

// translateError 唯一约束冲突统一为 gorm.ErrDuplicatedKey，其余错误原样返回
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", gorm.ErrDuplicatedKey, pgErr.ConstraintName)
	}
	return err
}

// ScriptRepository 脚本库持久化
type ScriptRepository interface {
	// ListScripts 按创建时间升序返回全部脚本
	ListScripts(ctx context.Context) ([]*model.Script, error)
	// ListScriptsWithStat 同 ListScripts，附带脚本统计
	ListScriptsWithStat(ctx context.Context) ([]*model.Script, error)
	GetScriptByID(ctx context.Context, id string) (*model.Script, error)
	GetScriptByName(ctx context.Context, name string) (*model.Script, error)
	// ListExistingNames 返回 names 中已存在的脚本名
	ListExistingNames(ctx context.Context, names []string) ([]string, error)
	CreateScript(ctx context.Context, s *model.Script) error
	SaveScript(ctx context.Context, s *model.Script) error
	// DeleteScripts 删除脚本及其统计，子脚本的 parent_id 置空
	DeleteScripts(ctx context.Context, ids []string) (int64, error)
	CountScripts(ctx context.Context) (int64, error)
}

type scriptRepository struct {
	db *gorm.DB
}

// NewScriptRepository 创建脚本仓储
func NewScriptRepository(db *gorm.DB) ScriptRepository {
	return &scriptRepository{db: db}
}

func (r *scriptRepository) ListScripts(ctx context.Context) ([]*model.Script, error) {
	var list []*model.Script
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *scriptRepository) ListScriptsWithStat(ctx context.Context) ([]*model.Script, error) {
	var list []*model.Script
	if err := r.db.WithContext(ctx).Preload("Stat").Order("created_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *scriptRepository) GetScriptByID(ctx context.Context, id string) (*model.Script, error) {
	var s model.Script
	if err := r.db.WithContext(ctx).Preload("Stat").Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scriptRepository) GetScriptByName(ctx context.Context, name string) (*model.Script, error) {
	var s model.Script
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scriptRepository) ListExistingNames(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{}, nil
	}
	var existing []string
	if err := r.db.WithContext(ctx).Model(&model.Script{}).
		Where("name IN ?", names).
		Pluck("name", &existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *scriptRepository) CreateScript(ctx context.Context, s *model.Script) error {
	return translateError(r.db.WithContext(ctx).Create(s).Error)
}

func (r *scriptRepository) SaveScript(ctx context.Context, s *model.Script) error {
	err := r.db.WithContext(ctx).Model(&model.Script{}).
		Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"name":          s.Name,
			"parent_id":     s.ParentID,
			"front_content": s.FrontContent,
			"mid_content":   s.MidContent,
			"end_content":   s.EndContent,
		}).Error
	return translateError(err)
}

func (r *scriptRepository) DeleteScripts(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("script_id IN ?", ids).Delete(&model.ScriptChannelStat{}).Error; err != nil {
			return fmt.Errorf("删除脚本渠道统计失败: %w", err)
		}
		if err := tx.Where("script_id IN ?", ids).Delete(&model.ScriptStat{}).Error; err != nil {
			return fmt.Errorf("删除脚本统计失败: %w", err)
		}
		if err := tx.Model(&model.Script{}).Where("parent_id IN ?", ids).
			Update("parent_id", nil).Error; err != nil {
			return fmt.Errorf("解除迭代关系失败: %w", err)
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Script{})
		if res.Error != nil {
			return fmt.Errorf("删除脚本失败: %w", res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

func (r *scriptRepository) CountScripts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Script{}).Count(&n).Error
	return n, err
}
