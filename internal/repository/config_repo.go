package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ScriptStats/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConfigRepository system_configs 中字符串列表类配置
type ConfigRepository interface {
	// GetStringList 键不存在时返回空列表
	GetStringList(ctx context.Context, key string) ([]string, error)
	PutStringList(ctx context.Context, key string, values []string) error
}

type configRepository struct {
	db *gorm.DB
}

// NewConfigRepository 创建配置仓储
func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{db: db}
}

func (r *configRepository) GetStringList(ctx context.Context, key string) ([]string, error) {
	var c model.SystemConfig
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeStringList(c.Value)
}

func (r *configRepository) PutStringList(ctx context.Context, key string, values []string) error {
	raw, err := encodeStringList(values)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.SystemConfig{Key: key, Value: raw}).Error
}

func encodeStringList(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("编码配置失败: %w", err)
	}
	return datatypes.JSON(b), nil
}

func decodeStringList(raw datatypes.JSON) ([]string, error) {
	values := []string{}
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return values, nil
}

// LoadMatchConfig 读取一次重算使用的匹配配置快照
func LoadMatchConfig(ctx context.Context, repo ConfigRepository) (model.MatchConfig, error) {
	blockWords, err := repo.GetStringList(ctx, model.ConfigBlockWords)
	if err != nil {
		return model.MatchConfig{}, fmt.Errorf("读取屏蔽词失败: %w", err)
	}
	contentTypes, err := repo.GetStringList(ctx, model.ConfigContentTypes)
	if err != nil {
		return model.MatchConfig{}, fmt.Errorf("读取内容类型失败: %w", err)
	}
	return model.MatchConfig{BlockWords: blockWords, ContentTypes: contentTypes}, nil
}
