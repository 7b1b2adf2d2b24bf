package model

import (
	"time"

	"gorm.io/datatypes"
)

// system_configs 中的配置键
const (
	ConfigBlockWords           = "blockWords"
	ConfigContentTypes         = "contentTypes"
	ConfigDisabledContentTypes = "disabledContentTypes"
)

// SystemConfig 管理员可编辑的键值配置，value 为 JSON 字符串数组
type SystemConfig struct {
	Key       string         `gorm:"column:key;type:varchar(64);primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb;not null" json:"value"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (SystemConfig) TableName() string { return "system_configs" }

// MatchConfig 单次重算使用的匹配配置快照
type MatchConfig struct {
	BlockWords   []string
	ContentTypes []string
}
