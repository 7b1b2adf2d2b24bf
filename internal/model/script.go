package model

import (
	"time"
)

// Script 脚本库：素材匹配的目标，parent_id 指向其迭代来源（可空）
type Script struct {
	ID           string    `gorm:"column:id;type:varchar(36);primaryKey;comment:脚本ID" json:"id"`
	Name         string    `gorm:"column:name;type:varchar(256);uniqueIndex;not null;comment:脚本名（匹配目标）" json:"name"`
	ParentID     *string   `gorm:"column:parent_id;type:varchar(36);index;comment:迭代来源脚本ID" json:"parent_id"`
	FrontContent *string   `gorm:"column:front_content;type:text;comment:前贴内容" json:"front_content"`
	MidContent   *string   `gorm:"column:mid_content;type:text;comment:中段内容" json:"mid_content"`
	EndContent   *string   `gorm:"column:end_content;type:text;comment:尾贴内容" json:"end_content"`
	UploadedBy   string    `gorm:"column:uploaded_by;type:varchar(64);comment:创建人" json:"uploaded_by"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间" json:"updated_at"`

	Stat *ScriptStat `gorm:"foreignKey:ScriptID;references:ID" json:"stat,omitempty"`
}

func (Script) TableName() string { return "scripts" }
