package model

import (
	"time"
)

// 上传任务状态
const (
	TaskPending    = "pending"
	TaskValidating = "validating"
	TaskParsing    = "parsing"
	TaskMatching   = "matching"
	TaskDone       = "done"
	TaskError      = "error"
)

// ExcelUpload 一次上传即一个期次
type ExcelUpload struct {
	ID         string    `gorm:"column:id;type:varchar(36);primaryKey;comment:上传ID" json:"id"`
	Filename   string    `gorm:"column:filename;type:varchar(256);not null;comment:原始文件名" json:"filename"`
	Period     string    `gorm:"column:period;type:varchar(64);not null;comment:数据期次" json:"period"`
	RowCount   int       `gorm:"column:row_count;type:int;default:0;comment:数据行数" json:"row_count"`
	UploadedBy string    `gorm:"column:uploaded_by;type:varchar(64);comment:上传人" json:"uploaded_by"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime;comment:上传时间" json:"created_at"`
}

func (ExcelUpload) TableName() string { return "excel_uploads" }

// UploadTask 上传后台处理进度
type UploadTask struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	UploadID  string    `gorm:"column:upload_id;type:varchar(36);uniqueIndex;not null" json:"upload_id"`
	Status    string    `gorm:"column:status;type:varchar(16);default:pending" json:"status"`
	Progress  int       `gorm:"column:progress;type:int;default:0" json:"progress"`
	Total     int       `gorm:"column:total;type:int;default:0" json:"total"`
	Message   string    `gorm:"column:message;type:varchar(256)" json:"message"`
	Error     *string   `gorm:"column:error;type:text" json:"error"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UploadTask) TableName() string { return "upload_tasks" }

// RowMetrics 表格中的原始指标，任一列均可为空
type RowMetrics struct {
	TotalCost         *float64 `gorm:"column:total_cost;type:numeric(18,4)" json:"total_cost"`
	Impressions       *float64 `gorm:"column:impressions;type:numeric(18,4)" json:"impressions"`
	ClickRate         *float64 `gorm:"column:click_rate;type:numeric(12,6)" json:"click_rate"`
	PlayRate3s        *float64 `gorm:"column:play_rate3s;type:numeric(12,6)" json:"play_rate3s"`
	PlayRate          *float64 `gorm:"column:play_rate;type:numeric(12,6)" json:"play_rate"`
	ConversionRate    *float64 `gorm:"column:conversion_rate;type:numeric(12,6)" json:"conversion_rate"`
	Clicks            *float64 `gorm:"column:clicks;type:numeric(18,4)" json:"clicks"`
	Customers         *float64 `gorm:"column:customers;type:numeric(18,4)" json:"customers"`
	LowCourseCount    *float64 `gorm:"column:low_course_count;type:numeric(18,4)" json:"low_course_count"`
	LandingConvRate   *float64 `gorm:"column:landing_conv_rate;type:numeric(12,6)" json:"landing_conv_rate"`
	LowCourseRevenue  *float64 `gorm:"column:low_course_revenue;type:numeric(18,4)" json:"low_course_revenue"`
	WechatFollowers   *float64 `gorm:"column:wechat_followers;type:numeric(18,4)" json:"wechat_followers"`
	WechatFollowRate  *float64 `gorm:"column:wechat_follow_rate;type:numeric(12,6)" json:"wechat_follow_rate"`
	Activations       *float64 `gorm:"column:activations;type:numeric(18,4)" json:"activations"`
	ActivationRate    *float64 `gorm:"column:activation_rate;type:numeric(12,6)" json:"activation_rate"`
	Additions         *float64 `gorm:"column:additions;type:numeric(18,4)" json:"additions"`
	AdditionRate      *float64 `gorm:"column:addition_rate;type:numeric(12,6)" json:"addition_rate"`
	GroupJoins        *float64 `gorm:"column:group_joins;type:numeric(18,4)" json:"group_joins"`
	GroupJoinRate     *float64 `gorm:"column:group_join_rate;type:numeric(12,6)" json:"group_join_rate"`
	Day1PlayRate      *float64 `gorm:"column:day1_play_rate;type:numeric(12,6)" json:"day1_play_rate"`
	Day2PlayRate      *float64 `gorm:"column:day2_play_rate;type:numeric(12,6)" json:"day2_play_rate"`
	Day3PlayRate      *float64 `gorm:"column:day3_play_rate;type:numeric(12,6)" json:"day3_play_rate"`
	Day4PlayRate      *float64 `gorm:"column:day4_play_rate;type:numeric(12,6)" json:"day4_play_rate"`
	Day5PlayRate      *float64 `gorm:"column:day5_play_rate;type:numeric(12,6)" json:"day5_play_rate"`
	DeepUsers         *float64 `gorm:"column:deep_users;type:numeric(18,4)" json:"deep_users"`
	DeepRate          *float64 `gorm:"column:deep_rate;type:numeric(12,6)" json:"deep_rate"`
	Day3DeepPlayRate  *float64 `gorm:"column:day3_deep_play_rate;type:numeric(12,6)" json:"day3_deep_play_rate"`
	Day3DeepConvRate  *float64 `gorm:"column:day3_deep_conv_rate;type:numeric(12,6)" json:"day3_deep_conv_rate"`
	HighCourseCount   *float64 `gorm:"column:high_course_count;type:numeric(18,4)" json:"high_course_count"`
	HighCoursePayRate *float64 `gorm:"column:high_course_pay_rate;type:numeric(12,6)" json:"high_course_pay_rate"`
	Day3HighCourse    *float64 `gorm:"column:day3_high_course;type:numeric(18,4)" json:"day3_high_course"`
	Day4HighCourse    *float64 `gorm:"column:day4_high_course;type:numeric(18,4)" json:"day4_high_course"`
	Day5HighCourse    *float64 `gorm:"column:day5_high_course;type:numeric(18,4)" json:"day5_high_course"`
	HighCourseRevenue *float64 `gorm:"column:high_course_revenue;type:numeric(18,4)" json:"high_course_revenue"`
	Refunds           *float64 `gorm:"column:refunds;type:numeric(18,4)" json:"refunds"`
	RefundRate        *float64 `gorm:"column:refund_rate;type:numeric(12,6)" json:"refund_rate"`
}

// SpendRow 上传表格中的一行投放数据（入库后不可变）
type SpendRow struct {
	ID           uint64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UploadID     string  `gorm:"column:upload_id;type:varchar(36);index;not null;comment:所属上传" json:"upload_id"`
	RowIndex     int     `gorm:"column:row_index;type:int;comment:表格行号" json:"row_index"`
	MaterialName string  `gorm:"column:material_name;type:varchar(512);not null;comment:素材名" json:"material_name"`
	DeliveryDate *string `gorm:"column:delivery_date;type:varchar(64);comment:投放时间" json:"delivery_date"`
	Channel      *string `gorm:"column:channel;type:varchar(64);comment:广告渠道" json:"channel"`
	RowMetrics   `gorm:"embedded"`
}

func (SpendRow) TableName() string { return "excel_rows" }
