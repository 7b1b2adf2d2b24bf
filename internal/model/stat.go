package model

// Metrics 聚合结果：加算列、平均列（无值时为 nil）与重算比率（分母为 0 时为 nil）
type Metrics struct {
	MatchedRows int `gorm:"column:matched_rows;type:int;comment:参与统计行数" json:"matched_rows"`

	TotalCost         float64 `gorm:"column:total_cost;type:numeric(18,4)" json:"total_cost"`
	Impressions       float64 `gorm:"column:impressions;type:numeric(18,4)" json:"impressions"`
	Clicks            float64 `gorm:"column:clicks;type:numeric(18,4)" json:"clicks"`
	Customers         float64 `gorm:"column:customers;type:numeric(18,4)" json:"customers"`
	Activations       float64 `gorm:"column:activations;type:numeric(18,4)" json:"activations"`
	Additions         float64 `gorm:"column:additions;type:numeric(18,4)" json:"additions"`
	HighCourseRevenue float64 `gorm:"column:high_course_revenue;type:numeric(18,4)" json:"high_course_revenue"`
	LowCourseCount    float64 `gorm:"column:low_course_count;type:numeric(18,4)" json:"low_course_count"`
	LowCourseRevenue  float64 `gorm:"column:low_course_revenue;type:numeric(18,4)" json:"low_course_revenue"`
	WechatFollowers   float64 `gorm:"column:wechat_followers;type:numeric(18,4)" json:"wechat_followers"`
	GroupJoins        float64 `gorm:"column:group_joins;type:numeric(18,4)" json:"group_joins"`
	DeepUsers         float64 `gorm:"column:deep_users;type:numeric(18,4)" json:"deep_users"`
	HighCourseCount   float64 `gorm:"column:high_course_count;type:numeric(18,4)" json:"high_course_count"`
	Day3HighCourse    float64 `gorm:"column:day3_high_course;type:numeric(18,4)" json:"day3_high_course"`
	Day4HighCourse    float64 `gorm:"column:day4_high_course;type:numeric(18,4)" json:"day4_high_course"`
	Day5HighCourse    float64 `gorm:"column:day5_high_course;type:numeric(18,4)" json:"day5_high_course"`
	Refunds           float64 `gorm:"column:refunds;type:numeric(18,4)" json:"refunds"`

	ClickRate         *float64 `gorm:"column:click_rate;type:numeric(12,6)" json:"click_rate"`
	PlayRate3s        *float64 `gorm:"column:play_rate3s;type:numeric(12,6)" json:"play_rate3s"`
	PlayRate          *float64 `gorm:"column:play_rate;type:numeric(12,6)" json:"play_rate"`
	ConversionRate    *float64 `gorm:"column:conversion_rate;type:numeric(12,6)" json:"conversion_rate"`
	LandingConvRate   *float64 `gorm:"column:landing_conv_rate;type:numeric(12,6)" json:"landing_conv_rate"`
	WechatFollowRate  *float64 `gorm:"column:wechat_follow_rate;type:numeric(12,6)" json:"wechat_follow_rate"`
	ActivationRate    *float64 `gorm:"column:activation_rate;type:numeric(12,6)" json:"activation_rate"`
	AdditionRate      *float64 `gorm:"column:addition_rate;type:numeric(12,6)" json:"addition_rate"`
	GroupJoinRate     *float64 `gorm:"column:group_join_rate;type:numeric(12,6)" json:"group_join_rate"`
	Day1PlayRate      *float64 `gorm:"column:day1_play_rate;type:numeric(12,6)" json:"day1_play_rate"`
	Day2PlayRate      *float64 `gorm:"column:day2_play_rate;type:numeric(12,6)" json:"day2_play_rate"`
	Day3PlayRate      *float64 `gorm:"column:day3_play_rate;type:numeric(12,6)" json:"day3_play_rate"`
	Day4PlayRate      *float64 `gorm:"column:day4_play_rate;type:numeric(12,6)" json:"day4_play_rate"`
	Day5PlayRate      *float64 `gorm:"column:day5_play_rate;type:numeric(12,6)" json:"day5_play_rate"`
	DeepRate          *float64 `gorm:"column:deep_rate;type:numeric(12,6)" json:"deep_rate"`
	Day3DeepPlayRate  *float64 `gorm:"column:day3_deep_play_rate;type:numeric(12,6)" json:"day3_deep_play_rate"`
	Day3DeepConvRate  *float64 `gorm:"column:day3_deep_conv_rate;type:numeric(12,6)" json:"day3_deep_conv_rate"`
	HighCoursePayRate *float64 `gorm:"column:high_course_pay_rate;type:numeric(12,6)" json:"high_course_pay_rate"`
	RefundRate        *float64 `gorm:"column:refund_rate;type:numeric(12,6)" json:"refund_rate"`

	CustomerCost      *float64 `gorm:"column:customer_cost;type:numeric(18,6);comment:总成本÷获客数" json:"customer_cost"`
	AvgImpressionCost *float64 `gorm:"column:avg_impression_cost;type:numeric(18,6);comment:总成本÷展示数" json:"avg_impression_cost"`
	AvgClickCost      *float64 `gorm:"column:avg_click_cost;type:numeric(18,6);comment:总成本÷点击数" json:"avg_click_cost"`
	ActivationCost    *float64 `gorm:"column:activation_cost;type:numeric(18,6);comment:总成本÷激活人数" json:"activation_cost"`
	AdditionCost      *float64 `gorm:"column:addition_cost;type:numeric(18,6);comment:总成本÷添加人数" json:"addition_cost"`
	ROI               *float64 `gorm:"column:roi;type:numeric(18,6);comment:高价课流水÷总成本" json:"roi"`
}

// ScriptStat 脚本全量统计（每个脚本至多一条）。
// 统计表只含键与计算结果，不带自增 ID 和时间戳，同样的输入重算后内容完全一致
type ScriptStat struct {
	ScriptID    string `gorm:"column:script_id;type:varchar(36);primaryKey" json:"script_id"`
	UploadCount int    `gorm:"column:upload_count;type:int;comment:计算时的期次总数" json:"upload_count"`
	Metrics     `gorm:"embedded"`
}

func (ScriptStat) TableName() string { return "script_stats" }

// ScriptChannelStat 脚本 × 渠道统计
type ScriptChannelStat struct {
	ScriptID string `gorm:"column:script_id;type:varchar(36);primaryKey" json:"script_id"`
	Channel  string `gorm:"column:channel;type:varchar(64);primaryKey" json:"channel"`
	Metrics  `gorm:"embedded"`
}

func (ScriptChannelStat) TableName() string { return "script_channel_stats" }

// ChannelPeriodStat 渠道 × 期次统计（与脚本匹配无关，每次重算整表替换）
type ChannelPeriodStat struct {
	UploadID string `gorm:"column:upload_id;type:varchar(36);primaryKey" json:"upload_id"`
	Channel  string `gorm:"column:channel;type:varchar(64);primaryKey" json:"channel"`
	Period   string `gorm:"column:period;type:varchar(64);not null" json:"period"`
	Metrics  `gorm:"embedded"`
}

func (ChannelPeriodStat) TableName() string { return "channel_period_stats" }
