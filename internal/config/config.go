package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // 数据库配置
	Upload   UploadConfig   `mapstructure:"upload"`   // 上传配置
	Stats    StatsConfig    `mapstructure:"stats"`    // 统计重算配置
	Match    MatchConfig    `mapstructure:"match"`    // 匹配配置默认值
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`             // 服务端口
	Mode            string        `mapstructure:"mode"`             // Gin运行模式：debug/release/test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // 退出时等待处理中请求的最长时间
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`            // postgres / memory
	DSN             string        `mapstructure:"dsn"`               // 连接DSN（URL 形式）
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogLevel        string        `mapstructure:"log_level"`         // GORM日志级别：silent/error/warn/info
}

// UploadConfig 上传配置
type UploadConfig struct {
	Dir       string `mapstructure:"dir"`         // 上传文件保存目录
	MaxSizeMB int    `mapstructure:"max_size_mb"` // 单文件大小上限
	BatchSize int    `mapstructure:"batch_size"`  // 数据行批量写入条数
	Sheet     string `mapstructure:"sheet"`       // 读取的工作表，空为第一张
}

// StatsConfig 统计重算配置
type StatsConfig struct {
	QueueSize int `mapstructure:"queue_size"` // 最多排队的重算触发数
}

// MatchConfig 系统配置为空时写入的默认值
type MatchConfig struct {
	BlockWords   []string `mapstructure:"block_words"`
	ContentTypes []string `mapstructure:"content_types"`
}

// MaxUploadBytes 单文件大小上限（字节）
func (u *UploadConfig) MaxUploadBytes() int64 {
	return int64(u.MaxSizeMB) << 20
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录读取 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.max_size_mb", 100)
	v.SetDefault("upload.batch_size", 100)
	v.SetDefault("stats.queue_size", 1)
}

// overrideFromEnv 用环境变量覆盖部署相关配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Upload.Dir = v
	}
}
