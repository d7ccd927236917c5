package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var GlobalConfig *Config

// Config 全局配置
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Log          LogConfig          `mapstructure:"log"`
	Sidecar      SidecarConfig      `mapstructure:"sidecar"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Agent        AgentConfig        `mapstructure:"agent"`
	Heartbeat    HeartbeatConfig    `mapstructure:"heartbeat"`
	Publish      PublishConfig      `mapstructure:"publish"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	Notification NotificationConfig `mapstructure:"notification"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
	// PublicURL 对外访问地址, 用于生成 helm repo add 命令
	PublicURL string `mapstructure:"public_url"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // mysql, postgres, sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"` // 仅postgres
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level"`         // SQL日志级别: silent/error/warn/info
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
	// APIToken 管理接口的静态 Bearer Token, 为空时不校验
	APIToken string `mapstructure:"api_token"`
}

// JWTConfig agent token 签名配置
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`  // debug, info, warn, error
	Format   string `mapstructure:"format"` // json, console
	Output   string `mapstructure:"output"` // stdout, file
	FilePath string `mapstructure:"file_path"`
}

// SidecarConfig chart 构建 sidecar 配置
type SidecarConfig struct {
	Address  string        `mapstructure:"address"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Insecure bool          `mapstructure:"insecure"` // 集群内明文连接
	Mock     bool          `mapstructure:"mock"`     // 本地开发时不连接sidecar
}

// StorageConfig helm 仓库对象存储配置
type StorageConfig struct {
	Driver          string `mapstructure:"driver"` // gcs, memory
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// AgentConfig 随 chart 下发的 agent 服务配置
type AgentConfig struct {
	Name           string `mapstructure:"name"`
	Image          string `mapstructure:"image"`
	Tag            string `mapstructure:"tag"`
	BackendAddress string `mapstructure:"backend_address"`
	CPUCores       int    `mapstructure:"cpu_cores"`
	MemoryBytes    int64  `mapstructure:"memory_bytes"`
	DiskBytes      int64  `mapstructure:"disk_bytes"`
	MountPath      string `mapstructure:"mount_path"`
}

// HeartbeatConfig 心跳配置
type HeartbeatConfig struct {
	WindowDays    int    `mapstructure:"window_days"`
	RetentionDays int    `mapstructure:"retention_days"`
	PruneCron     string `mapstructure:"prune_cron"`
	Location      string `mapstructure:"location"` // 按天统计使用的时区
}

// PublishConfig 发布配置
type PublishConfig struct {
	StuckTimeout time.Duration `mapstructure:"stuck_timeout"`
	SweepCron    string        `mapstructure:"sweep_cron"`
}

// RateLimitConfig agent 接口限流配置
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redis_addr"` // 为空时使用进程内限流
	RedisDB   int           `mapstructure:"redis_db"`
	Limit     int           `mapstructure:"limit"`
	Window    time.Duration `mapstructure:"window"`
}

// NotificationConfig 通知配置
type NotificationConfig struct {
	Enabled     bool   `mapstructure:"enabled"`      // 是否启用
	Provider    string `mapstructure:"provider"`     // 通知渠道: lark, log
	LarkWebhook string `mapstructure:"lark_webhook"` // Lark Webhook
	LarkSecret  string `mapstructure:"lark_secret"`  // 机器人签名密钥, 可选
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// 读取环境变量, 如 ONPREM_DATABASE_PASSWORD
	v.SetEnvPrefix("onprem")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析配置
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 设置全局配置
	GlobalConfig = config

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "onprem-cd")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.public_url", "http://localhost:8080")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("auth.jwt.issuer", "onprem-cd")

	v.SetDefault("sidecar.address", "localhost:50051")
	v.SetDefault("sidecar.timeout", 30*time.Second)
	v.SetDefault("sidecar.insecure", true)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.bucket", "onprem-ctx")

	v.SetDefault("agent.name", "onprem-agent")
	v.SetDefault("agent.image", "ghcr.io/contextco/shepherd")
	v.SetDefault("agent.tag", "master")
	v.SetDefault("agent.backend_address", "https://agent.trustshepherd.com")
	v.SetDefault("agent.cpu_cores", 1)
	v.SetDefault("agent.memory_bytes", 2<<30)
	v.SetDefault("agent.disk_bytes", 1<<30)
	v.SetDefault("agent.mount_path", "/mnt/data")

	v.SetDefault("heartbeat.window_days", 90)
	v.SetDefault("heartbeat.retention_days", 91)
	v.SetDefault("heartbeat.prune_cron", "0 30 3 * * *")
	v.SetDefault("heartbeat.location", "UTC")

	v.SetDefault("publish.stuck_timeout", 15*time.Minute)
	v.SetDefault("publish.sweep_cron", "0 */5 * * * *")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.limit", 120)
	v.SetDefault("ratelimit.window", time.Minute)

	v.SetDefault("notification.provider", "log")
}

// GetDSN 获取数据库DSN
func (c *DatabaseConfig) GetDSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
	case "sqlite":
		// sqlite 时 database 为文件路径, 例如 file::memory:?cache=shared
		return c.Database
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.Username,
			c.Password,
			c.Host,
			c.Port,
			c.Database,
		)
	}
}

// GetLocation 心跳按天统计的时区, 解析失败时退回UTC
func (c *HeartbeatConfig) GetLocation() *time.Location {
	if c.Location == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}
