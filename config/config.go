package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 存储模式
const (
	StorageRemote = "remote" // PostgreSQL（多用户，经网关注入用户 ID）
	StorageLocal  = "local"  // 本地 SQLite 文件（单用户）
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Roadmap  RoadmapConfig  `mapstructure:"roadmap"`
	Import   ImportConfig   `mapstructure:"import"`
	Calendar CalendarConfig `mapstructure:"calendar"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// StorageConfig 存储后端选择
type StorageConfig struct {
	Mode      string `mapstructure:"mode"`
	LocalPath string `mapstructure:"local_path"`
	LocalUser string `mapstructure:"local_user"` // 本地模式下的固定用户 ID
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
	LogSQL          bool   `mapstructure:"log_sql"`
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置（可选，连接失败时降级为无缓存）
type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	RoadmapTTL time.Duration `mapstructure:"roadmap_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RoadmapConfig 路线图布局常量（像素）
type RoadmapConfig struct {
	DayPx   int `mapstructure:"day_px"`
	CardW   int `mapstructure:"card_w"`
	CardH   int `mapstructure:"card_h"`
	CardGap int `mapstructure:"card_gap"`
	LabelW  int `mapstructure:"label_w"`
	LanePad int `mapstructure:"lane_pad"`
	MinGap  int `mapstructure:"min_gap"`
}

// ImportConfig 导入限制
type ImportConfig struct {
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	RateLimit    int   `mapstructure:"rate_limit"`  // 每窗口最多请求数
	RateWindow   int   `mapstructure:"rate_window"` // 窗口长度（秒）
}

// CalendarConfig 日历导入导出
type CalendarConfig struct {
	Timezone  string `mapstructure:"timezone"`
	ProductID string `mapstructure:"product_id"`
	UIDDomain string `mapstructure:"uid_domain"`
}

// Location 解析日历时区，无效时回退 UTC
func (c *CalendarConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("storage.mode", StorageRemote)
	v.SetDefault("storage.local_path", "planner.db")
	v.SetDefault("storage.local_user", "local")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "uoc_planner")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Europe/Madrid")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.log_sql", false)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.roadmap_ttl", "10m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("roadmap.day_px", 18)
	v.SetDefault("roadmap.card_w", 260)
	v.SetDefault("roadmap.card_h", 70)
	v.SetDefault("roadmap.card_gap", 8)
	v.SetDefault("roadmap.label_w", 280)
	v.SetDefault("roadmap.lane_pad", 12)
	v.SetDefault("roadmap.min_gap", 10)

	v.SetDefault("import.max_body_bytes", 2<<20) // 2MB
	v.SetDefault("import.rate_limit", 10)
	v.SetDefault("import.rate_window", 60)

	v.SetDefault("calendar.timezone", "Europe/Madrid")
	v.SetDefault("calendar.product_id", "-//uoc-planner//deadlines//ES")
	v.SetDefault("calendar.uid_domain", "uoc-planner")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Storage.Mode {
	case StorageRemote:
	case StorageLocal:
		if strings.TrimSpace(c.Storage.LocalPath) == "" {
			return fmt.Errorf("配置校验失败: 本地模式下 storage.local_path 不能为空")
		}
		if strings.TrimSpace(c.Storage.LocalUser) == "" {
			return fmt.Errorf("配置校验失败: 本地模式下 storage.local_user 不能为空")
		}
	default:
		return fmt.Errorf("配置校验失败: storage.mode 必须是 %s 或 %s", StorageRemote, StorageLocal)
	}
	r := c.Roadmap
	if r.DayPx <= 0 || r.CardW <= 0 || r.CardH <= 0 || r.CardGap <= 0 || r.LabelW <= 0 || r.LanePad <= 0 || r.MinGap <= 0 {
		return fmt.Errorf("配置校验失败: roadmap 像素常量必须为正数")
	}
	if c.Import.MaxBodyBytes <= 0 {
		return fmt.Errorf("配置校验失败: import.max_body_bytes 必须为正数")
	}
	return nil
}
