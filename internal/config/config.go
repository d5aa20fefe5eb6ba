package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 存储类型
const (
	StoreREST     = "rest"     // Supabase / PostgREST
	StorePGX      = "pgx"      // PostgreSQL 原生连接池
	StorePostgres = "postgres" // database/sql + lib/pq
	StoreMySQL    = "mysql"    // database/sql + go-sql-driver/mysql
	StoreMemory   = "memory"   // 进程内存储，仅用于开发
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 3001
}

// StoreConfig 定义外部数据存储的访问配置
type StoreConfig struct {
	Type    string        // 存储类型: rest, pgx, postgres, mysql, memory
	URL     string        // REST 端点地址
	Key     string        // REST 访问凭证
	Schema  string        // REST schema，默认 public
	Timeout time.Duration // REST 请求超时
}

// DatabaseConfig 定义数据库连接配置（pgx / postgres / mysql 存储类型使用）
type DatabaseConfig struct {
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// RedisConfig 定义 Redis 配置，地址为空时不启用
type RedisConfig struct {
	Address  string // Redis 服务地址，格式 "host:port"
	Password string // Redis 认证密码，留空表示无密码
	DB       int    // Redis 数据库编号，默认 0
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空只输出到控制台
}

// MetricsConfig 定义监控指标配置
type MetricsConfig struct {
	Enabled bool // 是否暴露 /metrics
}

// Config 是系统核心配置的根结构体
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// Address 返回 HTTP 监听地址
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: PRIVATEINBOX_，例如 PRIVATEINBOX_SERVER_PORT。
// 同时兼容 PORT、SUPABASE_URL、SUPABASE_ANON_KEY。
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("privateinbox")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "PRIVATEINBOX_SERVER_PORT", "PORT")
	_ = v.BindEnv("store.url", "PRIVATEINBOX_STORE_URL", "SUPABASE_URL")
	_ = v.BindEnv("store.key", "PRIVATEINBOX_STORE_KEY", "SUPABASE_ANON_KEY")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("store.type", StoreREST)
	v.SetDefault("store.url", "")
	v.SetDefault("store.key", "")
	v.SetDefault("store.schema", "public")
	v.SetDefault("store.timeout", "10s")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.enabled", true)

	port := v.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid server.port: %d", port)
	}

	storeType := strings.ToLower(strings.TrimSpace(v.GetString("store.type")))
	switch storeType {
	case StoreREST, StorePGX, StorePostgres, StoreMySQL, StoreMemory:
	default:
		return nil, fmt.Errorf("unsupported store.type: %q (supported: rest, pgx, postgres, mysql, memory)", storeType)
	}

	timeout, err := time.ParseDuration(v.GetString("store.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid store.timeout: %w", err)
	}

	dsn := v.GetString("database.dsn")
	if (storeType == StorePGX || storeType == StorePostgres || storeType == StoreMySQL) && dsn == "" {
		return nil, fmt.Errorf("database.dsn is required for store.type %q", storeType)
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("database.conn_max_lifetime"))
	if err != nil {
		return nil, fmt.Errorf("invalid database.conn_max_lifetime: %w", err)
	}

	corsOrigins := parseList(v.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: port,
		},
		Store: StoreConfig{
			Type:    storeType,
			URL:     strings.TrimSpace(v.GetString("store.url")),
			Key:     v.GetString("store.key"),
			Schema:  v.GetString("store.schema"),
			Timeout: timeout,
		},
		Database: DatabaseConfig{
			DSN:             dsn,
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			File:        v.GetString("log.file"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
//
// 参数:
//   - value: 逗号分隔的字符串，如 "item1,item2,item3"
//
// 返回值:
//   - []string: 解析后的字符串切片，已去除空白字符
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env
//
// 文件不存在时静默跳过，已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
