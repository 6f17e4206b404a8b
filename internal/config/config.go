package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	AI         AIConfig
	Security   SecurityConfig
	Classifier ClassifierConfig
	Analytics  AnalyticsConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig 数据库配置（本地 SQLite 文件）
type DatabaseConfig struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AIConfig AI配置
type AIConfig struct {
	Provider            string
	OpenAI              OpenAIConfig
	DeepSeek            DeepSeekConfig
	ConfidenceThreshold float64
}

// OpenAIConfig OpenAI配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// DeepSeekConfig DeepSeek配置
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	KeyDir             string
	AuditLogPath       string
	KeyRotationDays    int
	DataRetentionDays  int
	MaxInputLength     int
	EnableRateLimiting bool
	MaxQueriesPerHour  int
	AdminUser          string
	AdminPassword      string
}

// ClassifierConfig 分类器配置
type ClassifierConfig struct {
	ModelDir     string
	DatasetPath  string
	MaxFeatures  int
	TestSplit    float64
	Epochs       int
	LearningRate float64
	Seed         int64
}

// AnalyticsConfig 分析配置
type AnalyticsConfig struct {
	StaticDir     string
	RecentQueries int
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("INSURE_AI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "insure-ai")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5002)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database
	v.SetDefault("database.path", "data/queries.db")
	v.SetDefault("database.maxOpenConns", 1)
	v.SetDefault("database.maxIdleConns", 1)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// AI
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.confidenceThreshold", 0.05)

	// Security
	v.SetDefault("security.keyDir", "keys")
	v.SetDefault("security.auditLogPath", "logs/audit.log")
	v.SetDefault("security.keyRotationDays", 90)
	// HIPAA 要求保留 7 年
	v.SetDefault("security.dataRetentionDays", 2555)
	v.SetDefault("security.maxInputLength", 1000)
	v.SetDefault("security.enableRateLimiting", true)
	v.SetDefault("security.maxQueriesPerHour", 100)
	v.SetDefault("security.adminUser", "admin")

	// Classifier
	v.SetDefault("classifier.modelDir", "models")
	v.SetDefault("classifier.datasetPath", "data/insurance_qa.csv")
	v.SetDefault("classifier.maxFeatures", 1000)
	v.SetDefault("classifier.testSplit", 0.3)
	v.SetDefault("classifier.epochs", 400)
	v.SetDefault("classifier.learningRate", 0.5)
	v.SetDefault("classifier.seed", 42)

	// Analytics
	v.SetDefault("analytics.staticDir", "static")
	v.SetDefault("analytics.recentQueries", 10)
}
