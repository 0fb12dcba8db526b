package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	HTTPClient HTTPClientConfig
	Cache      CacheConfig
	Tracing    TracingConfig
	Chains     ChainsConfig
	Monitor    MonitorConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string
	Version  string
	Port     int
	GRPCPort int
	Env      string // development, staging, production
	LogLevel string
	// 入站限流, 每个客户端IP每秒请求数
	RateLimitRPS   float64
	RateLimitBurst int
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled      bool
	Driver       string // postgres, sqlite
	SQLitePath   string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxIdleConns int
	MaxOpenConns int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret string
}

// HTTPClientConfig 上游HTTP客户端配置
type HTTPClientConfig struct {
	Timeout      time.Duration
	RetryMax     int // 默认0, 重试策略交给调用方
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	HostRPS      float64
	HostBurst    int
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Backend string // memory, redis
	TTL     time.Duration
}

// TracingConfig OpenTelemetry配置
type TracingConfig struct {
	Endpoint    string
	ServiceName string
}

// ChainsConfig 各链上游地址
type ChainsConfig struct {
	// Cosmos 链 REST 地址覆盖, key 为链标识 (gaia, osmosis ...)
	CosmosOverrides map[string]string
	Tron            TronConfig
	Maya            MayaConfig
}

// TronConfig 波场配置
type TronConfig struct {
	APIURL     string
	APIKey     string
	JSONRPCURL string
}

// MayaConfig MayaChain配置
type MayaConfig struct {
	NodeURL    string
	MidgardURL string
	ClientID   string
}

// MonitorConfig 链头探测配置
type MonitorConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Load 加载配置
func Load() *Config {
	return &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "chain-gateway"),
			Version:        getEnv("APP_VERSION", "1.0.0"),
			Port:           getEnvInt("APP_PORT", 8080),
			GRPCPort:       getEnvInt("APP_GRPC_PORT", 8081),
			Env:            getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", ""),
			RateLimitRPS:   getEnvFloat("API_RATE_LIMIT_RPS", 20),
			RateLimitBurst: getEnvInt("API_RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvBool("DB_ENABLED", false),
			Driver:       getEnv("DB_DRIVER", "postgres"),
			SQLitePath:   getEnv("DB_SQLITE_PATH", "chain-gateway.db"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "chain_gateway"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 20),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		HTTPClient: HTTPClientConfig{
			Timeout:      getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
			RetryMax:     getEnvInt("HTTP_RETRY_MAX", 0),
			RetryWaitMin: getEnvDuration("HTTP_RETRY_WAIT_MIN", 500*time.Millisecond),
			RetryWaitMax: getEnvDuration("HTTP_RETRY_WAIT_MAX", 3*time.Second),
			HostRPS:      getEnvFloat("HTTP_HOST_RPS", 10),
			HostBurst:    getEnvInt("HTTP_HOST_BURST", 20),
		},
		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", "memory"),
			TTL:     getEnvDuration("CACHE_TTL", 300*time.Second),
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "chain-gateway"),
		},
		Chains: ChainsConfig{
			CosmosOverrides: getEnvMap("COSMOS_REST_OVERRIDES"),
			Tron: TronConfig{
				APIURL:     getEnv("TRON_API_URL", "https://go.getblock.asia/074e5f95441a40039aa3da010322ecbb"),
				APIKey:     getEnv("TRON_API_KEY", ""),
				JSONRPCURL: getEnv("TRON_JSONRPC_URL", "https://api.vultisig.com/tron/jsonrpc"),
			},
			Maya: MayaConfig{
				NodeURL:    getEnv("MAYA_NODE_URL", "https://mayanode.mayachain.info"),
				MidgardURL: getEnv("MAYA_MIDGARD_URL", "https://midgard.mayachain.info"),
				ClientID:   getEnv("MAYA_CLIENT_ID", "vultisig"),
			},
		},
		Monitor: MonitorConfig{
			Interval: getEnvDuration("MONITOR_INTERVAL", 30*time.Second),
			Timeout:  getEnvDuration("MONITOR_TIMEOUT", 10*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvMap 解析 "k1=v1,k2=v2" 形式
func getEnvMap(key string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(os.Getenv(key), ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
