// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const minSecretLength = 32

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	Auth      AuthConfig      `koanf:"auth"`
	APIKey    APIKeyConfig    `koanf:"api_key"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// JWTConfig holds the two independent HMAC secrets. Access and refresh
// tokens are never verified with each other's secret.
type JWTConfig struct {
	AccessSecret       string        `koanf:"access_secret"`
	RefreshSecret      string        `koanf:"refresh_secret"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
	ClockSkew          time.Duration `koanf:"clock_skew"`
}

type AuthConfig struct {
	DisableAuth        bool          `koanf:"disable_auth"`
	Bypass             BypassConfig  `koanf:"bypass"`
	LoginMaxAttempts   int           `koanf:"login_max_attempts"`
	LoginLockoutWindow time.Duration `koanf:"login_lockout_window"`
	ResetTokenTTL      time.Duration `koanf:"reset_token_ttl"`
}

// BypassConfig describes the synthetic identity used when DisableAuth is set.
type BypassConfig struct {
	UserID      string   `koanf:"user_id"`
	UserEmail   string   `koanf:"user_email"`
	Role        string   `koanf:"role"`
	CompanyID   string   `koanf:"company_id"`
	CompanySlug string   `koanf:"company_slug"`
	CompanyName string   `koanf:"company_name"`
	Permissions []string `koanf:"permissions"`
}

type APIKeyConfig struct {
	Header     string `koanf:"header"`
	HashSecret string `koanf:"hash_secret"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if err := normalizeDurations(k, dayDurationKeys...); err != nil {
		return nil, err
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "core-service",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             3001,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "7d",
		"jwt.issuer":               "core-service",
		"jwt.audience":             "terminar-apps",
		"jwt.clock_skew":           "5s",

		"auth.disable_auth":         false,
		"auth.bypass.user_id":       "00000000-0000-0000-0000-000000000000",
		"auth.bypass.user_email":    "dev@bypass.local",
		"auth.bypass.role":          "system_admin",
		"auth.bypass.company_slug":  "dev-company",
		"auth.bypass.company_name":  "Development Company",
		"auth.bypass.permissions":   []string{"users:read", "users:write"},
		"auth.login_max_attempts":   5,
		"auth.login_lockout_window": "15m",
		"auth.reset_token_ttl":      "1h",

		"api_key.header": "X-API-Key",

		"rate_limit.requests":      100,
		"rate_limit.window":        "1m",
		"rate_limit.burst":         20,
		"rate_limit.auth_requests": 20,
		"rate_limit.auth_burst":    5,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-API-Key",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "core-service",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"NODE_ENV":                    "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_SECRET":                  "jwt.access_secret",
	"JWT_REFRESH_SECRET":          "jwt.refresh_secret",
	"JWT_EXPIRES_IN":              "jwt.access_token_expire",
	"JWT_REFRESH_EXPIRES_IN":      "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"JWT_CLOCK_SKEW":              "jwt.clock_skew",
	"DISABLE_AUTH":                "auth.disable_auth",
	"DISABLE_AUTH_USER_ID":        "auth.bypass.user_id",
	"DISABLE_AUTH_USER_EMAIL":     "auth.bypass.user_email",
	"DISABLE_AUTH_ROLE":           "auth.bypass.role",
	"DISABLE_AUTH_COMPANY_ID":     "auth.bypass.company_id",
	"DISABLE_AUTH_COMPANY_SLUG":   "auth.bypass.company_slug",
	"DISABLE_AUTH_COMPANY_NAME":   "auth.bypass.company_name",
	"LOGIN_MAX_ATTEMPTS":          "auth.login_max_attempts",
	"LOGIN_LOCKOUT_WINDOW":        "auth.login_lockout_window",
	"RESET_TOKEN_TTL":             "auth.reset_token_ttl",
	"API_KEY_HEADER":              "api_key.header",
	"API_KEY_HASH_SECRET":         "api_key.hash_secret",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_AUTH_REQUESTS":    "rate_limit.auth_requests",
	"RATE_LIMIT_AUTH_BURST":       "rate_limit.auth_burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"METRICS_ENABLED":             "metrics.enabled",
	"METRICS_PATH":                "metrics.path",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

// Token lifetimes are commonly written as "7d" by operators.
var dayDurationKeys = []string{
	"jwt.access_token_expire",
	"jwt.refresh_token_expire",
	"auth.login_lockout_window",
	"auth.reset_token_ttl",
}

func normalizeDurations(k *koanf.Koanf, keys ...string) error {
	for _, key := range keys {
		raw := k.String(key)
		if raw == "" {
			continue
		}

		d, err := ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}

		if err := k.Set(key, d.String()); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

// ParseDuration accepts Go duration syntax plus a whole-day "Nd" suffix.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if len(c.JWT.AccessSecret) < minSecretLength {
		return fmt.Errorf(
			"JWT_SECRET must be at least %d characters",
			minSecretLength,
		)
	}

	if len(c.JWT.RefreshSecret) < minSecretLength {
		return fmt.Errorf(
			"JWT_REFRESH_SECRET must be at least %d characters",
			minSecretLength,
		)
	}

	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	if c.JWT.AccessTokenExpire <= 0 || c.JWT.RefreshTokenExpire <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}

	if c.APIKey.HashSecret == "" {
		return fmt.Errorf("API_KEY_HASH_SECRET is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.IsProduction() {
		if c.Auth.DisableAuth {
			return fmt.Errorf("DISABLE_AUTH cannot be enabled in production")
		}

		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Auth.LoginMaxAttempts < 1 {
		return fmt.Errorf("auth.login_max_attempts must be at least 1")
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
