// Package config provides configuration management for XZepr.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like DATABASE_URL, SERVER_PORT)
// 3. Default values
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	River     RiverConfig     `mapstructure:"river"`
	Security  SecurityConfig  `mapstructure:"security"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	OIDC      OIDCConfig      `mapstructure:"oidc"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	BodyLimitBytes  int64         `mapstructure:"body_limit_bytes"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// RiverConfig contains River Queue settings for periodic maintenance jobs.
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
	CacheEvictionInterval       time.Duration `mapstructure:"cache_eviction_interval"`
	BlacklistPruneInterval      time.Duration `mapstructure:"blacklist_prune_interval"`
}

// SecurityConfig contains security-related settings.
type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
	SessionSecret string `mapstructure:"session_secret"`
	// PasswordHashCost is the Argon2id time cost used for local-provider users.
	PasswordHashCost int `mapstructure:"password_hash_cost"`
}

// BrokerConfig configures the Kafka producer (spec.md §4.6, §6).
type BrokerConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`

	// SecurityProtocol is one of: plaintext, sasl_plaintext, sasl_ssl, ssl.
	// Missing/empty means no-auth (plaintext).
	SecurityProtocol string `mapstructure:"security_protocol"`
	// SASLMechanism is one of: PLAIN, SCRAM-SHA-256, SCRAM-SHA-512, GSSAPI, OAUTHBEARER.
	SASLMechanism  string `mapstructure:"sasl_mechanism"`
	SASLUsername   string `mapstructure:"sasl_username"`
	SASLPassword   string `mapstructure:"sasl_password"`
	SSLCALocation   string `mapstructure:"ssl_ca_location"`
	SSLCertLocation string `mapstructure:"ssl_cert_location"`
	SSLKeyLocation  string `mapstructure:"ssl_key_location"`

	PublishDeadline time.Duration `mapstructure:"publish_deadline"`
}

// brokerEnvOverrides loads the seven KAFKA_* variables named in spec.md §6 on top of
// whatever viper already populated, so BrokerConfig can be read either from
// config.yaml/broker.* or from the conventional KAFKA_* env names.
func brokerEnvOverrides(v *viper.Viper, cfg *BrokerConfig) {
	if s := v.GetString("KAFKA_SECURITY_PROTOCOL"); s != "" {
		cfg.SecurityProtocol = s
	}
	if s := v.GetString("KAFKA_SASL_MECHANISM"); s != "" {
		cfg.SASLMechanism = s
	}
	if s := v.GetString("KAFKA_SASL_USERNAME"); s != "" {
		cfg.SASLUsername = s
	}
	if s := v.GetString("KAFKA_SASL_PASSWORD"); s != "" {
		cfg.SASLPassword = s
	}
	if s := v.GetString("KAFKA_SSL_CA_LOCATION"); s != "" {
		cfg.SSLCALocation = s
	}
	if s := v.GetString("KAFKA_SSL_CERT_LOCATION"); s != "" {
		cfg.SSLCertLocation = s
	}
	if s := v.GetString("KAFKA_SSL_KEY_LOCATION"); s != "" {
		cfg.SSLKeyLocation = s
	}
}

// JWTConfig contains token issuance/verification settings (spec.md §4.7).
type JWTConfig struct {
	Issuer            string        `mapstructure:"issuer"`
	Audience          string        `mapstructure:"audience"`
	Secret            string        `mapstructure:"secret"`
	PrivateKeyPath    string        `mapstructure:"private_key_path"`
	PublicKeyPath     string        `mapstructure:"public_key_path"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `mapstructure:"refresh_token_ttl"`
	Leeway            time.Duration `mapstructure:"leeway"`
	RevocationBackend string        `mapstructure:"revocation_backend"` // "memory" or "redis"
	RedisAddr         string        `mapstructure:"redis_addr"`
}

// OIDCConfig contains OIDC provisioning settings (spec.md §4.8).
type OIDCConfig struct {
	Issuer       string            `mapstructure:"issuer"`
	ClientID     string            `mapstructure:"client_id"`
	ClientSecret string            `mapstructure:"client_secret"`
	RedirectURL  string            `mapstructure:"redirect_url"`
	Scopes       []string          `mapstructure:"scopes"`
	RoleMapping  map[string]string `mapstructure:"role_mapping"`
	SessionTTL   time.Duration     `mapstructure:"session_ttl"`
	SessionStore string            `mapstructure:"session_store"` // "memory" or "redis"
	RedisAddr    string            `mapstructure:"redis_addr"`
}

// PolicyConfig configures the external policy-engine client (spec.md §4.9).
type PolicyConfig struct {
	URL                  string        `mapstructure:"url"`
	Timeout              time.Duration `mapstructure:"timeout"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	CacheMaxEntries       int           `mapstructure:"cache_max_entries"`
	CacheBackend          string        `mapstructure:"cache_backend"` // "memory" or "redis"
	RedisAddr             string        `mapstructure:"redis_addr"`
	BreakerMaxFailures    uint32        `mapstructure:"breaker_max_failures"`
	BreakerCooldown       time.Duration `mapstructure:"breaker_cooldown"`
	BreakerHalfOpenProbes uint32        `mapstructure:"breaker_half_open_probes"`
}

// RateLimitConfig configures the per-key token-bucket limiter (spec.md §1,
// §4.12); buckets refill at the configured rate up to a fixed burst, and no
// sliding window is kept.
type RateLimitConfig struct {
	Backend        string        `mapstructure:"backend"` // "memory" or "redis"
	RedisAddr      string        `mapstructure:"redis_addr"`
	DefaultRPS     float64       `mapstructure:"default_rps"`
	DefaultBurst   int           `mapstructure:"default_burst"`
	AuthRPS        float64       `mapstructure:"auth_rps"`
	AuthBurst      int           `mapstructure:"auth_burst"`
	Window         time.Duration `mapstructure:"window"`
}

// CORSConfig configures allowed origins for the CORS middleware stage.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// TracingConfig configures the OpenTelemetry exporter endpoint.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

var (
	bootstrapLoggerOnce sync.Once
	bootstrapLogger     *zap.Logger
)

// Load reads configuration from file and environment variables.
// No prefix: uses standard names like DATABASE_URL, SERVER_PORT, LOG_LEVEL.
// Maps nested config: database.max_conns → DATABASE_MAX_CONNS.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/xzepr")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	brokerEnvOverrides(v, &cfg.Broker)

	if err := cfg.ensureSecrets(); err != nil {
		return nil, fmt.Errorf("ensure secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors. Exit code 1 in
// cmd/server/main.go corresponds to this returning an error.
func (c *Config) Validate() error {
	if c.Database.DSN() == "" {
		return fmt.Errorf("database: connection information is required")
	}
	if len(c.Broker.Brokers) == 0 {
		return fmt.Errorf("broker.brokers must name at least one broker address")
	}
	if c.Security.SessionSecret == "" {
		return fmt.Errorf("security.session_secret must not be empty")
	}
	if len(c.Security.SessionSecret) < 32 {
		return fmt.Errorf("security.session_secret must be at least 32 characters")
	}
	if c.JWT.Secret == "" && (c.JWT.PrivateKeyPath == "" || c.JWT.PublicKeyPath == "") {
		return fmt.Errorf("jwt: either jwt.secret (HS256) or jwt.private_key_path+public_key_path (RS256) is required")
	}
	return nil
}

// ensureSecrets auto-generates missing secrets on first boot.
func (c *Config) ensureSecrets() error {
	if c.Security.SessionSecret == "" {
		secret, err := generateSecureRandomHex(32)
		if err != nil {
			return fmt.Errorf("auto-generate session secret: %w", err)
		}
		c.Security.SessionSecret = secret
		logBootstrapWarn(
			"auto-generated session_secret; set SECURITY_SESSION_SECRET env var for persistence",
			zap.Int("length", len(secret)),
		)
	}
	if c.Security.EncryptionKey == "" {
		key, err := generateSecureRandomHex(32)
		if err != nil {
			return fmt.Errorf("auto-generate encryption key: %w", err)
		}
		c.Security.EncryptionKey = key
		logBootstrapWarn(
			"auto-generated encryption_key; set SECURITY_ENCRYPTION_KEY env var for persistence",
			zap.Int("length", len(key)),
		)
	}
	return nil
}

func logBootstrapWarn(msg string, fields ...zap.Field) {
	bootstrapLoggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

		l, err := cfg.Build()
		if err != nil {
			bootstrapLogger = zap.NewNop()
			return
		}
		bootstrapLogger = l
	})

	bootstrapLogger.Warn(msg, fields...)
}

// generateSecureRandomHex produces a hex-encoded string of n random bytes.
func generateSecureRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.body_limit_bytes", 1<<20) // 1 MiB, spec.md §4.12

	// Database
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "xzepr")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "xzepr")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 50)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// River (periodic maintenance jobs, not replay/DLQ)
	v.SetDefault("river.max_workers", 5)
	v.SetDefault("river.completed_job_retention_period", "24h")
	v.SetDefault("river.cache_eviction_interval", "60s")
	v.SetDefault("river.blacklist_prune_interval", "1h")

	// Broker
	v.SetDefault("broker.brokers", []string{})
	v.SetDefault("broker.topic", "xzepr.dev.events")
	v.SetDefault("broker.security_protocol", "plaintext")
	v.SetDefault("broker.publish_deadline", "5s")

	// JWT
	v.SetDefault("jwt.issuer", "xzepr")
	v.SetDefault("jwt.audience", "xzepr-api")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.private_key_path", "")
	v.SetDefault("jwt.public_key_path", "")
	v.SetDefault("jwt.access_token_ttl", "15m")
	v.SetDefault("jwt.refresh_token_ttl", "168h")
	v.SetDefault("jwt.leeway", "30s")
	v.SetDefault("jwt.revocation_backend", "memory")

	// OIDC
	v.SetDefault("oidc.scopes", []string{"openid", "profile", "email"})
	v.SetDefault("oidc.session_ttl", "10m")
	v.SetDefault("oidc.session_store", "memory")

	// Policy engine
	v.SetDefault("policy.timeout", "10s")
	v.SetDefault("policy.cache_ttl", "5m")
	v.SetDefault("policy.cache_max_entries", 10000)
	v.SetDefault("policy.cache_backend", "memory")
	v.SetDefault("policy.breaker_max_failures", 5)
	v.SetDefault("policy.breaker_cooldown", "30s")
	v.SetDefault("policy.breaker_half_open_probes", 1)

	// Rate limiting
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.default_rps", 50.0)
	v.SetDefault("rate_limit.default_burst", 100)
	v.SetDefault("rate_limit.auth_rps", 5.0)
	v.SetDefault("rate_limit.auth_burst", 10)
	v.SetDefault("rate_limit.window", "1s")

	// CORS
	v.SetDefault("cors.allowed_origins", []string{})

	// Tracing
	v.SetDefault("tracing.service_name", "xzepr")
	v.SetDefault("tracing.sample_ratio", 0.1)

	// Security
	v.SetDefault("security.session_secret", "")
	v.SetDefault("security.encryption_key", "")
	v.SetDefault("security.password_hash_cost", 12)
}
