package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Lock      LockConfig      `yaml:"lock"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Booking   BookingConfig   `yaml:"booking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RabbitMQConfig enables the lifecycle event publisher when URL is set.
type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// JWTConfig contains settings for validating access tokens issued by the identity service
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	Issuer            string `yaml:"issuer"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// StorageConfig selects the repository backend
type StorageConfig struct {
	Type     string `yaml:"type"`      // "postgres" or "memory"
	SeedFile string `yaml:"seed_file"` // YAML fixture loaded into the memory store
}

// LockConfig selects the per-vehicle lock used while creating reservations
type LockConfig struct {
	Type           string `yaml:"type"` // "postgres", "redis" or "memory"
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	TTLSeconds     int    `yaml:"ttl_seconds"`
	MaxConns       int    `yaml:"max_conns"` // postgres only: size of the pool that holds advisory locks
}

// GatewayConfig contains payment gateway settings
type GatewayConfig struct {
	Type           string `yaml:"type"` // "razorpay" or "mock"
	BaseURL        string `yaml:"base_url"`
	KeyID          string `yaml:"key_id"`
	KeySecret      string `yaml:"key_secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Currency       string `yaml:"currency"`
}

// BookingConfig contains reservation engine settings
type BookingConfig struct {
	IntentSweepAgeMinutes int `yaml:"intent_sweep_age_minutes"`
	SweepBatchSize        int `yaml:"sweep_batch_size"`
	ElapseBatchSize       int `yaml:"elapse_batch_size"`
	// bounds the work done while a vehicle lock is held
	ReservationTimeoutSeconds int `yaml:"reservation_timeout_seconds"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	CompleteElapsedOrders string `yaml:"complete_elapsed_orders"`
	SweepCapacityIntents  string `yaml:"sweep_capacity_intents"`
}

// RateLimitConfig limits requests per client IP
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// RabbitMQ
	if val := os.Getenv("RABBITMQ_URL"); val != "" {
		c.RabbitMQ.URL = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Backends
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}
	if val := os.Getenv("SEED_FILE"); val != "" {
		c.Storage.SeedFile = val
	}
	if val := os.Getenv("LOCK_TYPE"); val != "" {
		c.Lock.Type = val
	}

	// Gateway
	if val := os.Getenv("GATEWAY_TYPE"); val != "" {
		c.Gateway.Type = val
	}
	if val := os.Getenv("GATEWAY_KEY_ID"); val != "" {
		c.Gateway.KeyID = val
	}
	if val := os.Getenv("GATEWAY_KEY_SECRET"); val != "" {
		c.Gateway.KeySecret = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 20
	}

	// Backend selection
	if c.Storage.Type == "" {
		c.Storage.Type = "postgres"
	}
	switch c.Storage.Type {
	case "postgres", "memory":
	default:
		return fmt.Errorf("invalid storage type: %q", c.Storage.Type)
	}

	if c.Lock.Type == "" {
		c.Lock.Type = c.Storage.Type
	}
	switch c.Lock.Type {
	case "postgres", "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for redis lock")
		}
	default:
		return fmt.Errorf("invalid lock type: %q", c.Lock.Type)
	}
	if c.Lock.Type == "postgres" && c.Storage.Type != "postgres" {
		return fmt.Errorf("postgres lock requires postgres storage")
	}
	if c.Lock.TimeoutSeconds == 0 {
		c.Lock.TimeoutSeconds = 5
	}
	if c.Lock.TTLSeconds == 0 {
		c.Lock.TTLSeconds = 10
	}
	if c.Lock.MaxConns == 0 {
		c.Lock.MaxConns = 10
	}

	// Database validation
	if c.Storage.Type == "postgres" {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.MaxOpenConns == 0 {
			c.Database.MaxOpenConns = 25
		}
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Gateway validation
	if c.Gateway.Type == "" {
		c.Gateway.Type = "razorpay"
	}
	switch c.Gateway.Type {
	case "razorpay":
		if c.Gateway.KeyID == "" {
			return fmt.Errorf("gateway key id is required")
		}
	case "mock":
	default:
		return fmt.Errorf("invalid gateway type: %q", c.Gateway.Type)
	}
	if c.Gateway.KeySecret == "" {
		return fmt.Errorf("gateway key secret is required")
	}
	if c.Gateway.TimeoutSeconds == 0 {
		c.Gateway.TimeoutSeconds = 10
	}
	if c.Gateway.Currency == "" {
		c.Gateway.Currency = "INR"
	}

	if c.RabbitMQ.URL != "" && c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "parkit.orders"
	}

	// Booking defaults
	if c.Booking.IntentSweepAgeMinutes == 0 {
		c.Booking.IntentSweepAgeMinutes = 10
	}
	if c.Booking.SweepBatchSize == 0 {
		c.Booking.SweepBatchSize = 200
	}
	if c.Booking.ElapseBatchSize == 0 {
		c.Booking.ElapseBatchSize = 200
	}
	if c.Booking.ReservationTimeoutSeconds == 0 {
		c.Booking.ReservationTimeoutSeconds = 15
	}

	// Scheduler defaults
	if c.Scheduler.CompleteElapsedOrders == "" {
		c.Scheduler.CompleteElapsedOrders = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.SweepCapacityIntents == "" {
		c.Scheduler.SweepCapacityIntents = "30 * * * * *" // every minute
	}

	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = int(c.RateLimit.RequestsPerSecond) + 1
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) IntentSweepAge() time.Duration {
	return time.Duration(c.Booking.IntentSweepAgeMinutes) * time.Minute
}

func (c *Config) ReservationTimeout() time.Duration {
	return seconds(c.Booking.ReservationTimeoutSeconds)
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (c *Config) LockTimeout() time.Duration     { return seconds(c.Lock.TimeoutSeconds) }
func (c *Config) LockTTL() time.Duration         { return seconds(c.Lock.TTLSeconds) }
func (c *Config) GatewayTimeout() time.Duration  { return seconds(c.Gateway.TimeoutSeconds) }
func (c *Config) ShutdownTimeout() time.Duration { return seconds(c.Server.ShutdownTimeoutSeconds) }
