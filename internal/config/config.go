package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Worker    WorkerConfig    `yaml:"worker"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Connection ConnectionConfig `yaml:"connection"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// RateLimitConfig caps job starts per rolling window for one queue
type RateLimitConfig struct {
	MaxJobs int           `yaml:"max_jobs"`
	Window  time.Duration `yaml:"window"`
}

// WorkerConfig holds worker service configuration. RateLimits is keyed by
// queue name; queues without an entry fall back to the default limit.
type WorkerConfig struct {
	PrefetchCount   int                        `yaml:"prefetch_count"`
	ShutdownTimeout time.Duration              `yaml:"shutdown_timeout"`
	RateLimits      map[string]RateLimitConfig `yaml:"rate_limits"`
}

// SchedulerConfig holds the scan cadences. Cron expressions are six-field
// (seconds precision).
type SchedulerConfig struct {
	MaintenanceCron       string        `yaml:"maintenance_cron"`
	ScanCron              string        `yaml:"scan_cron"`
	StreakCron            string        `yaml:"streak_cron"`
	StreakReminderEnabled bool          `yaml:"streak_reminder_enabled"`
	ShutdownTimeout       time.Duration `yaml:"shutdown_timeout"`
}

// defaultRateLimit spaces deliveries two seconds apart on queues without an
// explicit limit
var defaultRateLimit = RateLimitConfig{
	MaxJobs: 1,
	Window:  2 * time.Second,
}

// RateLimitFor returns the configured limit for the named queue, or the
// default when the queue has no entry
func (c *WorkerConfig) RateLimitFor(queueName string) RateLimitConfig {
	if limit, ok := c.RateLimits[queueName]; ok {
		return limit
	}
	return defaultRateLimit
}

// Load reads and parses the configuration file. Environment variable
// references ($VAR or ${VAR}) in the file are expanded before parsing.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// ValidateAPIConfig checks the configuration the API service needs
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	return c.validateRabbitMQ()
}

// ValidateWorkerConfig checks the configuration the worker service needs
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.Worker.PrefetchCount <= 0 {
		return fmt.Errorf("worker prefetch_count must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}

	for queueName, limit := range c.Worker.RateLimits {
		if limit.MaxJobs <= 0 {
			return fmt.Errorf("rate limit for queue %q: max_jobs must be greater than 0", queueName)
		}
		if limit.Window <= 0 {
			return fmt.Errorf("rate limit for queue %q: window must be greater than 0", queueName)
		}
	}

	return nil
}

// ValidateSchedulerConfig checks the configuration the scheduler service needs
func (c *Config) ValidateSchedulerConfig() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.Scheduler.MaintenanceCron == "" {
		return fmt.Errorf("scheduler maintenance_cron is required")
	}

	if c.Scheduler.ScanCron == "" {
		return fmt.Errorf("scheduler scan_cron is required")
	}

	if c.Scheduler.StreakReminderEnabled && c.Scheduler.StreakCron == "" {
		return fmt.Errorf("scheduler streak_cron is required when streak reminders are enabled")
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	return nil
}
