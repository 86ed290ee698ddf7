package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, "edustore-dispatch", cfg.App.Name)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "edustore_db", cfg.Database.Database)
				assert.Equal(t, 5672, cfg.RabbitMQ.Port)
				assert.Equal(t, "0 * * * * *", cfg.Scheduler.ScanCron)
				assert.False(t, cfg.Scheduler.StreakReminderEnabled)

				limit := cfg.Worker.RateLimitFor("Email")
				assert.Equal(t, 1, limit.MaxJobs)
				assert.Equal(t, 2*time.Second, limit.Window)
			}
		})
	}
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")
	t.Setenv("TEST_AMQP_PASSWORD", "amqp-s3cret")

	cfg, err := Load("testdata/env_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "amqp-s3cret", cfg.RabbitMQ.Password)
}

func TestWorkerConfig_RateLimitFor(t *testing.T) {
	cfg := WorkerConfig{
		RateLimits: map[string]RateLimitConfig{
			"Email": {MaxJobs: 5, Window: 10 * time.Second},
		},
	}

	t.Run("configured queue", func(t *testing.T) {
		limit := cfg.RateLimitFor("Email")
		assert.Equal(t, 5, limit.MaxJobs)
		assert.Equal(t, 10*time.Second, limit.Window)
	})

	t.Run("unconfigured queue falls back to the default", func(t *testing.T) {
		limit := cfg.RateLimitFor("Notification")
		assert.Equal(t, 1, limit.MaxJobs)
		assert.Equal(t, 2*time.Second, limit.Window)
	})
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "empty rabbitmq host",
			mutate:    func(c *Config) { c.RabbitMQ.Host = "" },
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name:      "invalid rabbitmq port",
			mutate:    func(c *Config) { c.RabbitMQ.Port = -1 },
			wantErr:   true,
			errString: "invalid rabbitmq port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672},
			Worker: WorkerConfig{
				PrefetchCount:   1,
				ShutdownTimeout: 30 * time.Second,
				RateLimits: map[string]RateLimitConfig{
					"Email": {MaxJobs: 1, Window: 2 * time.Second},
				},
			},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "zero prefetch count",
			mutate:    func(c *Config) { c.Worker.PrefetchCount = 0 },
			wantErr:   true,
			errString: "prefetch_count must be greater than 0",
		},
		{
			name:      "zero shutdown timeout",
			mutate:    func(c *Config) { c.Worker.ShutdownTimeout = 0 },
			wantErr:   true,
			errString: "shutdown_timeout must be greater than 0",
		},
		{
			name: "zero max jobs in a rate limit",
			mutate: func(c *Config) {
				c.Worker.RateLimits["Email"] = RateLimitConfig{MaxJobs: 0, Window: 2 * time.Second}
			},
			wantErr:   true,
			errString: "max_jobs must be greater than 0",
		},
		{
			name: "zero window in a rate limit",
			mutate: func(c *Config) {
				c.Worker.RateLimits["Email"] = RateLimitConfig{MaxJobs: 1}
			},
			wantErr:   true,
			errString: "window must be greater than 0",
		},
		{
			name:      "empty rabbitmq host",
			mutate:    func(c *Config) { c.RabbitMQ.Host = "" },
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateSchedulerConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Host: "localhost", Port: 5432, Database: "edustore_db"},
			RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672},
			Scheduler: SchedulerConfig{
				MaintenanceCron: "* * * * * *",
				ScanCron:        "0 * * * * *",
			},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "empty database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "empty database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "empty maintenance cron",
			mutate:    func(c *Config) { c.Scheduler.MaintenanceCron = "" },
			wantErr:   true,
			errString: "maintenance_cron is required",
		},
		{
			name:      "empty scan cron",
			mutate:    func(c *Config) { c.Scheduler.ScanCron = "" },
			wantErr:   true,
			errString: "scan_cron is required",
		},
		{
			name:      "streak enabled without a cron",
			mutate:    func(c *Config) { c.Scheduler.StreakReminderEnabled = true },
			wantErr:   true,
			errString: "streak_cron is required",
		},
		{
			name: "streak enabled with a cron",
			mutate: func(c *Config) {
				c.Scheduler.StreakReminderEnabled = true
				c.Scheduler.StreakCron = "0 0 20 * * *"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.ValidateSchedulerConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
