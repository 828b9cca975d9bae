package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/policy"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	CounterBackendPostgres = "postgres"
	CounterBackendRedis    = "redis"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`

	// Callbacks
	CallbackSecret    string        `envconfig:"CALLBACK_SECRET" required:"true"`
	CallbackTolerance time.Duration `envconfig:"CALLBACK_TOLERANCE" default:"5m"`

	// Operations
	OperationTimeout time.Duration `envconfig:"OPERATION_TIMEOUT" default:"5m"`
	SweepInterval    time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	CASMaxRetries    int           `envconfig:"CAS_MAX_RETRIES" default:"3"`

	// Attempt counters for frequency rules
	CounterBackend   string        `envconfig:"COUNTER_BACKEND" default:"postgres"`
	RedisURL         string        `envconfig:"REDIS_URL"`
	CounterRetention time.Duration `envconfig:"COUNTER_RETENTION" default:"24h"`

	// Rule merge policy
	RuleBoolMerge      string `envconfig:"RULE_BOOL_MERGE" default:"any"`
	RuleThresholdMerge string `envconfig:"RULE_THRESHOLD_MERGE" default:"strictest"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, domain.ErrConfigurationMissing.WithError(fmt.Errorf("load config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations envconfig cannot express.
func (c *Config) Validate() error {
	switch c.CounterBackend {
	case CounterBackendPostgres:
	case CounterBackendRedis:
		if c.RedisURL == "" {
			return domain.ErrConfigurationMissing.WithMessage("REDIS_URL is required when COUNTER_BACKEND=redis")
		}
	default:
		return domain.ErrConfigurationMissing.WithMessage(fmt.Sprintf("unknown COUNTER_BACKEND %q", c.CounterBackend))
	}

	if c.CASMaxRetries < 1 {
		return domain.ErrConfigurationMissing.WithMessage("CAS_MAX_RETRIES must be at least 1")
	}
	if c.OperationTimeout < 0 || c.SweepInterval <= 0 {
		return domain.ErrConfigurationMissing.WithMessage("OPERATION_TIMEOUT must not be negative and SWEEP_INTERVAL must be positive")
	}
	if _, err := c.MergePolicy(); err != nil {
		return err
	}
	return nil
}

func (c *Config) MergePolicy() (policy.MergePolicy, error) {
	return policy.ParseMergePolicy(c.RuleBoolMerge, c.RuleThresholdMerge)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
