package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

type Config struct {
	Port              string        `mapstructure:"API_PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	MongoURI          string        `mapstructure:"MONGO_URI"`
	MongoDatabase     string        `mapstructure:"MONGO_DATABASE"`
	MongoTransactions bool          `mapstructure:"MONGO_TRANSACTIONS"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	JWTTTL            time.Duration `mapstructure:"JWT_TTL"`
	BcryptCost        int           `mapstructure:"BCRYPT_COST"`
	FrontendURL       string        `mapstructure:"FRONTEND_URL"`
	RateLimitPerMin   int           `mapstructure:"RATE_LIMIT_PER_MIN"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int           `mapstructure:"REDIS_DB"`
	AMQPURL           string        `mapstructure:"AMQP_URL"`
	AMQPExchange      string        `mapstructure:"AMQP_EXCHANGE"`
	StatsWindowDays   int           `mapstructure:"STATS_WINDOW_DAYS"`
	HistoryDays       int           `mapstructure:"HISTORY_DEFAULT_DAYS"`

	// InMemory selects the in-process store instead of MongoDB. Set by the
	// serve command's --in-memory flag, never from the environment.
	InMemory bool `mapstructure:"-"`

	GoalTargets models.GoalTargets `mapstructure:"-"`
}

var keys = []string{
	"API_PORT", "ENV", "LOG_LEVEL", "MONGO_URI", "MONGO_DATABASE", "MONGO_TRANSACTIONS",
	"JWT_SECRET", "JWT_TTL", "BCRYPT_COST", "FRONTEND_URL", "RATE_LIMIT_PER_MIN",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "AMQP_URL", "AMQP_EXCHANGE",
	"STATS_WINDOW_DAYS", "HISTORY_DEFAULT_DAYS",
	"GOAL_TARGET_STEPS", "GOAL_TARGET_ACTIVE_TIME", "GOAL_TARGET_SLEEP", "GOAL_TARGET_WATER_INTAKE",
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	return FromViper(viper.New())
}

// FromViper builds a Config from v after applying defaults and binding the
// environment.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MONGO_DATABASE", "healthcare_portal")
	v.SetDefault("MONGO_TRANSACTIONS", false)
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_PER_MIN", 200)
	v.SetDefault("AMQP_EXCHANGE", "portal.events")
	v.SetDefault("STATS_WINDOW_DAYS", 7)
	v.SetDefault("HISTORY_DEFAULT_DAYS", 7)
	v.SetDefault("GOAL_TARGET_STEPS", 10000)
	v.SetDefault("GOAL_TARGET_ACTIVE_TIME", 60)
	v.SetDefault("GOAL_TARGET_SLEEP", 8)
	v.SetDefault("GOAL_TARGET_WATER_INTAKE", 2000)

	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.GoalTargets = models.GoalTargets{
		Steps:       v.GetFloat64("GOAL_TARGET_STEPS"),
		ActiveTime:  v.GetFloat64("GOAL_TARGET_ACTIVE_TIME"),
		Sleep:       v.GetFloat64("GOAL_TARGET_SLEEP"),
		WaterIntake: v.GetFloat64("GOAL_TARGET_WATER_INTAKE"),
	}
	return cfg, nil
}

// ValidateStorage checks the settings needed to reach the store.
func (c *Config) ValidateStorage() error {
	if !c.InMemory && c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	return nil
}

// Validate checks that the configuration is usable for serving.
func (c *Config) Validate() error {
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.StatsWindowDays <= 0 || c.HistoryDays <= 0 {
		return fmt.Errorf("STATS_WINDOW_DAYS and HISTORY_DEFAULT_DAYS must be positive")
	}
	t := c.GoalTargets
	if t.Steps <= 0 || t.ActiveTime <= 0 || t.Sleep <= 0 || t.WaterIntake <= 0 {
		return fmt.Errorf("goal targets must be positive, got %+v", t)
	}
	return nil
}

// CORSOrigins splits FRONTEND_URL on commas.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
