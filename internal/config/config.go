package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
	DBMaxOpenConns         int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns         int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnectAttempts      int    `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	CredentialsFile   string `env:"GOOGLE_APPLICATION_CREDENTIALS_FILE"`

	// Empty RedisAddr keeps locks, leaderboard and fan-out in process.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	ProofBucket string        `env:"PROOF_BUCKET"`
	ProofURLTTL time.Duration `env:"PROOF_URL_TTL" envDefault:"15m"`

	StreakTimezone  string `env:"STREAK_TIMEZONE" envDefault:"Africa/Lagos"`
	LeaderboardSize int    `env:"LEADERBOARD_SIZE" envDefault:"100"`

	JobsEnabled                bool          `env:"JOBS_ENABLED" envDefault:"true"`
	RiskReconcileInterval      time.Duration `env:"RISK_RECONCILE_INTERVAL" envDefault:"1h"`
	LeaderboardRebuildInterval time.Duration `env:"LEADERBOARD_REBUILD_INTERVAL" envDefault:"30m"`

	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"vercel.app"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves StreakTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.StreakTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.StreakTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
