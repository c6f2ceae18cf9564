package db

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zeroup-initiative/partner-backend/internal/config"
	"github.com/zeroup-initiative/partner-backend/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// BuildDSN renders the MySQL DSN. Times are stored and read as UTC.
func BuildDSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@%s/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.DBUser, cfg.DBPassword, dialAddr(cfg), cfg.DBName)
}

// dialAddr prefers the Cloud SQL socket, then whatever DB_HOST spells out.
func dialAddr(cfg *config.Config) string {
	host := cfg.DBHost
	switch {
	case cfg.InstanceConnectionName != "":
		return "unix(/cloudsql/" + cfg.InstanceConnectionName + ")"
	case strings.HasPrefix(host, "tcp("), strings.HasPrefix(host, "unix("):
		return host
	case strings.HasPrefix(host, "/"):
		return "unix(" + host + ")"
	default:
		return "tcp(" + host + ":" + cfg.DBPort + ")"
	}
}

// Connect opens the pool and pings until the server answers, up to
// DB_CONNECT_ATTEMPTS times.
func Connect(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(BuildDSN(cfg)), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)

	attempts := cfg.DBConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; ; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = sqlDB.PingContext(pingCtx)
		cancel()
		if err == nil {
			return gdb, nil
		}
		if i >= attempts {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("ping after %d attempts: %w", i, err)
		}
		log.Printf("[db] ping attempt=%d failed: %v", i, err)
		select {
		case <-ctx.Done():
			_ = sqlDB.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(i) * time.Second):
		}
	}
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.All()...)
}
