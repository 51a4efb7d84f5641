package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/signal-waitlist/internal/log"
	"github.com/akeren/signal-waitlist/pkg/retry"
	"github.com/akeren/signal-waitlist/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string
	PingRetry       *retry.Config
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &DBConfig{
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Minute,
			SSLMode:         "require",
		}
	}

	if cfg.PingRetry == nil {
		cfg.PingRetry = retry.DefaultConfig()
	}
	if cfg.PingRetry.OnRetry == nil {
		cfg.PingRetry.OnRetry = func(attempt int, delay time.Duration, err error) {
			logger.Warn("Database not reachable yet", "attempt", attempt, "retry_in", delay.String(), "error", err)
		}
	}

	target, err := postgresTargetFromEnv(cfg.SSLMode)
	if err != nil {
		logger.Error("Invalid database configuration", "error", err)
		return nil, err
	}
	logger.Info("Connecting to database", target.logAttrs()...)

	// The ping below is retried, so gorm must not ping on open.
	gdb, err := gorm.Open(postgres.Open(target.dsn()), &gorm.Config{DisableAutomaticPing: true})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err = retry.NewExponentialBackoff(cfg.PingRetry).Execute(ctx, func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	})
	if err != nil {
		logger.Error("Database ping failed", "error", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully")
	return gdb, nil
}

// postgresTarget is either a full APP_DATABASE_URL or the POSTGRES_* parts.
type postgresTarget struct {
	url      string
	host     string
	port     int
	user     string
	password string
	dbName   string
	sslMode  string
}

func postgresTargetFromEnv(defaultSSLMode string) (*postgresTarget, error) {
	if url := utils.Env("APP_DATABASE_URL"); url != "" {
		return &postgresTarget{url: url}, nil
	}

	t := &postgresTarget{
		host:     utils.Env("POSTGRES_HOST"),
		user:     utils.Env("POSTGRES_USER"),
		password: utils.Env("POSTGRES_PASSWORD"),
		dbName:   utils.Env("POSTGRES_DB_NAME"),
		sslMode:  utils.EnvOr("POSTGRES_SSLMODE", defaultSSLMode),
		port:     5432,
	}
	if t.sslMode == "" {
		t.sslMode = "require"
	}

	if raw := utils.Env("POSTGRES_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid POSTGRES_PORT %q", raw)
		}
		t.port = port
	}

	var missing []string
	if t.host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if t.dbName == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	return t, nil
}

func (t *postgresTarget) dsn() string {
	if t.url != "" {
		return t.url
	}

	parts := []string{
		"host=" + t.host,
		"port=" + strconv.Itoa(t.port),
		"dbname=" + t.dbName,
		"sslmode=" + t.sslMode,
	}
	if t.user != "" {
		parts = append(parts, "user="+t.user)
	}
	if t.password != "" {
		parts = append(parts, "password="+t.password)
	}
	return strings.Join(parts, " ")
}

// logAttrs never includes the password or the raw URL.
func (t *postgresTarget) logAttrs() []any {
	if t.url != "" {
		return []any{"source", "APP_DATABASE_URL"}
	}
	return []any{"host", t.host, "port", t.port, "user", t.user, "dbname", t.dbName, "sslmode", t.sslMode}
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}
