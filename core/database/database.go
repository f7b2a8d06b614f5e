package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the index database per the configured driver and verifies
// the connection. SQLite is the embedded default; MySQL is available for
// shared setups where several machines point at one library.
func Connect(cfg Config) (*gorm.DB, error) {
	// Suppress GORM logging; the application logger reports outcomes.
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch cfg.Driver {
	case DriverSQLite, "":
		return connectSQLite(cfg, gormConfig)
	case DriverMySQL:
		return connectMySQL(cfg, gormConfig)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func connectSQLite(cfg Config, gormConfig *gorm.Config) (*gorm.DB, error) {
	// busy_timeout keeps concurrent readers from failing while a reindex
	// transaction holds the write lock.
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", cfg.Path)

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// SQLite allows a single writer; cap the pool to avoid lock contention.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func connectMySQL(cfg Config, gormConfig *gorm.Config) (*gorm.DB, error) {
	// Special characters in the password must be URL encoded in the DSN.
	userInfo := url.UserPassword(cfg.User, cfg.Password).String()

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	dsn := fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		userInfo, cfg.Host, cfg.Port, cfg.Name, timeout, timeout, timeout)

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
