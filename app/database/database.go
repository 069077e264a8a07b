package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marketplace/catalog/app/config"
	"github.com/marketplace/catalog/db"
	"github.com/marketplace/catalog/models"
)

// Open connects to the configured database. SQLite is limited to a single
// connection so that in-memory databases are shared by every query.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	const op = "database.Open"

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, cfg.DBDriver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return gdb, nil
}

// Migrate brings the schema up to date. Postgres runs the embedded SQL
// migrations; SQLite, used for local development, is auto-migrated from the models.
func Migrate(gdb *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	const op = "database.Migrate"

	if cfg.DBDriver == config.DriverSQLite {
		if err := gdb.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("sqlite schema migrated")
		return nil
	}

	if err := runPostgresMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("migrations applied successfully")
	return nil
}

func runPostgresMigrations(dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(db.Migrations, db.MigrationsDir)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newGormLogger(log *zap.Logger) gormlogger.Interface {
	if log == nil {
		log = zap.NewNop()
	}
	return gormlogger.New(zap.NewStdLog(log.Named("gorm")), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
