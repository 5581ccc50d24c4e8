package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Models lists every table managed by AutoMigrate.
var Models = []any{
	&entities.User{},
	&entities.Author{},
	&entities.Genre{},
	&entities.Series{},
	&entities.Book{},
	&entities.BookAuthor{},
	&entities.BookGenre{},
	&entities.BookIdentifier{},
	&entities.AuditEvent{},
}

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens a SQLite database at dbPath with the default settings.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(config.Database{Driver: DriverSQLite, Path: dbPath, LogLevel: "warn"})
}

// Open connects to the configured store, migrates the schema and seeds the
// administrative account.
func Open(cfg config.Database) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", DriverSQLite:
		dialector = sqlite.Open(cfg.Path)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedAdmin(); err != nil {
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}

	log.Info().Str("driver", db.Dialector.Name()).Msg("Database initialized")

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the store is reachable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// seedAdmin creates the administrative account with id 1. It has no usable
// password until one is set through the auth service.
func (d *Database) seedAdmin() error {
	var count int64
	if err := d.DB.Model(&entities.User{}).Where("id = ?", entities.AdminAccountID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := entities.User{ID: entities.AdminAccountID, Username: "admin", IsAdmin: true}
	if err := d.DB.Create(&admin).Error; err != nil {
		return err
	}

	// Explicit ids don't advance Postgres sequences.
	if d.DB.Dialector.Name() == DriverPostgres {
		if err := d.DB.Exec("SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT MAX(id) FROM users))").Error; err != nil {
			return err
		}
	}

	log.Info().Msg("Created administrative account")
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
