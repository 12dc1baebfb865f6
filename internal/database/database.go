package database

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/service/*.sql migrations/inventory/*.sql
var migrationsFS embed.FS

const (
	serviceMigrations   = "migrations/service"
	inventoryMigrations = "migrations/inventory"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// DB is the service store: users, bookings and staff.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

// InventoryDB is the inventory store: items and their history.
type InventoryDB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	sqlDB, err := open(path, serviceMigrations, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", path).Msg("Service database initialized")
	return &DB{DB: sqlDB, path: path, logger: logger}, nil
}

func NewInventoryDB(path string, logger *zerolog.Logger) (*InventoryDB, error) {
	sqlDB, err := open(path, inventoryMigrations, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", path).Msg("Inventory database initialized")
	return &InventoryDB{DB: sqlDB, path: path, logger: logger}, nil
}

// Path returns the file the store was opened from.
func (db *DB) Path() string { return db.path }

func (db *InventoryDB) Path() string { return db.path }

func open(path, migrationsDir string, logger *zerolog.Logger) (*sql.DB, error) {
	inMemory := path == ":memory:" || strings.HasPrefix(path, "file::memory:")
	if !inMemory {
		// Create the database directory if it is missing
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and :memory: databases
	// are per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(sqlDB, migrationsDir); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug().Str("dir", migrationsDir).Msg("Migrations applied")
	return sqlDB, nil
}

func dsn(path string) string {
	const params = "_foreign_keys=on&_busy_timeout=5000"
	if strings.HasPrefix(path, "file:") {
		if strings.Contains(path, "?") {
			return path + "&" + params
		}
		return path + "?" + params
	}
	return "file:" + path + "?" + params
}

func migrate(sqlDB *sql.DB, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(sqlDB, dir)
}
