package db

import (
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to MySQL when mysqlDSN is set, otherwise to the SQLite file.
func Open(mysqlDSN, sqliteFile string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if mysqlDSN != "" {
		dsn, err := normalizeMySQLDSN(mysqlDSN)
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(dsn)
	} else {
		dialector = sqlite.Open(sqliteFile + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	}
	return open(dialector, debug)
}

// OpenSQLite opens (or creates) a standalone SQLite file, e.g. a backup artifact.
func OpenSQLite(path string) (*gorm.DB, error) {
	return open(sqlite.Open(path), false)
}

func open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
	}
	return db, nil
}

// normalizeMySQLDSN makes sure DATETIME columns are scanned into time.Time
// and stored in UTC.
func normalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
