package util

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/bitcoin-vm/mru/util/usql"
	"github.com/labstack/gommon/random"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type SQLEngine string

const (
	Postgres     SQLEngine = "postgres"
	Sqlite       SQLEngine = "sqlite"
	SqliteMemory SQLEngine = "sqlitememory"
)

// InitSQLDB opens the database named by storeURL. sqlite files are created below dataFolder,
// sqlitememory databases get a random name so every store instance is isolated.
func InitSQLDB(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (*usql.DB, error) {
	if storeURL == nil {
		return nil, errors.NewConfigurationError("db: missing store url")
	}

	switch SQLEngine(storeURL.Scheme) {
	case Postgres:
		return initPostgresDB(logger, storeURL)
	case Sqlite, SqliteMemory:
		return initSQLiteDB(logger, storeURL, dataFolder)
	}

	return nil, errors.NewConfigurationError("db: unknown scheme: %s", storeURL.Scheme)
}

func initPostgresDB(logger ulogger.Logger, storeURL *url.URL) (*usql.DB, error) {
	dbPort, _ := strconv.Atoi(storeURL.Port())
	if dbPort == 0 {
		dbPort = 5432
	}

	dbName := strings.TrimPrefix(storeURL.Path, "/")

	var dbUser, dbPassword string
	if storeURL.User != nil {
		dbUser = storeURL.User.Username()
		dbPassword, _ = storeURL.User.Password()
	}

	sslMode := GetQueryParam(storeURL, "sslmode", "disable")

	dbInfo := fmt.Sprintf("user=%s password=%s dbname=%s sslmode=%s host=%s port=%d",
		dbUser, dbPassword, dbName, sslMode, storeURL.Hostname(), dbPort)

	db, err := usql.Open("postgres", dbInfo)
	if err != nil {
		return nil, errors.NewStorageError("failed to open postgres DB", err)
	}

	logger.Infof("Using postgres DB: %s@%s:%d/%s", dbUser, storeURL.Hostname(), dbPort, dbName)

	db.SetMaxOpenConns(GetQueryParamInt(storeURL, "maxOpenConns", 16))
	db.SetMaxIdleConns(GetQueryParamInt(storeURL, "maxIdleConns", 4))

	return db, nil
}

func initSQLiteDB(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (*usql.DB, error) {
	var filename string

	if SQLEngine(storeURL.Scheme) == SqliteMemory {
		filename = fmt.Sprintf("file:%s?mode=memory&cache=shared", random.String(16))
	} else {
		if err := os.MkdirAll(dataFolder, 0o755); err != nil {
			return nil, errors.NewStorageError("failed to create data folder %s", dataFolder, err)
		}

		dbName := strings.TrimPrefix(storeURL.Path, "/")
		if dbName == "" {
			dbName = "blockchain"
		}

		abs, err := filepath.Abs(filepath.Join(dataFolder, dbName+".db"))
		if err != nil {
			return nil, errors.NewStorageError("failed to get absolute path for sqlite DB", err)
		}

		filename = abs + "?_pragma=busy_timeout=5000&_pragma=journal_mode=WAL"
	}

	logger.Infof("Using sqlite DB: %s", filename)

	db, err := usql.Open("sqlite", filename)
	if err != nil {
		return nil, errors.NewStorageError("failed to open sqlite DB", err)
	}

	// a single writer keeps the in-memory database alive and avoids SQLITE_BUSY on the block path
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError("could not enable foreign keys support", err)
	}

	return db, nil
}
