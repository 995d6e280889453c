package sql

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/bitcoin-vm/mru/util"
	"github.com/bitcoin-vm/mru/util/usql"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const fsmStateKey = "fsm_state"

type SQL struct {
	db       *usql.DB
	engine   util.SQLEngine
	logger   ulogger.Logger
	cache    *GenerationalCache
	cacheTTL time.Duration
}

func New(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (*SQL, error) {
	logger = logger.New("bcsql")

	db, err := util.InitSQLDB(logger, storeURL, dataFolder)
	if err != nil {
		return nil, errors.NewStorageError("failed to init sql db", err)
	}

	switch util.SQLEngine(storeURL.Scheme) {
	case util.Postgres:
		if err = createPostgresSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create postgres schema", err)
		}

	case util.Sqlite, util.SqliteMemory:
		if err = createSqliteSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create sqlite schema", err)
		}

	default:
		return nil, errors.NewStorageError("unknown database engine: %s", storeURL.Scheme)
	}

	return &SQL{
		db:       db,
		engine:   util.SQLEngine(storeURL.Scheme),
		logger:   logger,
		cache:    NewGenerationalCache(),
		cacheTTL: time.Minute,
	}, nil
}

func (s *SQL) GetDB() *usql.DB {
	return s.db
}

func (s *SQL) GetDBEngine() util.SQLEngine {
	return s.engine
}

func (s *SQL) Health(ctx context.Context, _ bool) (int, string, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return http.StatusServiceUnavailable, "blockchain store unreachable", errors.NewStorageError("failed to ping database", err)
	}

	return http.StatusOK, "OK", nil
}

func (s *SQL) Close() error {
	s.cache.Stop()
	return s.db.Close()
}

func (s *SQL) ResetResponseCache() {
	s.cache.DeleteAll()
}

func createPostgresSchema(db *usql.DB) error {
	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS state (
	     key            VARCHAR(32) PRIMARY KEY
	    ,data           BYTEA NOT NULL
        ,inserted_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        ,updated_at     TIMESTAMPTZ NULL
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create state table", err)
	}

	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS blocks (
	     id             BIGSERIAL PRIMARY KEY
	    ,height         BIGINT NOT NULL
        ,block_time     BIGINT NOT NULL
	    ,parent_root    BYTEA NOT NULL
	    ,state_root     BYTEA NOT NULL
		,action_count   BIGINT NOT NULL
        ,actions        BYTEA NOT NULL
    	,inserted_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create blocks table", err)
	}

	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_blocks_height ON blocks (height);`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create ux_blocks_height index", err)
	}

	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS ledger_states (
	     block_id       BIGINT PRIMARY KEY REFERENCES blocks(id)
	    ,data           BYTEA NOT NULL
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create ledger_states table", err)
	}

	return nil
}

func createSqliteSchema(db *usql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS state (
		 key            VARCHAR(32) PRIMARY KEY
	    ,data           BLOB NOT NULL
        ,inserted_at    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
        ,updated_at     TEXT NULL
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create state table", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS blocks (
		 id             INTEGER PRIMARY KEY AUTOINCREMENT
	    ,height         BIGINT NOT NULL
        ,block_time     BIGINT NOT NULL
	    ,parent_root    BLOB NOT NULL
	    ,state_root     BLOB NOT NULL
		,action_count   BIGINT NOT NULL
        ,actions        BLOB NOT NULL
        ,inserted_at    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create blocks table", err)
	}

	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_blocks_height ON blocks (height);`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create ux_blocks_height index", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ledger_states (
		 block_id       INTEGER PRIMARY KEY REFERENCES blocks(id)
	    ,data           BLOB NOT NULL
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create ledger_states table", err)
	}

	return nil
}
