// Package usql wraps database/sql so every statement is timed in the gocore stats tree.
package usql

import (
	"context"
	"database/sql"

	"github.com/ordishs/gocore"
)

var stat = gocore.NewStat("SQL")

type DB struct {
	*sql.DB
	engine string
}

func Open(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	return &DB{DB: db, engine: driverName}, nil
}

// Engine returns the driver name the DB was opened with.
func (db *DB) Engine() string {
	return db.engine
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer stat.NewStat(query).AddTime(gocore.CurrentTime())

	return db.DB.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer stat.NewStat(query).AddTime(gocore.CurrentTime())

	return db.DB.QueryRowContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer stat.NewStat(query).AddTime(gocore.CurrentTime())

	return db.DB.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction; statements inside it are not timed individually.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	defer stat.NewStat("BeginTx").AddTime(gocore.CurrentTime())

	return db.DB.BeginTx(ctx, opts)
}
