// Package dbx holds the small database plumbing every repository builds on:
// the DBTX interface, which abstracts over *sql.DB and *sql.Tx, and WithTx
// for running a function inside a transaction.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the slice of database/sql the repositories actually call.
// It is satisfied by both *sql.DB and *sql.Tx, so the same repository
// code runs standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx opens a transaction, hands fn a transactional DBTX, and commits
// when fn returns nil. Any error or panic rolls the transaction back;
// panics are rethrown after the rollback.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
