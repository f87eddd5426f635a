package db

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TxRunner runs a function inside a serializable transaction. Status
// transitions and payment inserts go through it so conditional writes
// either commit together or not at all.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

type SQLXTxRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) SQLXTxRunner {
	return SQLXTxRunner{db: db}
}

func (r SQLXTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return WithTx(ctx, r.db, fn)
}

func Connect(databaseURL string) (*sqlx.DB, error) {
	conn, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(30)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxIdleTime(5 * time.Minute)
	conn.SetConnMaxLifetime(30 * time.Minute)
	return conn, nil
}

const maxTxAttempts = 5

// WithTx retries on serialization failures and deadlocks; fn must be safe
// to run more than once.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return err
		}
		err = fn(tx)
		if err == nil {
			err = tx.Commit()
			if err == nil {
				return nil
			}
		} else {
			_ = tx.Rollback()
		}
		if !retryableTxError(err) || attempt == maxTxAttempts {
			return err
		}
		backoff(attempt)
	}
	return errors.New("transaction retry limit exceeded")
}

func retryableTxError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func backoff(attempt int) {
	base := 20 * time.Millisecond
	jitter := time.Duration(rand.Int63n(int64(10 * time.Millisecond)))
	time.Sleep(time.Duration(attempt*attempt)*base + jitter)
}
