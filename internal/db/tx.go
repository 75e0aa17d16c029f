package db

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tokenbook/internal/apperr"
	"tokenbook/internal/logger"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// Transactor runs fn inside a single all-or-nothing transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx Queryer) error) error
}

type TxRunner struct {
	db         *sqlx.DB
	maxRetries int
}

func NewTxRunner(db *sqlx.DB, maxRetries int) *TxRunner {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &TxRunner{db: db, maxRetries: maxRetries}
}

// WithinTx retries the whole transaction when Postgres aborts it because of
// contention. Business errors returned by fn are passed through untouched.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(tx Queryer) error) error {
	for attempt := 0; ; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt >= r.maxRetries {
			logger.WithError(err).Error("transaction failed after retry", "attempts", attempt+1)
			return apperr.ErrServer
		}
		logger.Warn("retrying transaction after contention", "attempt", attempt+1, "error", err)
	}
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(tx Queryer) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
}
