package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"tokenbook/internal/apperr"
	"tokenbook/internal/db"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create runs inside the user registration transaction; a wallet is never
// created on its own.
func (r *repository) Create(ctx context.Context, q db.Queryer, userID int) (*Wallet, error) {
	var w Wallet
	err := q.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 RETURNING `+walletColumns,
		userID,
	).StructScan(&w)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) GetByUserID(ctx context.Context, userID int) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("wallet")
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, user_id, wallet_id, type, amount, previous_balance, new_balance, booking_id, description, created_at
		FROM token_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
