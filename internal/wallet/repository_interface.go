package wallet

import (
	"context"

	"tokenbook/internal/db"
)

type Repository interface {
	Create(ctx context.Context, q db.Queryer, userID int) (*Wallet, error)
	GetByUserID(ctx context.Context, userID int) (*Wallet, error)
	GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
}
