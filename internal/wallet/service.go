package wallet

import (
	"context"

	"tokenbook/internal/db"
	"tokenbook/internal/logger"
)

type Service interface {
	GetWallet(ctx context.Context, userID int) (*Wallet, error)
	Purchase(ctx context.Context, userID int, amount int64) (*Wallet, error)
	Withdraw(ctx context.Context, userID int, amount int64) (*Wallet, error)
	ListTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
}

type service struct {
	repo   Repository
	ledger Ledger
	tx     db.Transactor
}

func NewService(repo Repository, ledger Ledger, tx db.Transactor) Service {
	return &service{repo: repo, ledger: ledger, tx: tx}
}

func (s *service) GetWallet(ctx context.Context, userID int) (*Wallet, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Purchase credits tokens bought through an external gateway; settlement with
// the gateway happens before this call.
func (s *service) Purchase(ctx context.Context, userID int, amount int64) (*Wallet, error) {
	err := s.tx.WithinTx(ctx, func(q db.Queryer) error {
		return s.ledger.Credit(ctx, q, userID, amount, TxPurchase)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("tokens purchased", "user_id", userID, "amount", amount)
	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) Withdraw(ctx context.Context, userID int, amount int64) (*Wallet, error) {
	err := s.tx.WithinTx(ctx, func(q db.Queryer) error {
		return s.ledger.Withdraw(ctx, q, userID, amount)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("tokens withdrawn", "user_id", userID, "amount", amount)
	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) ListTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	return s.repo.GetTransactions(ctx, userID, limit, offset)
}
