package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"tokenbook/internal/apperr"
	"tokenbook/internal/db"
	"tokenbook/internal/metrics"
)

const walletColumns = `id, user_id, balance, escrow_balance, total_earned, total_spent, created_at, updated_at`

// Ledger applies the four escrow operations plus withdrawals. Every method
// must run on a transaction handle: wallet rows are locked FOR UPDATE and the
// audit rows are appended before the caller commits.
type Ledger interface {
	Hold(ctx context.Context, q db.Queryer, seekerID int, amount int64, bookingID int) error
	Release(ctx context.Context, q db.Queryer, seekerID, providerID int, amount int64, bookingID int) error
	Refund(ctx context.Context, q db.Queryer, seekerID int, amount int64, bookingID int) error
	Credit(ctx context.Context, q db.Queryer, userID int, amount int64, txType TxType) error
	Withdraw(ctx context.Context, q db.Queryer, userID int, amount int64) error
}

type ledger struct{}

func NewLedger() Ledger {
	return &ledger{}
}

func (l *ledger) Hold(ctx context.Context, q db.Queryer, seekerID int, amount int64, bookingID int) (err error) {
	defer func() { metrics.RecordLedger("hold", amount, err) }()

	w, err := lockByUser(ctx, q, seekerID)
	if err != nil {
		return err
	}
	next, entry, err := applyHold(*w, amount, bookingID)
	if err != nil {
		return err
	}
	return persist(ctx, q, next, entry)
}

func (l *ledger) Release(ctx context.Context, q db.Queryer, seekerID, providerID int, amount int64, bookingID int) (err error) {
	defer func() { metrics.RecordLedger("release", amount, err) }()

	if seekerID == providerID {
		return apperr.ErrValidation.WithMessage("seeker and provider wallets must differ")
	}

	var locked []Wallet
	err = q.SelectContext(ctx, &locked,
		`SELECT `+walletColumns+`
		 FROM wallets
		 WHERE user_id = ANY($1)
		 ORDER BY id
		 FOR UPDATE`,
		pq.Array([]int{seekerID, providerID}),
	)
	if err != nil {
		return fmt.Errorf("lock wallets: %w", err)
	}

	var seeker, provider *Wallet
	for i := range locked {
		switch locked[i].UserID {
		case seekerID:
			seeker = &locked[i]
		case providerID:
			provider = &locked[i]
		}
	}
	if seeker == nil || provider == nil {
		return apperr.NotFound("wallet")
	}

	nextSeeker, nextProvider, entries, err := applyRelease(*seeker, *provider, amount, bookingID)
	if err != nil {
		return err
	}
	if err := persist(ctx, q, nextSeeker, entries[0]); err != nil {
		return err
	}
	return persist(ctx, q, nextProvider, entries[1])
}

func (l *ledger) Refund(ctx context.Context, q db.Queryer, seekerID int, amount int64, bookingID int) (err error) {
	defer func() { metrics.RecordLedger("refund", amount, err) }()

	w, err := lockByUser(ctx, q, seekerID)
	if err != nil {
		return err
	}
	next, entry, err := applyRefund(*w, amount, bookingID)
	if err != nil {
		return err
	}
	return persist(ctx, q, next, entry)
}

func (l *ledger) Credit(ctx context.Context, q db.Queryer, userID int, amount int64, txType TxType) (err error) {
	defer func() { metrics.RecordLedger("credit", amount, err) }()

	w, err := lockByUser(ctx, q, userID)
	if err != nil {
		return err
	}
	next, entry, err := applyCredit(*w, amount, txType)
	if err != nil {
		return err
	}
	return persist(ctx, q, next, entry)
}

func (l *ledger) Withdraw(ctx context.Context, q db.Queryer, userID int, amount int64) (err error) {
	defer func() { metrics.RecordLedger("withdraw", amount, err) }()

	w, err := lockByUser(ctx, q, userID)
	if err != nil {
		return err
	}
	next, entry, err := applyWithdraw(*w, amount)
	if err != nil {
		return err
	}
	return persist(ctx, q, next, entry)
}

func lockByUser(ctx context.Context, q db.Queryer, userID int) (*Wallet, error) {
	var w Wallet
	err := q.GetContext(ctx, &w,
		`SELECT `+walletColumns+`
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("wallet")
	}
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return &w, nil
}

func persist(ctx context.Context, q db.Queryer, w Wallet, entry Transaction) error {
	_, err := q.ExecContext(ctx,
		`UPDATE wallets
		 SET balance = $1, escrow_balance = $2, total_earned = $3, total_spent = $4, updated_at = NOW()
		 WHERE id = $5`,
		w.Balance, w.EscrowBalance, w.TotalEarned, w.TotalSpent, w.ID,
	)
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO token_transactions (user_id, wallet_id, type, amount, previous_balance, new_balance, booking_id, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.UserID, entry.WalletID, entry.Type, entry.Amount,
		entry.PreviousBalance, entry.NewBalance, entry.BookingID, entry.Description,
	)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}

	return nil
}
