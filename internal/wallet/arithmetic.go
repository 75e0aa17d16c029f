package wallet

import (
	"fmt"
	"math"
	"strings"

	"tokenbook/internal/apperr"
)

// The apply* functions are the whole of the ledger's arithmetic. They take a
// locked wallet snapshot and return the next state plus the audit row; the
// SQL layer only loads, persists and appends.

func entryFor(w Wallet, t TxType, amount int64, next Wallet, bookingID *int, desc string) Transaction {
	return Transaction{
		UserID:          w.UserID,
		WalletID:        w.ID,
		Type:            t,
		Amount:          amount,
		PreviousBalance: w.Balance,
		NewBalance:      next.Balance,
		BookingID:       bookingID,
		Description:     desc,
	}
}

// overflows reports whether adding amount to any of the counters would wrap
// past math.MaxInt64.
func overflows(amount int64, counters ...int64) bool {
	for _, c := range counters {
		if amount > math.MaxInt64-c {
			return true
		}
	}
	return false
}

func applyHold(w Wallet, amount int64, bookingID int) (Wallet, Transaction, error) {
	if amount <= 0 {
		return w, Transaction{}, apperr.ErrInvalidAmount
	}
	if w.Balance < amount {
		return w, Transaction{}, apperr.ErrInsufficientFunds
	}
	if overflows(amount, w.EscrowBalance) {
		return w, Transaction{}, apperr.ErrInvalidAmount
	}
	next := w
	next.Balance -= amount
	next.EscrowBalance += amount
	return next, entryFor(w, TxBookingPayment, amount, next, &bookingID,
		fmt.Sprintf("escrow hold for booking %d", bookingID)), nil
}

func applyRefund(w Wallet, amount int64, bookingID int) (Wallet, Transaction, error) {
	if amount <= 0 {
		return w, Transaction{}, apperr.ErrInvalidAmount
	}
	if w.EscrowBalance < amount {
		return w, Transaction{}, apperr.ErrEscrowMismatch
	}
	if overflows(amount, w.Balance) {
		return w, Transaction{}, apperr.ErrInvalidAmount
	}
	next := w
	next.EscrowBalance -= amount
	next.Balance += amount
	return next, entryFor(w, TxBookingRefund, amount, next, &bookingID,
		fmt.Sprintf("escrow refund for booking %d", bookingID)), nil
}

// applyRelease settles escrow from seeker to provider. The seeker row keeps
// its spendable balance unchanged; only escrow and totalSpent move.
func applyRelease(seeker, provider Wallet, amount int64, bookingID int) (Wallet, Wallet, []Transaction, error) {
	if amount <= 0 {
		return seeker, provider, nil, apperr.ErrInvalidAmount
	}
	if seeker.EscrowBalance < amount {
		return seeker, provider, nil, apperr.ErrEscrowMismatch
	}
	if overflows(amount, seeker.TotalSpent, provider.Balance, provider.TotalEarned) {
		return seeker, provider, nil, apperr.ErrInvalidAmount
	}

	nextSeeker := seeker
	nextSeeker.EscrowBalance -= amount
	nextSeeker.TotalSpent += amount

	nextProvider := provider
	nextProvider.Balance += amount
	nextProvider.TotalEarned += amount

	entries := []Transaction{
		entryFor(seeker, TxBookingPayment, amount, nextSeeker, &bookingID,
			fmt.Sprintf("escrow released to provider for booking %d", bookingID)),
		entryFor(provider, TxEarning, amount, nextProvider, &bookingID,
			fmt.Sprintf("earning from booking %d", bookingID)),
	}
	return nextSeeker, nextProvider, entries, nil
}

func applyCredit(w Wallet, amount int64, t TxType) (Wallet, Transaction, error) {
	if amount <= 0 {
		return w, Transaction{}, apperr.ErrInvalidAmount
	}
	if t != TxPurchase && t != TxEarning {
		return w, Transaction{}, apperr.ErrValidation.WithMessage("credit type %s is not allowed", t)
	}
	if overflows(amount, w.Balance) || (t == TxEarning && overflows(amount, w.TotalEarned)) {
		return w, Transaction{}, apperr.ErrInvalidAmount
	}
	next := w
	next.Balance += amount
	if t == TxEarning {
		next.TotalEarned += amount
	}
	return next, entryFor(w, t, amount, next, nil, "token "+strings.ToLower(string(t))), nil
}

func applyWithdraw(w Wallet, amount int64) (Wallet, Transaction, error) {
	if amount <= 0 {
		return w, Transaction{}, apperr.ErrInvalidAmount
	}
	if w.Balance < amount {
		return w, Transaction{}, apperr.ErrInsufficientFunds
	}
	next := w
	next.Balance -= amount
	return next, entryFor(w, TxWithdrawal, amount, next, nil, "token withdrawal"), nil
}
