package wallet

import "time"

type TxType string

const (
	TxPurchase       TxType = "PURCHASE"
	TxBookingPayment TxType = "BOOKING_PAYMENT"
	TxBookingRefund  TxType = "BOOKING_REFUND"
	TxWithdrawal     TxType = "WITHDRAWAL"
	TxEarning        TxType = "EARNING"
)

// Wallet amounts are whole tokens.
type Wallet struct {
	ID            int       `db:"id" json:"id"`
	UserID        int       `db:"user_id" json:"userId"`
	Balance       int64     `db:"balance" json:"balance"`
	EscrowBalance int64     `db:"escrow_balance" json:"escrowBalance"`
	TotalEarned   int64     `db:"total_earned" json:"totalEarned"`
	TotalSpent    int64     `db:"total_spent" json:"totalSpent"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Transaction is an append-only ledger row. PreviousBalance/NewBalance track
// the spendable balance of the wallet it belongs to.
type Transaction struct {
	ID              int       `db:"id" json:"id"`
	UserID          int       `db:"user_id" json:"userId"`
	WalletID        int       `db:"wallet_id" json:"walletId"`
	Type            TxType    `db:"type" json:"type"`
	Amount          int64     `db:"amount" json:"amount"`
	PreviousBalance int64     `db:"previous_balance" json:"previousBalance"`
	NewBalance      int64     `db:"new_balance" json:"newBalance"`
	BookingID       *int      `db:"booking_id" json:"bookingId,omitempty"`
	Description     string    `db:"description" json:"description"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

type AmountRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0,lte=1000000000"`
}

type WalletResponse struct {
	Success bool    `json:"success"`
	Wallet  *Wallet `json:"wallet"`
}
