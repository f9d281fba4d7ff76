// Package storage defines persistence contracts for wallet and ledger state.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested wallet record is missing.
var ErrNotFound = errors.New("record not found")

// Wallet stores one named account balance in integer cents.
type Wallet struct {
	ID        int64
	Username  string
	Balance   int64
	CreatedAt time.Time
}

// Transfer stores one committed ledger entry. Rows are append-only.
type Transfer struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Amount     int64
	Timestamp  time.Time
}

// Store persists wallets and the transfer ledger.
type Store interface {
	// CreateWallet inserts a wallet with the opening balance. Creation is
	// idempotent: when the username already exists the stored wallet is
	// returned unmutated.
	CreateWallet(ctx context.Context, username string, openingBalance int64) (Wallet, error)

	// GetWallet returns the wallet for a username, or ErrNotFound.
	GetWallet(ctx context.Context, username string) (Wallet, error)

	// ListTransfers returns ledger entries where the wallet is sender or
	// receiver, in increasing id order.
	ListTransfers(ctx context.Context, walletID int64) ([]Transfer, error)

	// WithinTx runs fn inside a single write transaction. The transaction
	// commits when fn returns nil and rolls back in full otherwise; no
	// partial state is ever durable or visible to readers.
	WithinTx(ctx context.Context, fn func(TxStore) error) error
}

// TxStore exposes mutations valid only for the duration of a WithinTx call.
type TxStore interface {
	// WalletForUpdate reads a wallet row under the transaction's exclusive
	// write lock, or returns ErrNotFound.
	WalletForUpdate(ctx context.Context, username string) (Wallet, error)

	// SetBalance overwrites a wallet balance.
	SetBalance(ctx context.Context, walletID int64, balance int64) error

	// AppendTransfer appends one ledger entry and returns it with its
	// assigned id and timestamp.
	AppendTransfer(ctx context.Context, senderID, receiverID, amount int64) (Transfer, error)
}
