package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atomicwallet/ledger/internal/wallet/storage"
)

// ListTransfers returns ledger entries touching the wallet in id order.
func (s *Store) ListTransfers(ctx context.Context, walletID int64) ([]storage.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, sender_id, receiver_id, amount, timestamp
		 FROM transfers
		 WHERE sender_id = ? OR receiver_id = ?
		 ORDER BY id ASC`,
		walletID,
		walletID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []storage.Transfer
	for rows.Next() {
		var transfer storage.Transfer
		var timestampMS int64
		if err := rows.Scan(
			&transfer.ID,
			&transfer.SenderID,
			&transfer.ReceiverID,
			&transfer.Amount,
			&timestampMS,
		); err != nil {
			return nil, fmt.Errorf("scan transfer row: %w", err)
		}
		transfer.Timestamp = fromMillis(timestampMS)
		transfers = append(transfers, transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer rows: %w", err)
	}
	return transfers, nil
}

// WithinTx runs fn inside one write transaction. The transaction commits
// when fn returns nil and rolls back in full on error.
func (s *Store) WithinTx(ctx context.Context, fn func(storage.TxStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if fn == nil {
		return fmt.Errorf("transaction function is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// txStore exposes mutations scoped to one open transaction.
type txStore struct {
	tx *sql.Tx
}

// WalletForUpdate reads a wallet row under the transaction's writer lock.
func (t *txStore) WalletForUpdate(ctx context.Context, username string) (storage.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return storage.Wallet{}, err
	}
	row := t.tx.QueryRowContext(
		ctx,
		`SELECT id, username, balance, created_at FROM wallets WHERE username = ?`,
		username,
	)
	return scanWallet(row)
}

// SetBalance overwrites a wallet balance.
func (t *txStore) SetBalance(ctx context.Context, walletID int64, balance int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := t.tx.ExecContext(
		ctx,
		`UPDATE wallets SET balance = ? WHERE id = ?`,
		balance,
		walletID,
	)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set balance rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AppendTransfer appends one ledger entry with an assigned id and timestamp.
func (t *txStore) AppendTransfer(ctx context.Context, senderID, receiverID, amount int64) (storage.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return storage.Transfer{}, err
	}
	if amount <= 0 {
		return storage.Transfer{}, fmt.Errorf("transfer amount must be positive")
	}

	timestamp := time.Now().UTC().Truncate(time.Millisecond)
	result, err := t.tx.ExecContext(
		ctx,
		`INSERT INTO transfers (sender_id, receiver_id, amount, timestamp)
		 VALUES (?, ?, ?, ?)`,
		senderID,
		receiverID,
		amount,
		toMillis(timestamp),
	)
	if err != nil {
		return storage.Transfer{}, fmt.Errorf("append transfer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return storage.Transfer{}, fmt.Errorf("transfer last insert id: %w", err)
	}
	return storage.Transfer{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Timestamp:  timestamp,
	}, nil
}

var _ storage.Store = (*Store)(nil)
