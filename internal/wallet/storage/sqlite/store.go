// Package sqlite provides a SQLite-backed wallet storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/atomicwallet/ledger/internal/platform/storage/sqlitemigrate"
	"github.com/atomicwallet/ledger/internal/wallet/storage"
	"github.com/atomicwallet/ledger/internal/wallet/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists wallets and the transfer ledger in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite wallet store and applies embedded migrations.
//
// Write transactions begin IMMEDIATE so the database-level writer lock is
// taken at BEGIN rather than at first write.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateWallet inserts a wallet with the opening balance. Re-creating an
// existing username returns the stored wallet unmutated.
func (s *Store) CreateWallet(ctx context.Context, username string, openingBalance int64) (storage.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return storage.Wallet{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Wallet{}, fmt.Errorf("storage is not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return storage.Wallet{}, fmt.Errorf("username is required")
	}
	if openingBalance < 0 {
		return storage.Wallet{}, fmt.Errorf("opening balance must not be negative")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO wallets (username, balance, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(username) DO NOTHING`,
		username,
		openingBalance,
		toMillis(time.Now()),
	)
	if err != nil {
		return storage.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	return s.GetWallet(ctx, username)
}

// GetWallet returns the wallet for a username.
func (s *Store) GetWallet(ctx context.Context, username string) (storage.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return storage.Wallet{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Wallet{}, fmt.Errorf("storage is not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return storage.Wallet{}, fmt.Errorf("username is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, username, balance, created_at FROM wallets WHERE username = ?`,
		username,
	)
	return scanWallet(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (storage.Wallet, error) {
	var wallet storage.Wallet
	var createdAtMS int64
	err := row.Scan(&wallet.ID, &wallet.Username, &wallet.Balance, &createdAtMS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Wallet{}, storage.ErrNotFound
		}
		return storage.Wallet{}, fmt.Errorf("scan wallet: %w", err)
	}
	wallet.CreatedAt = fromMillis(createdAtMS)
	return wallet, nil
}
