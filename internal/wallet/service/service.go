// Package service exposes the wallet query surface over the store and engine.
package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/atomicwallet/ledger/internal/platform/errors"
	"github.com/atomicwallet/ledger/internal/wallet/ledger"
	"github.com/atomicwallet/ledger/internal/wallet/storage"
)

// OpeningBalanceCents is granted once when a wallet is first created.
const OpeningBalanceCents = 10000

// Service answers wallet queries and routes transfers to the engine.
type Service struct {
	store  storage.Store
	engine *ledger.Engine
}

// New creates a wallet service over the given store and engine.
func New(store storage.Store, engine *ledger.Engine) *Service {
	return &Service{store: store, engine: engine}
}

// CreateWallet creates a wallet with the opening bonus. Creation is
// idempotent: the returned bool reports whether a new wallet was created.
func (s *Service) CreateWallet(ctx context.Context, username string) (storage.Wallet, bool, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return storage.Wallet{}, false, err
	}

	existing, err := s.store.GetWallet(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.Wallet{}, false, apperrors.Wrap(apperrors.CodeStorageFailure, "look up wallet", err)
	}

	// Two concurrent creates can both reach this insert; the store resolves
	// the race idempotently and only the first applies the bonus.
	wallet, err := s.store.CreateWallet(ctx, username, OpeningBalanceCents)
	if err != nil {
		return storage.Wallet{}, false, apperrors.Wrap(apperrors.CodeStorageFailure, "create wallet", err)
	}
	return wallet, true, nil
}

// Balance returns a wallet balance in cents.
func (s *Service) Balance(ctx context.Context, username string) (int64, error) {
	wallet, err := s.lookup(ctx, username)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// Transfers returns the ledger entries touching a wallet in id order.
func (s *Service) Transfers(ctx context.Context, username string) ([]storage.Transfer, error) {
	wallet, err := s.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	transfers, err := s.store.ListTransfers(ctx, wallet.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list transfers", err)
	}
	return transfers, nil
}

// Transfer atomically moves amount cents between two wallets.
func (s *Service) Transfer(ctx context.Context, sender, receiver string, amount int64) (storage.Transfer, error) {
	sender, err := normalizeUsername(sender)
	if err != nil {
		return storage.Transfer{}, err
	}
	receiver, err = normalizeUsername(receiver)
	if err != nil {
		return storage.Transfer{}, err
	}
	return s.engine.Transfer(ctx, sender, receiver, amount)
}

func (s *Service) lookup(ctx context.Context, username string) (storage.Wallet, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return storage.Wallet{}, err
	}
	wallet, err := s.store.GetWallet(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Wallet{}, apperrors.WithMetadata(
				apperrors.CodeWalletNotFound,
				"wallet does not exist",
				map[string]string{"username": username},
			)
		}
		return storage.Wallet{}, apperrors.Wrap(apperrors.CodeStorageFailure, "look up wallet", err)
	}
	return wallet, nil
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperrors.New(apperrors.CodeWalletUsernameEmpty, "username is required")
	}
	return username, nil
}
