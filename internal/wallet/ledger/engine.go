// Package ledger implements the atomic transfer engine.
//
// A transfer acquires exclusive per-wallet locks in canonical username
// order, validates and mutates both balances inside a single storage
// transaction, and appends one audit record. Every failure path leaves
// balances and the ledger exactly as they were.
package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	apperrors "github.com/atomicwallet/ledger/internal/platform/errors"
	"github.com/atomicwallet/ledger/internal/platform/timeouts"
	"github.com/atomicwallet/ledger/internal/wallet/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/atomicwallet/ledger/internal/wallet/ledger"

// Engine executes transfers against a wallet store.
type Engine struct {
	store    storage.Store
	locks    *lockTable
	lockWait time.Duration
	tracer   trace.Tracer
}

// NewEngine creates a transfer engine over the given store.
func NewEngine(store storage.Store) *Engine {
	return &Engine{
		store:    store,
		locks:    newLockTable(),
		lockWait: timeouts.LockAcquire,
		tracer:   otel.Tracer(tracerName),
	}
}

// NewEngineWithLockWait creates an engine with a custom lock-acquire deadline.
func NewEngineWithLockWait(store storage.Store, lockWait time.Duration) *Engine {
	engine := NewEngine(store)
	if lockWait > 0 {
		engine.lockWait = lockWait
	}
	return engine
}

// Transfer atomically moves amount cents from sender to receiver and
// returns the committed ledger record.
//
// Locks are acquired in lexicographic username order regardless of
// transfer direction. Acquiring in argument order would let two opposed
// transfers hold one lock each and wait on the other forever; the total
// order over usernames excludes that circular wait.
func (e *Engine) Transfer(ctx context.Context, sender, receiver string, amount int64) (storage.Transfer, error) {
	if e == nil || e.store == nil {
		return storage.Transfer{}, apperrors.New(apperrors.CodeStorageFailure, "transfer engine is not configured")
	}
	if amount <= 0 {
		return storage.Transfer{}, apperrors.WithMetadata(
			apperrors.CodeInvalidAmount,
			"transfer amount must be positive",
			map[string]string{"amount": formatCents(amount)},
		)
	}

	ctx, span := e.tracer.Start(ctx, "ledger.Transfer",
		trace.WithAttributes(
			attribute.String("wallet.sender", sender),
			attribute.String("wallet.receiver", receiver),
			attribute.Int64("transfer.amount_cents", amount),
		),
	)
	defer span.End()

	first, second := canonicalOrder(sender, receiver)

	lockCtx, cancel := context.WithTimeout(ctx, e.lockWait)
	defer cancel()

	if err := e.locks.acquire(lockCtx, first); err != nil {
		return storage.Transfer{}, e.fail(span, apperrors.Wrap(apperrors.CodeStorageFailure, "acquire wallet lock", err))
	}
	defer e.locks.release(first)

	if second != first {
		if err := e.locks.acquire(lockCtx, second); err != nil {
			return storage.Transfer{}, e.fail(span, apperrors.Wrap(apperrors.CodeStorageFailure, "acquire wallet lock", err))
		}
		defer e.locks.release(second)
	}

	var record storage.Transfer
	err := e.store.WithinTx(ctx, func(tx storage.TxStore) error {
		senderWallet, err := resolveWallet(ctx, tx, sender)
		if err != nil {
			return err
		}
		receiverWallet := senderWallet
		if receiver != sender {
			receiverWallet, err = resolveWallet(ctx, tx, receiver)
			if err != nil {
				return err
			}
		}

		if senderWallet.Balance < amount {
			return apperrors.WithMetadata(
				apperrors.CodeInsufficientFunds,
				"sender balance is below the transfer amount",
				map[string]string{
					"username": senderWallet.Username,
					"balance":  formatCents(senderWallet.Balance),
					"amount":   formatCents(amount),
				},
			)
		}

		// A self-transfer nets to zero; only the audit record is written.
		if receiverWallet.ID != senderWallet.ID {
			if err := tx.SetBalance(ctx, senderWallet.ID, senderWallet.Balance-amount); err != nil {
				return err
			}
			if err := tx.SetBalance(ctx, receiverWallet.ID, receiverWallet.Balance+amount); err != nil {
				return err
			}
		}

		record, err = tx.AppendTransfer(ctx, senderWallet.ID, receiverWallet.ID, amount)
		return err
	})
	if err != nil {
		if !apperrors.IsDomain(err) {
			err = apperrors.Wrap(apperrors.CodeStorageFailure, "commit transfer", err)
		}
		return storage.Transfer{}, e.fail(span, err)
	}

	span.SetAttributes(attribute.Int64("transfer.id", record.ID))
	span.SetStatus(codes.Ok, "")
	return record, nil
}

func (e *Engine) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	return err
}

// canonicalOrder returns the two usernames in lexicographic order.
func canonicalOrder(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func formatCents(cents int64) string {
	return strconv.FormatInt(cents, 10)
}

func resolveWallet(ctx context.Context, tx storage.TxStore, username string) (storage.Wallet, error) {
	wallet, err := tx.WalletForUpdate(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Wallet{}, apperrors.WithMetadata(
				apperrors.CodeWalletNotFound,
				"wallet does not exist",
				map[string]string{"username": username},
			)
		}
		return storage.Wallet{}, err
	}
	return wallet, nil
}
