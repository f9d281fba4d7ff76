// Package rest exposes the wallet JSON HTTP API.
package rest

import (
	"context"
	"net/http"

	"github.com/atomicwallet/ledger/internal/wallet/storage"
)

// Service answers wallet operations for the HTTP surface.
type Service interface {
	CreateWallet(ctx context.Context, username string) (storage.Wallet, bool, error)
	Balance(ctx context.Context, username string) (int64, error)
	Transfers(ctx context.Context, username string) ([]storage.Transfer, error)
	Transfer(ctx context.Context, sender, receiver string, amount int64) (storage.Transfer, error)
}

// Module provides the wallet JSON routes.
type Module struct {
	handlers handlers
}

// New returns a wallet API module over the given service.
func New(service Service) Module {
	return Module{handlers: newHandlers(service)}
}

// Register attaches the wallet routes to mux.
func (m Module) Register(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	mux.HandleFunc("POST /create_wallet", m.handlers.handleCreateWallet)
	mux.HandleFunc("GET /balance/{username}", m.handlers.handleBalance)
	mux.HandleFunc("POST /transfer", m.handlers.handleTransfer)
	mux.HandleFunc("GET /transfers/{username}", m.handlers.handleTransfers)
}
