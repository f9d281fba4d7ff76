package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	apperrors "github.com/atomicwallet/ledger/internal/platform/errors"
	"github.com/atomicwallet/ledger/internal/wallet/money"
	"github.com/atomicwallet/ledger/internal/wallet/storage"
)

type handlers struct {
	service Service
}

func newHandlers(service Service) handlers {
	return handlers{service: service}
}

type createWalletRequest struct {
	Username string `json:"username"`
}

type transferRequest struct {
	SenderUsername   string  `json:"sender_username"`
	ReceiverUsername string  `json:"receiver_username"`
	AmountDollars    float64 `json:"amount_dollars"`
}

type transferView struct {
	ID            int64   `json:"id"`
	SenderID      int64   `json:"sender_id"`
	ReceiverID    int64   `json:"receiver_id"`
	AmountDollars float64 `json:"amount"`
	Timestamp     string  `json:"timestamp"`
}

func (h handlers) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var payload createWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, apperrors.New(apperrors.CodeInvalidRequest, "invalid json body"))
		return
	}

	wallet, created, err := h.service.CreateWallet(r.Context(), payload.Username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	msg := "User already exists"
	if created {
		msg = fmt.Sprintf("Wallet created for %s with %s", wallet.Username, money.FormatDollars(wallet.Balance))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"msg":      msg,
		"username": wallet.Username,
	})
}

func (h handlers) handleBalance(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	balance, err := h.service.Balance(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"username": username,
		"balance":  money.DollarsFromCents(balance),
	})
}

func (h handlers) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var payload transferRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, apperrors.New(apperrors.CodeInvalidRequest, "invalid json body"))
		return
	}

	if payload.AmountDollars <= 0 {
		h.writeError(w, apperrors.New(apperrors.CodeInvalidAmount, "transfer amount must be positive"))
		return
	}

	// Display dollars convert to cents exactly once, at this boundary.
	amount := money.CentsFromDollars(payload.AmountDollars)
	record, err := h.service.Transfer(r.Context(), payload.SenderUsername, payload.ReceiverUsername, amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"tx_id":  record.ID,
		"message": fmt.Sprintf(
			"Transferred %s from %s to %s",
			money.FormatDollars(record.Amount),
			payload.SenderUsername,
			payload.ReceiverUsername,
		),
	})
}

func (h handlers) handleTransfers(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	records, err := h.service.Transfers(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	views := make([]transferView, 0, len(records))
	for _, record := range records {
		views = append(views, newTransferView(record))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"username":  username,
		"transfers": views,
	})
}

func newTransferView(record storage.Transfer) transferView {
	return transferView{
		ID:            record.ID,
		SenderID:      record.SenderID,
		ReceiverID:    record.ReceiverID,
		AmountDollars: money.DollarsFromCents(record.Amount),
		Timestamp:     record.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func (h handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write json response: %v", err)
	}
}

func (h handlers) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	body := map[string]any{"error": err.Error()}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		body["code"] = domainErr.Code
		for key, value := range domainErr.Metadata {
			body[key] = value
		}
	}
	h.writeJSON(w, status, body)
}
