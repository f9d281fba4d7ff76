package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/atomicwallet/ledger/internal/platform/errors"
	"github.com/atomicwallet/ledger/internal/wallet/storage"
)

type fakeService struct {
	createWallet func(ctx context.Context, username string) (storage.Wallet, bool, error)
	balance      func(ctx context.Context, username string) (int64, error)
	transfers    func(ctx context.Context, username string) ([]storage.Transfer, error)
	transfer     func(ctx context.Context, sender, receiver string, amount int64) (storage.Transfer, error)
}

func (f *fakeService) CreateWallet(ctx context.Context, username string) (storage.Wallet, bool, error) {
	return f.createWallet(ctx, username)
}

func (f *fakeService) Balance(ctx context.Context, username string) (int64, error) {
	return f.balance(ctx, username)
}

func (f *fakeService) Transfers(ctx context.Context, username string) ([]storage.Transfer, error) {
	return f.transfers(ctx, username)
}

func (f *fakeService) Transfer(ctx context.Context, sender, receiver string, amount int64) (storage.Transfer, error) {
	return f.transfer(ctx, sender, receiver, amount)
}

func newTestMux(t *testing.T, service Service) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	New(service).Register(mux)
	return mux
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func TestCreateWalletResponses(t *testing.T) {
	wallet := storage.Wallet{ID: 1, Username: "alice", Balance: 10000}

	created := true
	mux := newTestMux(t, &fakeService{
		createWallet: func(_ context.Context, username string) (storage.Wallet, bool, error) {
			if username != "alice" {
				t.Fatalf("username = %q, want alice", username)
			}
			return wallet, created, nil
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/create_wallet", strings.NewReader(`{"username":"alice"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["msg"] != "Wallet created for alice with $100.00" {
		t.Fatalf("unexpected msg: %v", body["msg"])
	}

	created = false
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/create_wallet", strings.NewReader(`{"username":"alice"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("existing status = %d, want 200", rec.Code)
	}
	body = decodeBody(t, rec)
	if body["msg"] != "User already exists" {
		t.Fatalf("unexpected msg: %v", body["msg"])
	}
}

func TestCreateWalletRejectsMalformedBody(t *testing.T) {
	mux := newTestMux(t, &fakeService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/create_wallet", strings.NewReader(`{not json`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBalanceResponses(t *testing.T) {
	mux := newTestMux(t, &fakeService{
		balance: func(_ context.Context, username string) (int64, error) {
			if username == "alice" {
				return 7550, nil
			}
			return 0, apperrors.New(apperrors.CodeWalletNotFound, "wallet does not exist")
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance/alice", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["username"] != "alice" {
		t.Fatalf("username = %v, want alice", body["username"])
	}
	if body["balance"] != 75.5 {
		t.Fatalf("balance = %v, want 75.5", body["balance"])
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance/ghost", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown wallet status = %d, want 404", rec.Code)
	}
}

func TestTransferConvertsDollarsToCents(t *testing.T) {
	var gotAmount int64
	mux := newTestMux(t, &fakeService{
		transfer: func(_ context.Context, sender, receiver string, amount int64) (storage.Transfer, error) {
			gotAmount = amount
			return storage.Transfer{ID: 7, SenderID: 1, ReceiverID: 2, Amount: amount}, nil
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost,
		"/transfer",
		strings.NewReader(`{"sender_username":"alice","receiver_username":"bob","amount_dollars":10.559}`),
	))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// Truncation, not rounding.
	if gotAmount != 1055 {
		t.Fatalf("amount = %d cents, want 1055", gotAmount)
	}
	body := decodeBody(t, rec)
	if body["status"] != "success" {
		t.Fatalf("status field = %v, want success", body["status"])
	}
	if body["tx_id"] != float64(7) {
		t.Fatalf("tx_id = %v, want 7", body["tx_id"])
	}
	if body["message"] != "Transferred $10.55 from alice to bob" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestTransferErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing wallet", apperrors.New(apperrors.CodeWalletNotFound, "wallet does not exist"), http.StatusNotFound},
		{"insufficient funds", apperrors.New(apperrors.CodeInsufficientFunds, "sender balance is below the transfer amount"), http.StatusBadRequest},
		{"storage failure", apperrors.New(apperrors.CodeStorageFailure, "commit transfer"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		mux := newTestMux(t, &fakeService{
			transfer: func(context.Context, string, string, int64) (storage.Transfer, error) {
				return storage.Transfer{}, tc.err
			},
		})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(
			http.MethodPost,
			"/transfer",
			strings.NewReader(`{"sender_username":"alice","receiver_username":"bob","amount_dollars":10}`),
		))
		if rec.Code != tc.wantStatus {
			t.Fatalf("%s: status = %d, want %d", tc.name, rec.Code, tc.wantStatus)
		}
		body := decodeBody(t, rec)
		if body["error"] == "" {
			t.Fatalf("%s: expected error field", tc.name)
		}
	}
}

func TestTransferRejectsNonPositiveDollarsAtBoundary(t *testing.T) {
	mux := newTestMux(t, &fakeService{
		transfer: func(context.Context, string, string, int64) (storage.Transfer, error) {
			t.Fatal("service should not be reached for non-positive amounts")
			return storage.Transfer{}, nil
		},
	})

	for _, body := range []string{
		`{"sender_username":"alice","receiver_username":"bob","amount_dollars":0}`,
		`{"sender_username":"alice","receiver_username":"bob","amount_dollars":-5}`,
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	}
}

func TestTransfersListsHistory(t *testing.T) {
	timestamp := time.Date(2026, time.March, 1, 10, 30, 0, 0, time.UTC)
	mux := newTestMux(t, &fakeService{
		transfers: func(_ context.Context, username string) ([]storage.Transfer, error) {
			if username != "alice" {
				t.Fatalf("username = %q, want alice", username)
			}
			return []storage.Transfer{
				{ID: 1, SenderID: 1, ReceiverID: 2, Amount: 1000, Timestamp: timestamp},
				{ID: 2, SenderID: 2, ReceiverID: 1, Amount: 250, Timestamp: timestamp},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transfers/alice", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	entries, ok := body["transfers"].([]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("unexpected transfers payload: %v", body["transfers"])
	}
	first := entries[0].(map[string]any)
	if first["amount"] != 10.0 {
		t.Fatalf("first amount = %v, want 10.0", first["amount"])
	}
}

func TestRoutesRejectWrongMethods(t *testing.T) {
	mux := newTestMux(t, &fakeService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/create_wallet", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /create_wallet status = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transfer", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /transfer status = %d, want 405", rec.Code)
	}
}
