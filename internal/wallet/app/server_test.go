package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func startTestServer(t *testing.T) (*Server, context.CancelFunc, chan error) {
	t.Helper()
	t.Setenv("ATOMIC_WALLET_DB_PATH", t.TempDir()+"/wallet.db")

	server, err := NewWithAddrs("127.0.0.1:0", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ctx)
	}()
	return server, cancel, serveErr
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestServerServesWalletAPI(t *testing.T) {
	server, cancel, serveErr := startTestServer(t)
	defer cancel()

	base := "http://" + server.Addr()

	resp := postJSON(t, base+"/create_wallet", map[string]any{"username": "alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create alice status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
	resp = postJSON(t, base+"/create_wallet", map[string]any{"username": "bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create bob status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postJSON(t, base+"/transfer", map[string]any{
		"sender_username":   "alice",
		"receiver_username": "bob",
		"amount_dollars":    25.0,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transfer status = %d", resp.StatusCode)
	}
	var transferBody map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&transferBody); err != nil {
		t.Fatalf("decode transfer response: %v", err)
	}
	_ = resp.Body.Close()
	if transferBody["status"] != "success" {
		t.Fatalf("transfer response: %v", transferBody)
	}

	getResp, err := http.Get(base + "/balance/alice")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	var balanceBody map[string]any
	if err := json.NewDecoder(getResp.Body).Decode(&balanceBody); err != nil {
		t.Fatalf("decode balance response: %v", err)
	}
	_ = getResp.Body.Close()
	if balanceBody["balance"] != 75.0 {
		t.Fatalf("alice balance = %v, want 75.0", balanceBody["balance"])
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestServerBalancePersistsAcrossRestart(t *testing.T) {
	dbPath := t.TempDir() + "/wallet.db"
	t.Setenv("ATOMIC_WALLET_DB_PATH", dbPath)

	run := func(check func(base string)) {
		server, err := NewWithAddrs("127.0.0.1:0", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("new server: %v", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.Serve(ctx)
		}()
		check("http://" + server.Addr())
		cancel()
		if err := <-serveErr; err != nil {
			t.Fatalf("serve: %v", err)
		}
	}

	run(func(base string) {
		resp := postJSON(t, base+"/create_wallet", map[string]any{"username": "alice"})
		_ = resp.Body.Close()
	})

	run(func(base string) {
		resp, err := http.Get(base + "/balance/alice")
		if err != nil {
			t.Fatalf("get balance: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("balance status after restart = %d", resp.StatusCode)
		}
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode balance: %v", err)
		}
		if body["balance"] != 100.0 {
			t.Fatalf("balance after restart = %v, want 100.0", body["balance"])
		}
	})
}

func TestNewWithAddrsRejectsBusyAddress(t *testing.T) {
	t.Setenv("ATOMIC_WALLET_DB_PATH", t.TempDir()+"/wallet.db")

	server, err := NewWithAddrs("127.0.0.1:0", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer server.Close()

	if _, err := NewWithAddrs(server.Addr(), "127.0.0.1:0"); err == nil {
		t.Fatal("expected listen error on busy address")
	}
}
