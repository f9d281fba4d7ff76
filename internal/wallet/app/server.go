// Package app wires the wallet runtime and HTTP/gRPC lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/atomicwallet/ledger/internal/platform/config"
	"github.com/atomicwallet/ledger/internal/platform/timeouts"
	"github.com/atomicwallet/ledger/internal/wallet/api/rest"
	"github.com/atomicwallet/ledger/internal/wallet/ledger"
	walletservice "github.com/atomicwallet/ledger/internal/wallet/service"
	walletsqlite "github.com/atomicwallet/ledger/internal/wallet/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

type serverEnv struct {
	DBPath string `env:"ATOMIC_WALLET_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "wallet.db")
	}
	return cfg
}

// Server hosts the wallet JSON API, the gRPC health service, and the
// storage lifecycle.
type Server struct {
	httpListener   net.Listener
	httpServer     *http.Server
	healthListener net.Listener
	grpcServer     *grpc.Server
	health         *health.Server
	store          *walletsqlite.Store
}

// New creates a configured wallet server listening on the provided ports.
func New(port, healthPort int) (*Server, error) {
	return NewWithAddrs(fmt.Sprintf(":%d", port), fmt.Sprintf(":%d", healthPort))
}

// NewWithAddrs creates a configured wallet server for the provided addresses.
func NewWithAddrs(addr, healthAddr string) (*Server, error) {
	httpListener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	healthListener, err := net.Listen("tcp", healthAddr)
	if err != nil {
		_ = httpListener.Close()
		return nil, fmt.Errorf("listen on %s: %w", healthAddr, err)
	}

	srvEnv := loadServerEnv()
	store, err := openWalletStore(srvEnv.DBPath)
	if err != nil {
		_ = httpListener.Close()
		_ = healthListener.Close()
		return nil, err
	}

	engine := ledger.NewEngine(store)
	service := walletservice.New(store, engine)

	mux := http.NewServeMux()
	rest.New(service).Register(mux)
	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("wallet", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		httpListener:   httpListener,
		httpServer:     httpServer,
		healthListener: healthListener,
		grpcServer:     grpcServer,
		health:         healthServer,
		store:          store,
	}, nil
}

// Addr returns the HTTP listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the gRPC health listener address for the server.
func (s *Server) HealthAddr() string {
	if s == nil || s.healthListener == nil {
		return ""
	}
	return s.healthListener.Addr().String()
}

// Run creates and serves a wallet server until context cancellation.
func Run(ctx context.Context, port, healthPort int) error {
	server, err := New(port, healthPort)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP and health servers until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("wallet server listening at %v (health at %v)", s.httpListener.Addr(), s.healthListener.Addr())

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()
	grpcErr := make(chan error, 1)
	go func() {
		grpcErr <- s.grpcServer.Serve(s.healthListener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown http server: %v", err)
		}
		s.grpcServer.GracefulStop()
		<-grpcErr
		err := <-httpErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-httpErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-grpcErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve health gRPC: %w", err)
	}
}

// Close releases wallet server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.healthListener != nil {
		_ = s.healthListener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close wallet store: %v", err)
		}
	}
}

func openWalletStore(path string) (*walletsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := walletsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wallet sqlite store: %w", err)
	}
	return store, nil
}
