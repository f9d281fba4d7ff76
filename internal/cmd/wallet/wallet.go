// Package wallet parses wallet service flags and launches the service.
package wallet

import (
	"context"
	"flag"

	entrypoint "github.com/atomicwallet/ledger/internal/platform/cmd"
	server "github.com/atomicwallet/ledger/internal/wallet/app"
)

// Config holds wallet command configuration.
type Config struct {
	Port       int `env:"ATOMIC_WALLET_PORT" envDefault:"8000"`
	HealthPort int `env:"ATOMIC_WALLET_HEALTH_PORT" envDefault:"8001"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The wallet HTTP API port")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The wallet gRPC health port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the wallet API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWallet, func(context.Context) error {
		return server.Run(ctx, cfg.Port, cfg.HealthPort)
	})
}
