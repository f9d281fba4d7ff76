package wallet

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("wallet", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8000 {
		t.Fatalf("default port = %d, want 8000", cfg.Port)
	}
	if cfg.HealthPort != 8001 {
		t.Fatalf("default health port = %d, want 8001", cfg.HealthPort)
	}
}

func TestParseConfigEnvOverride(t *testing.T) {
	t.Setenv("ATOMIC_WALLET_PORT", "9200")
	fs := flag.NewFlagSet("wallet", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9200 {
		t.Fatalf("env port = %d, want 9200", cfg.Port)
	}
}

func TestParseConfigFlagBeatsEnv(t *testing.T) {
	t.Setenv("ATOMIC_WALLET_PORT", "9200")
	fs := flag.NewFlagSet("wallet", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-port", "9300"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9300 {
		t.Fatalf("flag port = %d, want 9300", cfg.Port)
	}
}
