package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const contract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AlertTTL != 10*time.Second {
		t.Fatalf("expected 10s alert ttl, got %v", cfg.AlertTTL)
	}
	if cfg.ReceiptTimeout != 2*time.Minute {
		t.Fatalf("expected 2m receipt timeout, got %v", cfg.ReceiptTimeout)
	}
	if cfg.SecretsPath != "rpsx-secrets.db" {
		t.Fatalf("unexpected secrets path %q", cfg.SecretsPath)
	}
	if cfg.TraceSampleRatio != 1 {
		t.Fatalf("expected every trace sampled, got %v", cfg.TraceSampleRatio)
	}
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	data := "RPSX_CONTRACT_ADDRESS=" + contract + "\nRPSX_LOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RPSX_LOG_LEVEL", "warn")
	// godotenv sets variables on the process; restore them after the test.
	t.Setenv("RPSX_CONTRACT_ADDRESS", "")
	os.Unsetenv("RPSX_CONTRACT_ADDRESS")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ContractAddress != contract {
		t.Fatalf("expected contract from file, got %q", cfg.ContractAddress)
	}
	level, err := cfg.Level()
	if err != nil || level != slog.LevelWarn {
		t.Fatalf("environment must win over the file, got %v, %v", level, err)
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("RPSX_ALERT_TTL", "soon")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidateLedger(t *testing.T) {
	cfg := Config{RPCURL: "ws://node", ContractAddress: contract, PrivateKey: "abc", ReceiptTimeout: time.Second}
	if err := cfg.ValidateLedger(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	err := Config{}.ValidateLedger()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, name := range []string{"RPC_URL", "CONTRACT_ADDRESS", "PRIVATE_KEY", "RECEIPT_TIMEOUT"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("missing complaint about %s in %v", name, err)
		}
	}
}

func TestLevelRejectsGarbage(t *testing.T) {
	if _, err := (Config{LogLevel: "loud"}).Level(); err == nil {
		t.Fatal("expected error")
	}
}
