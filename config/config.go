// Package config loads the client configuration from the environment, after
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "RPSX_"

// Config is the client configuration.
type Config struct {
	RPCURL           string        `env:"RPC_URL" envDefault:"ws://127.0.0.1:8545"`
	ContractAddress  string        `env:"CONTRACT_ADDRESS"`
	PrivateKey       string        `env:"PRIVATE_KEY"`
	SecretsPath      string        `env:"SECRETS_PATH" envDefault:"rpsx-secrets.db"`
	AlertTTL         time.Duration `env:"ALERT_TTL" envDefault:"10s"`
	ReceiptTimeout   time.Duration `env:"RECEIPT_TIMEOUT" envDefault:"2m"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint     string        `env:"OTEL_ENDPOINT"`
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"rpsx"`
	// TraceSampleRatio is the share of root traces kept, in [0, 1].
	TraceSampleRatio float64       `env:"TRACE_SAMPLE_RATIO" envDefault:"1"`
}

// Load reads the given .env files, skipping missing ones, then parses the
// environment. Variables already set win over file values.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ValidateLedger checks the settings needed to talk to the contract.
func (c Config) ValidateLedger() error {
	var errs []error
	if strings.TrimSpace(c.RPCURL) == "" {
		errs = append(errs, fmt.Errorf("%sRPC_URL is required", Prefix))
	}
	if !common.IsHexAddress(c.ContractAddress) {
		errs = append(errs, fmt.Errorf("%sCONTRACT_ADDRESS must be a hex address, got %q", Prefix, c.ContractAddress))
	}
	if strings.TrimSpace(c.PrivateKey) == "" {
		errs = append(errs, fmt.Errorf("%sPRIVATE_KEY is required", Prefix))
	}
	if c.ReceiptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%sRECEIPT_TIMEOUT must be positive", Prefix))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%sLOG_LEVEL: %w", Prefix, err)
	}
	return l, nil
}

// DefaultEnvFile is the .env file read by the CLI.
func DefaultEnvFile() string {
	if f := os.Getenv(Prefix + "ENV_FILE"); f != "" {
		return f
	}
	return ".env"
}
