package cliconfig

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RPCURL != DefaultRPCURL {
		t.Errorf("RPCURL = %v, want %v", cfg.RPCURL, DefaultRPCURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.CallTimeout != 0 {
		t.Errorf("CallTimeout = %v, want none", cfg.CallTimeout)
	}
	if !cfg.WatchConfig {
		t.Error("WatchConfig = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func(mut func(*Config)) Config {
		c := DefaultConfig()
		mut(&c)
		return c
	}

	tests := []struct {
		name       string
		config     Config
		wantErr    bool
		wantRPCURL string
	}{
		{
			name:       "defaults",
			config:     DefaultConfig(),
			wantRPCURL: DefaultRPCURL,
		},
		{
			name:       "trailing slash trimmed",
			config:     valid(func(c *Config) { c.RPCURL = "http://node:8545/" }),
			wantRPCURL: "http://node:8545",
		},
		{
			name:    "missing rpc url",
			config:  valid(func(c *Config) { c.RPCURL = "" }),
			wantErr: true,
		},
		{
			name:   "simulated needs no rpc url",
			config: valid(func(c *Config) { c.RPCURL = ""; c.Simulated = true }),
		},
		{
			name:    "bad from account",
			config:  valid(func(c *Config) { c.FromAccount = "alice" }),
			wantErr: true,
		},
		{
			name:       "hex from account",
			config:     valid(func(c *Config) { c.FromAccount = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8" }),
			wantRPCURL: DefaultRPCURL,
		},
		{
			name:    "zero poll interval",
			config:  valid(func(c *Config) { c.PollInterval = 0 }),
			wantErr: true,
		},
		{
			name:    "zero confirm poll interval",
			config:  valid(func(c *Config) { c.ConfirmPollInterval = 0 }),
			wantErr: true,
		},
		{
			name:    "negative call timeout",
			config:  valid(func(c *Config) { c.CallTimeout = -time.Second }),
			wantErr: true,
		},
		{
			name:    "negative rate limit",
			config:  valid(func(c *Config) { c.RPCRateLimit = -1 }),
			wantErr: true,
		},
		{
			name:    "unknown log level",
			config:  valid(func(c *Config) { c.LogLevel = "loud" }),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantRPCURL != "" && cfg.RPCURL != tt.wantRPCURL {
				t.Errorf("RPCURL = %v, want %v", cfg.RPCURL, tt.wantRPCURL)
			}
		})
	}
}

func TestConfig_Validate_Derivations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConfirmPollInterval = 2 * time.Second
	cfg.ConfirmPollMax = time.Second
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.ConfirmPollMax != 2*time.Second {
		t.Errorf("ConfirmPollMax = %v, want raised to 2s", cfg.ConfirmPollMax)
	}
}

func TestConfig_Level(t *testing.T) {
	cfg := Config{LogLevel: "DEBUG"}
	lvl, err := cfg.Level()
	if err != nil || lvl != zerolog.DebugLevel {
		t.Errorf("Level() = %v, %v", lvl, err)
	}

	cfg.LogLevel = ""
	if lvl, _ := cfg.Level(); lvl != zerolog.InfoLevel {
		t.Errorf("empty level = %v, want info", lvl)
	}
}

func TestConfig_From(t *testing.T) {
	cfg := Config{}
	if cfg.From() != (common.Address{}) {
		t.Error("From() should be zero when unset")
	}
	cfg.FromAccount = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	if cfg.From() != common.HexToAddress(cfg.FromAccount) {
		t.Errorf("From() = %v", cfg.From())
	}
}
