package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// DefaultRPCURL is the JSON-RPC endpoint of a local development node.
const DefaultRPCURL = "http://127.0.0.1:8545"

// Config holds CLI configuration for caseledger.
type Config struct {
	RPCURL         string
	Simulated      bool
	DeploymentFile string
	FromAccount    string

	PollInterval        time.Duration
	ConfirmPollInterval time.Duration
	ConfirmPollMax      time.Duration
	CallTimeout         time.Duration

	RPCRateLimit float64
	RPCBurst     int

	MetricsAddr string
	LogLevel    string
	LogJSON     bool
	WatchConfig bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		RPCURL:              DefaultRPCURL,
		PollInterval:        2 * time.Second,
		ConfirmPollInterval: 500 * time.Millisecond,
		ConfirmPollMax:      5 * time.Second,
		RPCRateLimit:        20,
		RPCBurst:            10,
		LogLevel:            "info",
		WatchConfig:         true,
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	c.RPCURL = strings.TrimSuffix(strings.TrimSpace(c.RPCURL), "/")
	if c.RPCURL == "" && !c.Simulated {
		return fmt.Errorf("rpc-url is required (or --simulated)")
	}

	if c.FromAccount != "" && !common.IsHexAddress(c.FromAccount) {
		return fmt.Errorf("from: %q is not a hex address", c.FromAccount)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.ConfirmPollInterval <= 0 {
		return fmt.Errorf("confirm poll interval must be positive")
	}
	if c.ConfirmPollMax < c.ConfirmPollInterval {
		c.ConfirmPollMax = c.ConfirmPollInterval
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("call timeout must not be negative")
	}
	if c.RPCRateLimit < 0 {
		return fmt.Errorf("rpc rate limit must not be negative")
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// From returns the pinned signing account, or the zero address.
func (c *Config) From() common.Address {
	if c.FromAccount == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.FromAccount)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
