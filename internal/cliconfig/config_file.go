package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	RPCURL              string  `toml:"rpc_url"`
	Simulated           *bool   `toml:"simulated"`
	DeploymentFile      string  `toml:"deployment_file"`
	FromAccount         string  `toml:"from_account"`
	PollInterval        string  `toml:"poll_interval"`
	ConfirmPollInterval string  `toml:"confirm_poll_interval"`
	ConfirmPollMax      string  `toml:"confirm_poll_max"`
	CallTimeout         string  `toml:"call_timeout"`
	RPCRateLimit        float64 `toml:"rpc_rate_limit"`
	RPCBurst            int     `toml:"rpc_burst"`
	MetricsAddr         string  `toml:"metrics_addr"`
	LogLevel            string  `toml:"log_level"`
	LogJSON             *bool   `toml:"log_json"`
	WatchConfig         *bool   `toml:"watch_config"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.caseledger/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".caseledger", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("rpc-url", fc.RPCURL, &cfg.RPCURL)
	s.setString("deployment", fc.DeploymentFile, &cfg.DeploymentFile)
	s.setString("from", fc.FromAccount, &cfg.FromAccount)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("confirm-poll", fc.ConfirmPollInterval, &cfg.ConfirmPollInterval); err != nil {
		return err
	}
	if err := s.setDuration("confirm-poll-max", fc.ConfirmPollMax, &cfg.ConfirmPollMax); err != nil {
		return err
	}
	if err := s.setDuration("call-timeout", fc.CallTimeout, &cfg.CallTimeout); err != nil {
		return err
	}

	s.setFloat("rpc-rate-limit", fc.RPCRateLimit, &cfg.RPCRateLimit)
	s.setInt("rpc-burst", fc.RPCBurst, &cfg.RPCBurst)

	s.setBool("simulated", fc.Simulated, &cfg.Simulated)
	s.setBool("log-json", fc.LogJSON, &cfg.LogJSON)
	s.setBool("watch-config", fc.WatchConfig, &cfg.WatchConfig)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
