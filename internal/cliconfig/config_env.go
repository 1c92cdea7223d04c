package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (CASELEDGER_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("rpc-url", os.Getenv("CASELEDGER_RPC_URL"), &cfg.RPCURL)
	s.setString("deployment", os.Getenv("CASELEDGER_DEPLOYMENT_FILE"), &cfg.DeploymentFile)
	s.setString("from", os.Getenv("CASELEDGER_FROM_ACCOUNT"), &cfg.FromAccount)
	s.setString("metrics-addr", os.Getenv("CASELEDGER_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("CASELEDGER_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("poll", os.Getenv("CASELEDGER_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("confirm-poll", os.Getenv("CASELEDGER_CONFIRM_POLL_INTERVAL"), &cfg.ConfirmPollInterval); err != nil {
		return err
	}
	if err := s.setDuration("confirm-poll-max", os.Getenv("CASELEDGER_CONFIRM_POLL_MAX"), &cfg.ConfirmPollMax); err != nil {
		return err
	}
	if err := s.setDuration("call-timeout", os.Getenv("CASELEDGER_CALL_TIMEOUT"), &cfg.CallTimeout); err != nil {
		return err
	}

	if err := s.setFloatFromString("rpc-rate-limit", os.Getenv("CASELEDGER_RPC_RATE_LIMIT"), &cfg.RPCRateLimit); err != nil {
		return err
	}
	if err := s.setIntFromString("rpc-burst", os.Getenv("CASELEDGER_RPC_BURST"), &cfg.RPCBurst); err != nil {
		return err
	}

	s.setBoolFromString("simulated", os.Getenv("CASELEDGER_SIMULATED"), &cfg.Simulated)
	s.setBoolFromString("log-json", os.Getenv("CASELEDGER_LOG_JSON"), &cfg.LogJSON)
	s.setBoolFromString("watch-config", os.Getenv("CASELEDGER_WATCH_CONFIG"), &cfg.WatchConfig)

	return nil
}
