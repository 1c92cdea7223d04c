package cliconfig

import (
	"os"

	"github.com/rs/zerolog"

	logAdapter "github.com/bft-labs/caseledger/internal/adapters/log"
)

// Logger builds the CLI logger: console output on stderr, or JSON lines
// when LogJSON is set.
func Logger(cfg Config) zerolog.Logger {
	lvl, err := cfg.Level()
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if cfg.LogJSON {
		return logAdapter.NewLogger(os.Stderr, lvl)
	}
	return logAdapter.NewConsoleLogger(lvl)
}
