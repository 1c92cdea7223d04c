package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/caseledger/internal/cliconfig"
)

const longHelp = `Manage judicial cases, witnesses, evidence, expert proposals and payments
on the case-management contracts.

The client connects to a JSON-RPC endpoint whose accounts sign the
transactions (a dev node with unlocked accounts or a wallet bridge). Every
command connects lazily, prints its result as JSON on stdout and logs to
stderr. Configure via file ($HOME/.caseledger/config.toml), CASELEDGER_*
environment variables, or flags.`

var exampleUsage = strings.TrimSpace(`
  caseledger session
  caseledger case create CASE-2024-01 "Theft investigation" "Stolen goods"
  caseledger case get CASE-2024-01
  caseledger proposal vote 7 yes --rpc-url http://127.0.0.1:8545
  caseledger payment process 3 0.25
  caseledger watch --metrics-addr :9090
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the resolved configuration shared by all subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	// cfgFile is the config file actually loaded, if any.
	cfgFile string
	changed map[string]bool

	// flagCfg is the defaults overlaid with explicitly set flags, the base
	// every reload starts from.
	flagCfg cliconfig.Config
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}
	root := c.rootCommand()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log := cliconfig.Logger(c.cfg)
		log.Error().Err(err).Msg("caseledger")
		os.Exit(1)
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "caseledger",
		Short:         "Client for the judicial case-management contracts",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.caseledger/config.toml)")
	flags.StringVar(&c.cfg.RPCURL, "rpc-url", c.cfg.RPCURL, "JSON-RPC endpoint (http, ws or ipc)")
	flags.BoolVar(&c.cfg.Simulated, "simulated", c.cfg.Simulated, "use an in-memory ledger instead of a node")
	flags.StringVar(&c.cfg.DeploymentFile, "deployment", c.cfg.DeploymentFile, "YAML manifest of contract addresses (default: local devnet)")
	flags.StringVar(&c.cfg.FromAccount, "from", c.cfg.FromAccount, "signing account (default: first exposed account)")
	flags.DurationVar(&c.cfg.PollInterval, "poll", c.cfg.PollInterval, "account/network change poll interval")
	flags.DurationVar(&c.cfg.ConfirmPollInterval, "confirm-poll", c.cfg.ConfirmPollInterval, "initial receipt poll interval")
	flags.DurationVar(&c.cfg.ConfirmPollMax, "confirm-poll-max", c.cfg.ConfirmPollMax, "maximum receipt poll interval")
	flags.DurationVar(&c.cfg.CallTimeout, "call-timeout", c.cfg.CallTimeout, "per-operation timeout, 0 waits indefinitely")
	flags.Float64Var(&c.cfg.RPCRateLimit, "rpc-rate-limit", c.cfg.RPCRateLimit, "max JSON-RPC requests per second, 0 disables")
	flags.IntVar(&c.cfg.RPCBurst, "rpc-burst", c.cfg.RPCBurst, "JSON-RPC request burst")
	flags.StringVar(&c.cfg.MetricsAddr, "metrics-addr", c.cfg.MetricsAddr, "serve Prometheus metrics on this address")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.BoolVar(&c.cfg.LogJSON, "log-json", c.cfg.LogJSON, "log JSON lines instead of console output")
	flags.BoolVar(&c.cfg.WatchConfig, "watch-config", c.cfg.WatchConfig, "rebuild the client when the config or deployment file changes (watch)")

	root.AddCommand(
		c.sessionCommand(),
		c.watchCommand(),
		c.caseCommand(),
		c.witnessCommand(),
		c.evidenceCommand(),
		c.proposalCommand(),
		c.paymentCommand(),
	)
	return root
}

// loadConfig layers the config file, then CASELEDGER_* variables, under
// explicitly set flags.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	c.changed = map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { c.changed[f.Name] = true })
	c.flagCfg = c.cfg
	return c.applySources(cfgFile)
}

// reloadConfig rebuilds the config from defaults and flags, then re-reads
// the file and environment layers. On error the previous config is kept.
func (c *cli) reloadConfig() error {
	prev := c.cfg
	c.cfg = c.flagCfg
	if err := c.applySources(c.cfgFile); err != nil {
		c.cfg = prev
		return err
	}
	return nil
}

// applySources re-reads the file and environment layers into the config.
func (c *cli) applySources(cfgFile string) error {
	changed := c.changed
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
		c.cfgFile = cfgFile
	} else if c.cfgPath != "" {
		return fmt.Errorf("config file %s not found", c.cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}
	return c.cfg.Validate()
}
