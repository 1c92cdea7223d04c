package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/caseledger"
	"github.com/bft-labs/caseledger/internal/cliconfig"
	"github.com/bft-labs/caseledger/internal/configwatch"
	"github.com/bft-labs/caseledger/internal/ports"
)

func (c *cli) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Hold a session open and print every change as a JSON line",
		Long: `Connects, then prints the session each time it changes until interrupted.
A network change, or an edit to the config or deployment file, rebuilds
the client from configuration and reconnects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.watch(cmd.Context(), newPrinter(cmd.OutOrStdout(), false))
		},
	}
}

// watch runs one client per configuration generation until ctx is done.
func (c *cli) watch(ctx context.Context, out *printer) error {
	e := c.newEnv()
	defer func() { e.close() }()

	for generation := 1; ; generation++ {
		reason, err := c.watchOnce(ctx, e, out)
		if err != nil {
			return err
		}
		if reason == "" {
			return nil
		}

		e.logger.Info("reloading client",
			ports.String("reason", reason),
			ports.Int("generation", generation+1),
		)
		prev := c.cfg
		if err := c.reloadConfig(); err != nil {
			e.logger.Error("reload configuration, keeping the previous one", ports.Err(err))
			continue
		}
		if envChanged(prev, c.cfg) {
			e.close()
			e = c.newEnv()
		}
	}
}

// envChanged reports whether the logger or metrics settings differ.
func envChanged(prev, next cliconfig.Config) bool {
	return prev.LogLevel != next.LogLevel ||
		prev.LogJSON != next.LogJSON ||
		prev.MetricsAddr != next.MetricsAddr
}

// watchOnce serves a single client. It returns the reload reason, or ""
// when ctx ended.
func (c *cli) watchOnce(ctx context.Context, e *env, out *printer) (string, error) {
	reload := make(chan string, 1)
	requestReload := func(reason string) {
		select {
		case reload <- reason:
		default:
		}
	}

	client, closeFn, err := c.newClient(ctx, e, requestReload)
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}
	defer closeFn()

	unsubscribe := client.Subscribe(func(s caseledger.Session) {
		if err := out.print(viewSession(s)); err != nil {
			e.logger.Warn("print session", ports.Err(err))
		}
	})
	defer unsubscribe()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if c.cfg.WatchConfig {
		w := configwatch.New(func(path string) {
			requestReload("configuration changed: " + path)
		}, e.logger, c.cfgFile, c.cfg.DeploymentFile)
		go func() {
			if err := w.Run(watchCtx); err != nil {
				e.logger.Warn("config watcher stopped", ports.Err(err))
			}
		}()
	}

	if err := client.Connect(ctx); err != nil {
		// the session already reports the fault; keep watching for a reload
		e.logger.Error("connect", ports.Err(err))
	}

	select {
	case <-ctx.Done():
		return "", nil
	case reason := <-reload:
		return reason, nil
	}
}
