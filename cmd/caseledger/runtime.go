package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/caseledger"
	"github.com/bft-labs/caseledger/internal/adapters/ethrpc"
	logAdapter "github.com/bft-labs/caseledger/internal/adapters/log"
	"github.com/bft-labs/caseledger/internal/adapters/simulated"
	"github.com/bft-labs/caseledger/internal/cliconfig"
	"github.com/bft-labs/caseledger/internal/domain"
	"github.com/bft-labs/caseledger/internal/metrics"
	"github.com/bft-labs/caseledger/internal/ports"
)

const metricsNamespace = "caseledger"

// env holds the process-wide collaborators that survive client reloads.
type env struct {
	log     zerolog.Logger
	logger  ports.Logger
	metrics ports.Metrics

	stopMetrics func()
}

func (c *cli) newEnv() *env {
	log := cliconfig.Logger(c.cfg)
	e := &env{
		log:         log,
		logger:      logAdapter.NewZerologAdapterWithLogger(log),
		metrics:     metrics.NewNopMetrics(),
		stopMetrics: func() {},
	}
	if c.cfg.MetricsAddr != "" {
		prom := metrics.NewPrometheusMetrics(metricsNamespace)
		e.metrics = prom
		e.stopMetrics = serveMetrics(c.cfg.MetricsAddr, prom.Handler(), log)
	}
	return e
}

func (e *env) close() {
	e.stopMetrics()
}

// serveMetrics exposes h on addr and returns a function that shuts it down.
func serveMetrics(addr string, h http.Handler, log zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// newGateway builds the configured ledger gateway and its release function.
func (c *cli) newGateway(ctx context.Context, e *env) (caseledger.Gateway, func(), error) {
	if c.cfg.Simulated {
		e.log.Warn().Msg("using in-memory simulated ledger; state is discarded on exit")
		return simulated.New(simulated.WithLogger(e.logger)), func() {}, nil
	}

	book, err := cliconfig.ResolveAddressBook(c.cfg)
	if err != nil {
		return nil, nil, err
	}
	gw, err := ethrpc.Dial(ctx, ethrpc.Config{
		URL:                 c.cfg.RPCURL,
		Addresses:           book,
		From:                c.cfg.From(),
		PollInterval:        c.cfg.PollInterval,
		ConfirmPollInterval: c.cfg.ConfirmPollInterval,
		ConfirmPollMax:      c.cfg.ConfirmPollMax,
		RateLimit:           c.cfg.RPCRateLimit,
		Burst:               c.cfg.RPCBurst,
		Logger:              e.logger,
	})
	if err != nil {
		return nil, nil, domain.NewFault(domain.FaultGatewayUnavailable, "connect", err)
	}
	return gw, gw.Close, nil
}

// newClient builds a client over a fresh gateway.
func (c *cli) newClient(ctx context.Context, e *env, onReload caseledger.ReloadFunc) (*caseledger.Client, func(), error) {
	gw, release, err := c.newGateway(ctx, e)
	if err != nil {
		return nil, nil, err
	}

	opts := []caseledger.Option{
		caseledger.WithLogger(e.logger),
		caseledger.WithMetrics(e.metrics),
		caseledger.WithCallTimeout(c.cfg.CallTimeout),
	}
	if onReload != nil {
		opts = append(opts, caseledger.WithReloadHandler(onReload))
	}
	client := caseledger.New(gw, opts...)

	closeFn := func() {
		if err := client.Close(); err != nil {
			e.log.Warn().Err(err).Msg("client close")
		}
		release()
	}
	return client, closeFn, nil
}

// withClient runs fn against a one-shot client.
func (c *cli) withClient(ctx context.Context, fn func(context.Context, *caseledger.Client) error) error {
	e := c.newEnv()
	defer e.close()

	client, closeFn, err := c.newClient(ctx, e, nil)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer closeFn()

	return fn(ctx, client)
}
