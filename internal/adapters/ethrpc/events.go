package ethrpc

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bft-labs/caseledger/internal/domain"
	"github.com/bft-labs/caseledger/internal/ports"
)

// Subscribe polls eth_accounts and eth_chainId and reports changes as
// events. The baseline is taken before Subscribe returns. Account lists
// lead with the signing account; losing a pinned account is reported as
// an empty list.
func (g *Gateway) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	accounts, err := g.accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	chainID, err := g.NetworkID(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	events := make(chan domain.Event, 4)
	go g.poll(ctx, events, g.signers(accounts), chainID)
	return events, nil
}

func (g *Gateway) poll(ctx context.Context, events chan<- domain.Event, accounts []common.Address, chainID uint64) {
	defer close(events)

	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()

	emit := func(ev domain.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		exposed, err := g.accounts(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			g.logger.Debug("account poll failed", ports.Err(err))
			continue
		}
		current := g.signers(exposed)
		if !slices.Equal(current, accounts) {
			accounts = current
			if !emit(domain.Event{Kind: domain.EventAccountsChanged, Accounts: slices.Clone(current)}) {
				return
			}
		}

		id, err := g.NetworkID(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			g.logger.Debug("chain poll failed", ports.Err(err))
			continue
		}
		if id != chainID {
			chainID = id
			if !emit(domain.Event{Kind: domain.EventChainChanged, NetworkID: id}) {
				return
			}
		}
	}
}
