package main

import (
	"encoding/json"
	"io"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bft-labs/caseledger"
)

type sessionView struct {
	Status       string          `json:"status"`
	Account      *common.Address `json:"account,omitempty"`
	BalanceWei   *big.Int        `json:"balance_wei,omitempty"`
	BalanceEther string          `json:"balance_ether,omitempty"`
	NetworkID    *uint64         `json:"network_id,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
	Loading      bool            `json:"loading"`
}

func viewSession(s caseledger.Session) sessionView {
	return sessionView{
		Status:       s.Status.String(),
		Account:      s.Account,
		BalanceWei:   s.Balance,
		BalanceEther: s.BalanceEther(),
		NetworkID:    s.NetworkID,
		LastError:    s.LastError,
		Loading:      s.Loading,
	}
}

// printer writes values as JSON. Safe for concurrent use.
type printer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newPrinter(w io.Writer, indent bool) *printer {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return &printer{enc: enc}
}

func (p *printer) print(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(v)
}
